// Package fs provides file-based access to generated documentation sets.
package fs

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fwojciec/docnav"
)

// Ensure Fetcher implements docnav.Fetcher at compile time.
var _ docnav.Fetcher = (*Fetcher)(nil)

// Fetcher reads data files from a documentation directory. Names cannot
// escape the directory.
type Fetcher struct {
	root *os.Root
}

// NewFetcher opens dir for reading.
func NewFetcher(dir string) (*Fetcher, error) {
	root, err := os.OpenRoot(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, docnav.WrapError(docnav.ENOTFOUND, err, "documentation directory %q not found", dir)
		}
		return nil, docnav.WrapError(docnav.EINVALID, err, "open documentation directory %q", dir)
	}
	return &Fetcher{root: root}, nil
}

// Fetch implements docnav.Fetcher.
func (f *Fetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rel, err := localPath(name)
	if err != nil {
		return nil, err
	}
	data, err := f.root.ReadFile(rel)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, docnav.Errorf(docnav.ENOTFOUND, "%s not found", name)
		}
		return nil, docnav.WrapError(docnav.EFETCH, err, "read %s", name)
	}
	return data, nil
}

// Close releases the directory handle.
func (f *Fetcher) Close() error {
	return f.root.Close()
}

// localPath converts a slash-separated data file name into a path local to
// the documentation directory.
func localPath(name string) (string, error) {
	rel := filepath.FromSlash(docnav.CleanLocation(name))
	if !filepath.IsLocal(rel) {
		return "", docnav.Errorf(docnav.EINVALID, "invalid file name %q", name)
	}
	return rel, nil
}
