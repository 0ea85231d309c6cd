package fs

import (
	"context"
	"os"
	"path/filepath"
)

// Mirror writes a local copy of a documentation set with atomic update
// semantics. Files are written to a temporary directory and moved into
// place on Commit.
type Mirror struct {
	baseDir string
	name    string
}

// NewMirror creates a new Mirror.
// baseDir is the parent directory, name is the output directory name.
// Files are saved to baseDir/name.tmp and moved to baseDir/name on Commit.
func NewMirror(baseDir, name string) *Mirror {
	return &Mirror{
		baseDir: baseDir,
		name:    name,
	}
}

func (m *Mirror) tempDir() string {
	return filepath.Join(m.baseDir, m.name+".tmp")
}

// Dir returns the final directory of the mirror.
func (m *Mirror) Dir() string {
	return filepath.Join(m.baseDir, m.name)
}

// Save writes one data file.
func (m *Mirror) Save(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel, err := localPath(name)
	if err != nil {
		return err
	}

	fullPath := filepath.Join(m.tempDir(), rel)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(fullPath, data, 0644)
}

// Commit replaces the final directory with the saved files.
func (m *Mirror) Commit() error {
	// Remove existing final directory if present
	if err := os.RemoveAll(m.Dir()); err != nil {
		return err
	}
	return os.Rename(m.tempDir(), m.Dir())
}

// Abort discards the saved files.
func (m *Mirror) Abort() error {
	return os.RemoveAll(m.tempDir())
}
