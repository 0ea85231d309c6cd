package doxygen

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"sync"

	"github.com/fwojciec/docnav"
)

// SearchDataFile describes which shard files exist.
const SearchDataFile = "search/searchdata.js"

// indexSectionRe captures section 0 ("all") of indexSectionsWithContent.
var indexSectionRe = regexp.MustCompile(`indexSectionsWithContent\s*=\s*\{[^}]*?\b0\s*:\s*("(?:[^"\\]|\\.)*")`)

// Layout maps shard keys to shard files. Shards are numbered by the
// position of their key in the generator's alphabet, in hexadecimal.
type Layout struct {
	alphabet []string
	position map[string]int
}

// NewLayout returns the layout for an alphabet of shard keys.
func NewLayout(alphabet string) *Layout {
	l := &Layout{position: make(map[string]int)}
	for _, r := range alphabet {
		key := string(r)
		if _, ok := l.position[key]; ok {
			continue
		}
		l.position[key] = len(l.alphabet)
		l.alphabet = append(l.alphabet, key)
	}
	return l
}

// ParseLayout reads the alphabet from search/searchdata.js.
func ParseLayout(data []byte) (*Layout, error) {
	m := indexSectionRe.FindSubmatch(data)
	if m == nil {
		return nil, docnav.Errorf(docnav.EPARSE, "indexSectionsWithContent has no section 0")
	}
	alphabet, err := strconv.Unquote(string(m[1]))
	if err != nil {
		return nil, docnav.WrapError(docnav.EPARSE, err, "decode search alphabet")
	}
	return NewLayout(alphabet), nil
}

// FileName returns the shard file for key and whether the generator wrote
// one.
func (l *Layout) FileName(key string) (string, bool) {
	pos, ok := l.position[key]
	if !ok {
		return "", false
	}
	return fmt.Sprintf("search/all_%x.js", pos), true
}

// Keys returns every shard key in file order.
func (l *Layout) Keys() []string {
	return append([]string(nil), l.alphabet...)
}

// ShardSource serves search shards from the generator's search directory.
type ShardSource struct {
	fetcher docnav.Fetcher

	mu     sync.Mutex
	layout *Layout
}

// NewShardSource returns a ShardSource reading files from fetcher. A nil
// layout is read from search/searchdata.js on first use.
func NewShardSource(fetcher docnav.Fetcher, layout *Layout) *ShardSource {
	return &ShardSource{fetcher: fetcher, layout: layout}
}

// Layout returns the shard layout, loading it if needed. A failed load is
// retried on the next call.
func (s *ShardSource) Layout(ctx context.Context) (*Layout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.layout != nil {
		return s.layout, nil
	}
	data, err := s.fetcher.Fetch(ctx, SearchDataFile)
	if err != nil {
		return nil, docnav.WrapError(docnav.EFETCH, err, "fetch %s", SearchDataFile)
	}
	layout, err := ParseLayout(data)
	if err != nil {
		return nil, docnav.WrapError(docnav.EFETCH, err, "read %s", SearchDataFile)
	}
	s.layout = layout
	return layout, nil
}

// FetchShard implements docnav.ShardSource. Keys outside the alphabet return
// ENOTFOUND since the generator wrote no shard for them. A shard file the
// layout names but that cannot be read or decoded returns EFETCH.
func (s *ShardSource) FetchShard(ctx context.Context, key string) (*docnav.IndexShard, error) {
	layout, err := s.Layout(ctx)
	if err != nil {
		return nil, err
	}
	name, ok := layout.FileName(key)
	if !ok {
		return nil, docnav.Errorf(docnav.ENOTFOUND, "no search shard for %q", key)
	}

	data, err := s.fetcher.Fetch(ctx, name)
	if err != nil {
		return nil, docnav.WrapError(docnav.EFETCH, err, "fetch %s", name)
	}
	entries, err := ParseSearchData(data)
	if err != nil {
		return nil, docnav.WrapError(docnav.EFETCH, err, "read %s", name)
	}
	return &docnav.IndexShard{Key: key, Entries: entries}, nil
}

var _ docnav.ShardSource = (*ShardSource)(nil)
