package docnav

import "context"

// SearchEntry is a single searchable symbol or page.
type SearchEntry struct {
	// Key is the normalized lookup token. Several entries may share a key
	// (overloads); they are kept adjacent in insertion order.
	Key         string `json:"key"`
	DisplayName string `json:"displayName"`
	Target      string `json:"target"`

	// Scope disambiguates entries sharing a key, e.g. the enclosing class.
	Scope string `json:"scope,omitempty"`
}

// IndexShard is an immutable partition of the search index.
type IndexShard struct {
	Key     string        `json:"key"`
	Entries []SearchEntry `json:"entries"`
}

// ShardSource fetches search index shards.
type ShardSource interface {
	// FetchShard retrieves the shard addressed by key.
	// Returns ENOTFOUND if the index has no shard for key and EFETCH if the
	// shard is unreachable or malformed.
	FetchShard(ctx context.Context, key string) (*IndexShard, error)
}

// Searcher answers search queries.
type Searcher interface {
	// Search returns the entries matching the raw query, prefix matches
	// first. Returns EUNAVAILABLE if the index could not be loaded.
	Search(ctx context.Context, query string) ([]SearchEntry, error)
}

// SearchResult is the outcome of an asynchronously issued query.
type SearchResult struct {
	Seq     uint64        `json:"seq"`
	Query   string        `json:"query"`
	Entries []SearchEntry `json:"entries"`
	Err     error         `json:"-"`
}

// Unavailable reports whether the result represents a search that could
// not run, as opposed to a search with no matches.
func (r *SearchResult) Unavailable() bool {
	return ErrorCode(r.Err) == EUNAVAILABLE
}
