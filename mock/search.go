package mock

import (
	"context"

	"github.com/fwojciec/docnav"
)

var _ docnav.ShardSource = (*ShardSource)(nil)

// ShardSource is a mock implementation of docnav.ShardSource.
type ShardSource struct {
	FetchShardFn func(ctx context.Context, key string) (*docnav.IndexShard, error)
}

func (s *ShardSource) FetchShard(ctx context.Context, key string) (*docnav.IndexShard, error) {
	return s.FetchShardFn(ctx, key)
}

var _ docnav.Searcher = (*Searcher)(nil)

// Searcher is a mock implementation of docnav.Searcher.
type Searcher struct {
	SearchFn func(ctx context.Context, query string) ([]docnav.SearchEntry, error)
}

func (s *Searcher) Search(ctx context.Context, query string) ([]docnav.SearchEntry, error) {
	return s.SearchFn(ctx, query)
}
