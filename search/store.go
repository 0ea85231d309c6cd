// Package search provides the sharded search index: a session cache of
// lazily fetched index shards and the incremental search engine on top of it.
package search

import (
	"context"
	"sync"

	"github.com/fwojciec/docnav"
	"github.com/fwojciec/docnav/bloom"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Default bloom filter parameters for shard prefix filters.
const (
	DefaultFilterFPRate    = 0.01
	DefaultPrefetchWorkers = 4
)

// loadedShard is a cached shard with its prefix filter.
type loadedShard struct {
	shard  *docnav.IndexShard
	filter *bloom.PrefixFilter
}

// ShardStore caches index shards for the session. Shards are fetched on
// first use, never evicted, and never re-fetched once cached. Concurrent
// requests for the same uncached shard share a single fetch. It is safe for
// concurrent use by multiple goroutines.
type ShardStore struct {
	source docnav.ShardSource

	mu     sync.RWMutex
	shards map[string]*loadedShard

	group singleflight.Group
}

// NewShardStore returns a ShardStore fetching from source.
func NewShardStore(source docnav.ShardSource) *ShardStore {
	return &ShardStore{
		source: source,
		shards: make(map[string]*loadedShard),
	}
}

// EnsureShard returns the shard for key, fetching it if it is not cached.
// A key the index has no shard for yields an empty shard. Returns EFETCH if
// the shard is unreachable or malformed; failures are not cached, so a later
// call fetches again.
func (s *ShardStore) EnsureShard(ctx context.Context, key string) (*docnav.IndexShard, error) {
	ls, err := s.ensure(ctx, key)
	if err != nil {
		return nil, err
	}
	return ls.shard, nil
}

// Cached returns the shard for key if it has already been loaded.
func (s *ShardStore) Cached(key string) (*docnav.IndexShard, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ls, ok := s.shards[key]
	if !ok {
		return nil, false
	}
	return ls.shard, true
}

// Len returns the number of cached shards.
func (s *ShardStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.shards)
}

// Prefetch loads the given shards concurrently. It returns the first
// failure; shards that loaded successfully stay cached.
func (s *ShardStore) Prefetch(ctx context.Context, keys ...string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(DefaultPrefetchWorkers)
	for _, key := range keys {
		g.Go(func() error {
			_, err := s.ensure(gctx, key)
			return err
		})
	}
	return g.Wait()
}

func (s *ShardStore) lookup(key string) (*loadedShard, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ls, ok := s.shards[key]
	return ls, ok
}

func (s *ShardStore) ensure(ctx context.Context, key string) (*loadedShard, error) {
	if ls, ok := s.lookup(key); ok {
		return ls, nil
	}

	// The fetch outlives any single waiter so that a caller giving up does
	// not fail the other callers sharing it.
	fetchCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		if ls, ok := s.lookup(key); ok {
			return ls, nil
		}
		ls, err := s.fetch(fetchCtx, key)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.shards[key] = ls
		s.mu.Unlock()
		return ls, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*loadedShard), nil
	}
}

func (s *ShardStore) fetch(ctx context.Context, key string) (*loadedShard, error) {
	shard, err := s.source.FetchShard(ctx, key)
	switch docnav.ErrorCode(err) {
	case "":
	case docnav.ENOTFOUND:
		shard = &docnav.IndexShard{Key: key}
	case docnav.EFETCH:
		return nil, err
	default:
		return nil, docnav.WrapError(docnav.EFETCH, err, "fetch shard %q", key)
	}
	if shard == nil {
		return nil, docnav.Errorf(docnav.EFETCH, "shard %q is empty", key)
	}

	// Copy so that the cached shard cannot be mutated through the source.
	entries := make([]docnav.SearchEntry, len(shard.Entries))
	filter := bloom.NewPrefixFilter(uint(len(shard.Entries)), DefaultFilterFPRate, bloom.DefaultMaxPrefix)
	for i, e := range shard.Entries {
		e.Key = docnav.NormalizeQuery(e.Key)
		entries[i] = e
		filter.Add(e.Key)
	}
	return &loadedShard{
		shard:  &docnav.IndexShard{Key: key, Entries: entries},
		filter: filter,
	}, nil
}
