package search

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/fwojciec/docnav"
)

// Ensure Engine implements docnav.Searcher at compile time.
var _ docnav.Searcher = (*Engine)(nil)

// Engine answers search queries against a ShardStore.
//
// Search computes the result of a single query. Issue runs queries in the
// background for interactive use: a newly issued query supersedes any query
// still in flight, and only the result of the most recently issued query is
// ever delivered on Results.
type Engine struct {
	store    *ShardStore
	shardKey func(normalized string) string
	limit    int

	mu      sync.Mutex
	latest  uint64
	cancel  context.CancelFunc
	closed  bool
	results chan docnav.SearchResult
	wg      sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

// WithShardKeyFunc sets the derivation from a normalized query to a shard
// key. It must match the one the index was built with.
// Defaults to docnav.ShardKeyFor.
func WithShardKeyFunc(fn func(normalized string) string) Option {
	return func(e *Engine) {
		e.shardKey = fn
	}
}

// WithLimit caps the number of returned entries. Zero means no limit.
func WithLimit(n int) Option {
	return func(e *Engine) {
		e.limit = n
	}
}

// NewEngine creates a new Engine.
func NewEngine(store *ShardStore, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		shardKey: docnav.ShardKeyFor,
		results:  make(chan docnav.SearchResult, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search returns the entries matching query. Entries whose key starts with
// the normalized query come first, in shard order. Only when there are none
// does it fall back to entries whose display name contains the query.
// An empty query returns no entries without touching the index.
// Returns EUNAVAILABLE if the shard could not be loaded.
func (e *Engine) Search(ctx context.Context, query string) ([]docnav.SearchEntry, error) {
	q := docnav.NormalizeQuery(query)
	if q == "" {
		return nil, nil
	}

	ls, err := e.store.ensure(ctx, e.shardKey(q))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, docnav.WrapError(docnav.EUNAVAILABLE, err, "search unavailable")
	}

	entries := ls.shard.Entries
	var matches []docnav.SearchEntry
	if ls.filter.MayHavePrefix(q) {
		for _, entry := range entries {
			if strings.HasPrefix(entry.Key, q) {
				matches = append(matches, entry)
				if e.full(matches) {
					return matches, nil
				}
			}
		}
	}
	if len(matches) > 0 {
		return matches, nil
	}

	for _, entry := range entries {
		if strings.Contains(docnav.NormalizeQuery(entry.DisplayName), q) {
			matches = append(matches, entry)
			if e.full(matches) {
				break
			}
		}
	}
	return matches, nil
}

func (e *Engine) full(matches []docnav.SearchEntry) bool {
	return e.limit > 0 && len(matches) >= e.limit
}

// Issue starts query in the background and returns its sequence number.
// Any query still in flight is canceled and its result discarded.
// Returns 0 if the engine is closed.
func (e *Engine) Issue(ctx context.Context, query string) uint64 {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return 0
	}
	if e.cancel != nil {
		e.cancel()
	}
	// A result still buffered belongs to an earlier query.
	select {
	case <-e.results:
	default:
	}
	e.latest++
	seq := e.latest
	qctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		defer cancel()

		entries, err := e.Search(qctx, query)
		if errors.Is(err, context.Canceled) {
			return
		}
		e.deliver(docnav.SearchResult{
			Seq:     seq,
			Query:   query,
			Entries: entries,
			Err:     err,
		})
	}()
	return seq
}

// deliver publishes res if it belongs to the latest issued query, replacing
// any result the consumer has not read yet.
func (e *Engine) deliver(res docnav.SearchResult) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || res.Seq != e.latest {
		return
	}
	select {
	case <-e.results:
	default:
	}
	e.results <- res
}

// Results returns the channel on which results of issued queries are
// delivered. The channel is closed by Close.
func (e *Engine) Results() <-chan docnav.SearchResult {
	return e.results
}

// Latest returns the sequence number of the most recently issued query.
func (e *Engine) Latest() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.latest
}

// Close cancels the query in flight, waits for background work to finish
// and closes the results channel.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	if e.cancel != nil {
		e.cancel()
	}
	e.mu.Unlock()

	e.wg.Wait()
	close(e.results)
	return nil
}
