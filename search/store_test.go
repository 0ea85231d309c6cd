package search_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/docnav"
	"github.com/fwojciec/docnav/mock"
	"github.com/fwojciec/docnav/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vShard() *docnav.IndexShard {
	return &docnav.IndexShard{Key: "v", Entries: []docnav.SearchEntry{
		{Key: "valence", DisplayName: "valence", Target: "classpmp_1_1_surface_mesh.html#ab0176af2", Scope: "pmp::SurfaceMesh::valence(Face f) const"},
		{Key: "valence", DisplayName: "valence", Target: "classpmp_1_1_surface_mesh.html#a519feed0", Scope: "pmp::SurfaceMesh::valence(Vertex v) const"},
		{Key: "value_type", DisplayName: "value_type", Target: "classpmp_1_1_matrix.html#aae74c256", Scope: "pmp::Matrix"},
		{Key: "vec2", DisplayName: "vec2", Target: "group__core.html#ga9db423d3", Scope: "pmp"},
		{Key: "vertex", DisplayName: "Vertex", Target: "classpmp_1_1_vertex.html", Scope: "pmp"},
		{Key: "vertex", DisplayName: "vertex", Target: "classpmp_1_1_surface_mesh.html#aecbaa899", Scope: "pmp::SurfaceMesh"},
		{Key: "vertices", DisplayName: "vertices", Target: "classpmp_1_1_surface_mesh.html#a1e9f7a43", Scope: "pmp::SurfaceMesh"},
		{Key: "vprop", DisplayName: "vprop (vertex property alias)", Target: "group__core.html#vprop", Scope: "pmp"},
	}}
}

func TestShardStore_EnsureShard(t *testing.T) {
	t.Parallel()

	t.Run("fetches once and caches", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		source := &mock.ShardSource{
			FetchShardFn: func(_ context.Context, key string) (*docnav.IndexShard, error) {
				calls.Add(1)
				return vShard(), nil
			},
		}
		store := search.NewShardStore(source)

		first, err := store.EnsureShard(context.Background(), "v")
		require.NoError(t, err)
		second, err := store.EnsureShard(context.Background(), "v")
		require.NoError(t, err)

		assert.Same(t, first, second)
		assert.Equal(t, int32(1), calls.Load())
		assert.Equal(t, 1, store.Len())
	})

	t.Run("collapses concurrent fetches of the same shard", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		release := make(chan struct{})
		source := &mock.ShardSource{
			FetchShardFn: func(_ context.Context, key string) (*docnav.IndexShard, error) {
				calls.Add(1)
				<-release
				return vShard(), nil
			},
		}
		store := search.NewShardStore(source)

		const callers = 8
		var wg sync.WaitGroup
		shards := make([]*docnav.IndexShard, callers)
		errs := make([]error, callers)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				shards[i], errs[i] = store.EnsureShard(context.Background(), "v")
			}()
		}

		require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
		close(release)
		wg.Wait()

		assert.Equal(t, int32(1), calls.Load())
		for i := 0; i < callers; i++ {
			require.NoError(t, errs[i])
			assert.Same(t, shards[0], shards[i])
		}
	})

	t.Run("shares a failure between concurrent callers", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		release := make(chan struct{})
		source := &mock.ShardSource{
			FetchShardFn: func(_ context.Context, key string) (*docnav.IndexShard, error) {
				calls.Add(1)
				<-release
				return nil, errors.New("connection refused")
			},
		}
		store := search.NewShardStore(source)

		errs := make(chan error, 2)
		for i := 0; i < 2; i++ {
			go func() {
				_, err := store.EnsureShard(context.Background(), "v")
				errs <- err
			}()
		}
		require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
		time.Sleep(10 * time.Millisecond)
		close(release)

		for i := 0; i < 2; i++ {
			err := <-errs
			assert.Equal(t, docnav.EFETCH, docnav.ErrorCode(err))
		}
	})

	t.Run("does not cache failures", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		source := &mock.ShardSource{
			FetchShardFn: func(_ context.Context, key string) (*docnav.IndexShard, error) {
				if calls.Add(1) == 1 {
					return nil, docnav.Errorf(docnav.EFETCH, "malformed shard")
				}
				return vShard(), nil
			},
		}
		store := search.NewShardStore(source)

		_, err := store.EnsureShard(context.Background(), "v")
		assert.Equal(t, docnav.EFETCH, docnav.ErrorCode(err))
		_, ok := store.Cached("v")
		assert.False(t, ok)

		shard, err := store.EnsureShard(context.Background(), "v")
		require.NoError(t, err)
		assert.Len(t, shard.Entries, 8)
	})

	t.Run("treats a missing shard as empty", func(t *testing.T) {
		t.Parallel()

		source := &mock.ShardSource{
			FetchShardFn: func(_ context.Context, key string) (*docnav.IndexShard, error) {
				return nil, docnav.Errorf(docnav.ENOTFOUND, "no shard for %q", key)
			},
		}
		store := search.NewShardStore(source)

		shard, err := store.EnsureShard(context.Background(), "q")
		require.NoError(t, err)
		assert.Equal(t, "q", shard.Key)
		assert.Empty(t, shard.Entries)
	})

	t.Run("returns context error when caller gives up", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		defer close(release)
		source := &mock.ShardSource{
			FetchShardFn: func(_ context.Context, key string) (*docnav.IndexShard, error) {
				<-release
				return vShard(), nil
			},
		}
		store := search.NewShardStore(source)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := store.EnsureShard(ctx, "v")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("isolates cached shard from source mutation", func(t *testing.T) {
		t.Parallel()

		shard := vShard()
		source := &mock.ShardSource{
			FetchShardFn: func(_ context.Context, key string) (*docnav.IndexShard, error) {
				return shard, nil
			},
		}
		store := search.NewShardStore(source)

		cached, err := store.EnsureShard(context.Background(), "v")
		require.NoError(t, err)
		shard.Entries[0].Key = "mutated"

		assert.Equal(t, "valence", cached.Entries[0].Key)
	})
}

func TestShardStore_Prefetch(t *testing.T) {
	t.Parallel()

	t.Run("loads all keys", func(t *testing.T) {
		t.Parallel()

		source := &mock.ShardSource{
			FetchShardFn: func(_ context.Context, key string) (*docnav.IndexShard, error) {
				return &docnav.IndexShard{Key: key}, nil
			},
		}
		store := search.NewShardStore(source)

		require.NoError(t, store.Prefetch(context.Background(), "a", "b", "c"))
		assert.Equal(t, 3, store.Len())
	})

	t.Run("reports failure and keeps loaded shards", func(t *testing.T) {
		t.Parallel()

		source := &mock.ShardSource{
			FetchShardFn: func(_ context.Context, key string) (*docnav.IndexShard, error) {
				if key == "b" {
					return nil, errors.New("boom")
				}
				return &docnav.IndexShard{Key: key}, nil
			},
		}
		store := search.NewShardStore(source)

		err := store.Prefetch(context.Background(), "a", "b")
		assert.Equal(t, docnav.EFETCH, docnav.ErrorCode(err))
		_, ok := store.Cached("b")
		assert.False(t, ok)
	})
}
