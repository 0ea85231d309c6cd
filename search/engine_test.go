package search_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/docnav"
	"github.com/fwojciec/docnav/mock"
	"github.com/fwojciec/docnav/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func staticSource(shards ...*docnav.IndexShard) *mock.ShardSource {
	byKey := make(map[string]*docnav.IndexShard)
	for _, s := range shards {
		byKey[s.Key] = s
	}
	return &mock.ShardSource{
		FetchShardFn: func(_ context.Context, key string) (*docnav.IndexShard, error) {
			if s, ok := byKey[key]; ok {
				return s, nil
			}
			return nil, docnav.Errorf(docnav.ENOTFOUND, "no shard %q", key)
		},
	}
}

func keysOf(entries []docnav.SearchEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Key)
	}
	return out
}

func TestEngine_Search(t *testing.T) {
	t.Parallel()

	t.Run("returns overloads adjacent in insertion order", func(t *testing.T) {
		t.Parallel()

		engine := search.NewEngine(search.NewShardStore(staticSource(vShard())))

		entries, err := engine.Search(context.Background(), "valence")
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "pmp::SurfaceMesh::valence(Face f) const", entries[0].Scope)
		assert.Equal(t, "pmp::SurfaceMesh::valence(Vertex v) const", entries[1].Scope)
	})

	t.Run("preserves shard order for prefix matches", func(t *testing.T) {
		t.Parallel()

		engine := search.NewEngine(search.NewShardStore(staticSource(vShard())))

		entries, err := engine.Search(context.Background(), "ve")
		require.NoError(t, err)
		assert.Equal(t, []string{"vec2", "vertex", "vertex", "vertices"}, keysOf(entries))
	})

	t.Run("normalizes the query", func(t *testing.T) {
		t.Parallel()

		engine := search.NewEngine(search.NewShardStore(staticSource(vShard())))

		entries, err := engine.Search(context.Background(), "  VEC2 ")
		require.NoError(t, err)
		assert.Equal(t, []string{"vec2"}, keysOf(entries))
	})

	t.Run("falls back to substring only without prefix hits", func(t *testing.T) {
		t.Parallel()

		engine := search.NewEngine(search.NewShardStore(staticSource(vShard())))

		entries, err := engine.Search(context.Background(), "vertex  property")
		require.NoError(t, err)
		assert.Equal(t, []string{"vprop"}, keysOf(entries))

		// "vertex" is a display-name substring of "vprop" too, but prefix
		// hits must not be masked or mixed with substring hits.
		entries, err = engine.Search(context.Background(), "vertex")
		require.NoError(t, err)
		assert.Equal(t, []string{"vertex", "vertex"}, keysOf(entries))
	})

	t.Run("substring match ignores repeated whitespace in display name", func(t *testing.T) {
		t.Parallel()

		shard := &docnav.IndexShard{Key: "s", Entries: []docnav.SearchEntry{
			{Key: "smesh", DisplayName: "pmp::Surface  Mesh", Target: "classpmp_1_1_surface_mesh.html"},
		}}
		engine := search.NewEngine(search.NewShardStore(staticSource(shard)))

		entries, err := engine.Search(context.Background(), "surface mesh")
		require.NoError(t, err)
		assert.Equal(t, []string{"smesh"}, keysOf(entries))
	})

	t.Run("narrowing a query cannot invent prefix matches", func(t *testing.T) {
		t.Parallel()

		shard := &docnav.IndexShard{Key: "v", Entries: []docnav.SearchEntry{
			{Key: "vertex", DisplayName: "vertex"},
			{Key: "vertices", DisplayName: "vertices"},
		}}
		engine := search.NewEngine(search.NewShardStore(staticSource(shard)))

		vert, err := engine.Search(context.Background(), "vert")
		require.NoError(t, err)
		verti, err := engine.Search(context.Background(), "verti")
		require.NoError(t, err)

		assert.Equal(t, []string{"vertex", "vertices"}, keysOf(vert))
		assert.Equal(t, []string{"vertices"}, keysOf(verti))
		assert.Subset(t, keysOf(vert), keysOf(verti))

		none, err := engine.Search(context.Background(), "vx")
		require.NoError(t, err)
		assert.Empty(t, none)
		none, err = engine.Search(context.Background(), "vxy")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("empty query does not fetch", func(t *testing.T) {
		t.Parallel()

		source := &mock.ShardSource{
			FetchShardFn: func(_ context.Context, key string) (*docnav.IndexShard, error) {
				t.Errorf("unexpected fetch of shard %q", key)
				return nil, nil
			},
		}
		engine := search.NewEngine(search.NewShardStore(source))

		entries, err := engine.Search(context.Background(), "   ")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("distinguishes unavailable index from no matches", func(t *testing.T) {
		t.Parallel()

		source := &mock.ShardSource{
			FetchShardFn: func(_ context.Context, key string) (*docnav.IndexShard, error) {
				if key == "v" {
					return nil, errors.New("connection refused")
				}
				return nil, docnav.Errorf(docnav.ENOTFOUND, "no shard")
			},
		}
		engine := search.NewEngine(search.NewShardStore(source))

		_, err := engine.Search(context.Background(), "vertex")
		assert.Equal(t, docnav.EUNAVAILABLE, docnav.ErrorCode(err))

		entries, err := engine.Search(context.Background(), "zzz")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("applies limit", func(t *testing.T) {
		t.Parallel()

		engine := search.NewEngine(search.NewShardStore(staticSource(vShard())), search.WithLimit(2))

		entries, err := engine.Search(context.Background(), "v")
		require.NoError(t, err)
		assert.Equal(t, []string{"valence", "valence"}, keysOf(entries))
	})

	t.Run("uses custom shard key derivation", func(t *testing.T) {
		t.Parallel()

		var requested string
		source := &mock.ShardSource{
			FetchShardFn: func(_ context.Context, key string) (*docnav.IndexShard, error) {
				requested = key
				return &docnav.IndexShard{Key: key}, nil
			},
		}
		engine := search.NewEngine(search.NewShardStore(source),
			search.WithShardKeyFunc(func(q string) string { return q[:2] }))

		_, err := engine.Search(context.Background(), "vertex")
		require.NoError(t, err)
		assert.Equal(t, "ve", requested)
	})
}

func TestEngine_Issue(t *testing.T) {
	t.Parallel()

	t.Run("delivers only the latest of overlapping queries", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		source := &mock.ShardSource{
			FetchShardFn: func(_ context.Context, key string) (*docnav.IndexShard, error) {
				<-release
				return vShard(), nil
			},
		}
		engine := search.NewEngine(search.NewShardStore(source))
		defer engine.Close()

		first := engine.Issue(context.Background(), "ver")
		second := engine.Issue(context.Background(), "vertex")
		assert.Less(t, first, second)
		close(release)

		select {
		case res := <-engine.Results():
			assert.Equal(t, second, res.Seq)
			assert.Equal(t, "vertex", res.Query)
			assert.Equal(t, []string{"vertex", "vertex"}, keysOf(res.Entries))
		case <-time.After(time.Second):
			t.Fatal("no result delivered")
		}

		select {
		case res := <-engine.Results():
			t.Fatalf("unexpected result for %q", res.Query)
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("drops stale result that completes last", func(t *testing.T) {
		t.Parallel()

		slow := make(chan struct{})
		defer close(slow)
		source := &mock.ShardSource{
			FetchShardFn: func(_ context.Context, key string) (*docnav.IndexShard, error) {
				if key == "a" {
					<-slow
				}
				return &docnav.IndexShard{Key: key, Entries: []docnav.SearchEntry{{Key: key + "x", DisplayName: key + "x"}}}, nil
			},
		}
		engine := search.NewEngine(search.NewShardStore(source))
		defer engine.Close()

		engine.Issue(context.Background(), "a")
		latest := engine.Issue(context.Background(), "b")

		res := <-engine.Results()
		assert.Equal(t, latest, res.Seq)
		assert.Equal(t, []string{"bx"}, keysOf(res.Entries))
		assert.Equal(t, latest, engine.Latest())
	})

	t.Run("drops buffered result of superseded query", func(t *testing.T) {
		t.Parallel()

		block := make(chan struct{})
		source := &mock.ShardSource{
			FetchShardFn: func(_ context.Context, key string) (*docnav.IndexShard, error) {
				if key == "x" {
					<-block
				}
				return &docnav.IndexShard{Key: key, Entries: []docnav.SearchEntry{{Key: key + "1", DisplayName: key + "1"}}}, nil
			},
		}
		engine := search.NewEngine(search.NewShardStore(source))
		defer engine.Close()
		defer close(block)

		engine.Issue(context.Background(), "v")
		require.Eventually(t, func() bool { return len(engine.Results()) == 1 }, time.Second, time.Millisecond)

		latest := engine.Issue(context.Background(), "x")
		select {
		case res := <-engine.Results():
			t.Fatalf("observed seq %d for %q, latest is %d", res.Seq, res.Query, latest)
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("delivers unavailable outcome", func(t *testing.T) {
		t.Parallel()

		source := &mock.ShardSource{
			FetchShardFn: func(_ context.Context, key string) (*docnav.IndexShard, error) {
				return nil, docnav.Errorf(docnav.EFETCH, "malformed")
			},
		}
		engine := search.NewEngine(search.NewShardStore(source))
		defer engine.Close()

		engine.Issue(context.Background(), "vertex")
		res := <-engine.Results()
		assert.True(t, res.Unavailable())
		assert.Empty(t, res.Entries)
	})

	t.Run("returns zero after close", func(t *testing.T) {
		t.Parallel()

		engine := search.NewEngine(search.NewShardStore(staticSource(vShard())))
		require.NoError(t, engine.Close())
		require.NoError(t, engine.Close())

		assert.Zero(t, engine.Issue(context.Background(), "v"))
		_, open := <-engine.Results()
		assert.False(t, open)
	})
}

func TestEngine_Close_NoLeaks(t *testing.T) {
	defer goleak.VerifyNone(t)

	var fetches atomic.Int32
	source := &mock.ShardSource{
		FetchShardFn: func(_ context.Context, key string) (*docnav.IndexShard, error) {
			fetches.Add(1)
			return vShard(), nil
		},
	}
	engine := search.NewEngine(search.NewShardStore(source))
	for _, q := range []string{"v", "ve", "ver", "vert", "verte", "vertex"} {
		engine.Issue(context.Background(), q)
	}
	require.NoError(t, engine.Close())
	assert.LessOrEqual(t, fetches.Load(), int32(1))
}
