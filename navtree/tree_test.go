package navtree_test

import (
	"testing"

	"github.com/fwojciec/docnav"
	"github.com/fwojciec/docnav/navtree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pmpDocument mirrors the top of the pmp-library navigation tree.
func pmpDocument() *docnav.NavDocument {
	return &docnav.NavDocument{
		Root: &docnav.NavItem{
			Label:  "Polygon Mesh Processing Library",
			Target: "index.html",
			Children: []*docnav.NavItem{
				{Label: "Introduction", Target: "index.html"},
				{Label: "News", Target: "news.html", Children: []*docnav.NavItem{
					{Label: "Version 3.0 Released", Target: "version-3-0-released-2023-08-24.html"},
				}},
				{Label: "Guide", Target: "guide.html", Children: []*docnav.NavItem{
					{Label: "Installation", Target: "installation.html"},
					{Label: "Advanced", Target: "advanced.html", Children: []*docnav.NavItem{
						{Label: "Interfacing with Eigen", Target: "eigen.html"},
					}},
				}},
				{Label: "Bibliography", Target: "citelist.html"},
				{Label: "API", Children: []*docnav.NavItem{
					{Label: "SurfaceMesh", Target: "classpmp_1_1_surface_mesh.html"},
				}},
				{Label: "Code", Target: "^https://github.com/pmp-library/pmp-library"},
			},
		},
	}
}

func labels(path []*docnav.NavNode) []string {
	out := make([]string, 0, len(path))
	for _, n := range path {
		out = append(out, n.Label)
	}
	return out
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("builds nodes in presentation order", func(t *testing.T) {
		t.Parallel()

		tree, err := navtree.Load(pmpDocument())
		require.NoError(t, err)

		assert.Equal(t, 12, tree.Len())
		root := tree.Root()
		assert.Equal(t, "Polygon Mesh Processing Library", root.Label)
		assert.Empty(t, root.Parent)
		assert.Equal(t,
			[]string{"Introduction", "News", "Guide", "Bibliography", "API", "Code"},
			labels(tree.Children(root.ID)))
	})

	t.Run("links children to parent by id", func(t *testing.T) {
		t.Parallel()

		tree, err := navtree.Load(pmpDocument())
		require.NoError(t, err)

		tree.Walk(func(n *docnav.NavNode) bool {
			for _, child := range tree.Children(n.ID) {
				assert.Equal(t, n.ID, child.Parent)
				assert.Equal(t, n.Depth+1, child.Depth)
			}
			return true
		})
	})

	t.Run("generates stable ids", func(t *testing.T) {
		t.Parallel()

		a, err := navtree.Load(pmpDocument())
		require.NoError(t, err)
		b, err := navtree.Load(pmpDocument())
		require.NoError(t, err)

		var idsA, idsB []string
		a.Walk(func(n *docnav.NavNode) bool { idsA = append(idsA, n.ID); return true })
		b.Walk(func(n *docnav.NavNode) bool { idsB = append(idsB, n.ID); return true })
		assert.Equal(t, idsA, idsB)
	})

	t.Run("keeps explicit ids", func(t *testing.T) {
		t.Parallel()

		tree, err := navtree.Load(&docnav.NavDocument{Root: &docnav.NavItem{
			ID: "root", Label: "Root", Children: []*docnav.NavItem{
				{ID: "guide", Label: "Guide", Target: "guide.html"},
			},
		}})
		require.NoError(t, err)

		n, ok := tree.Node("guide")
		require.True(t, ok)
		assert.Equal(t, "root", n.Parent)
	})

	t.Run("marks caret targets as external and leaves them unindexed", func(t *testing.T) {
		t.Parallel()

		tree, err := navtree.Load(pmpDocument())
		require.NoError(t, err)

		code := tree.Children(tree.Root().ID)[5]
		assert.True(t, code.External)
		assert.Equal(t, "https://github.com/pmp-library/pmp-library", code.Target)
		assert.Nil(t, tree.ResolvePath("https://github.com/pmp-library/pmp-library"))
	})

	t.Run("uses default sync messages", func(t *testing.T) {
		t.Parallel()

		tree, err := navtree.Load(pmpDocument())
		require.NoError(t, err)

		on, off := tree.SyncMessages()
		assert.Equal(t, docnav.DefaultSyncOnMessage, on)
		assert.Equal(t, docnav.DefaultSyncOffMessage, off)
	})

	t.Run("returns EPARSE for missing root", func(t *testing.T) {
		t.Parallel()

		_, err := navtree.Load(&docnav.NavDocument{})
		assert.Equal(t, docnav.EPARSE, docnav.ErrorCode(err))

		_, err = navtree.Load(nil)
		assert.Equal(t, docnav.EPARSE, docnav.ErrorCode(err))
	})

	t.Run("returns EPARSE for missing label", func(t *testing.T) {
		t.Parallel()

		_, err := navtree.Load(&docnav.NavDocument{Root: &docnav.NavItem{
			Label: "Root", Children: []*docnav.NavItem{{Target: "x.html"}},
		}})
		assert.Equal(t, docnav.EPARSE, docnav.ErrorCode(err))
	})

	t.Run("returns EPARSE for duplicate id", func(t *testing.T) {
		t.Parallel()

		_, err := navtree.Load(&docnav.NavDocument{Root: &docnav.NavItem{
			ID: "a", Label: "Root", Children: []*docnav.NavItem{
				{ID: "b", Label: "One"},
				{ID: "b", Label: "Two"},
			},
		}})
		assert.Equal(t, docnav.EPARSE, docnav.ErrorCode(err))
	})

	t.Run("returns EPARSE for cycle", func(t *testing.T) {
		t.Parallel()

		root := &docnav.NavItem{Label: "Root"}
		child := &docnav.NavItem{Label: "Child", Children: []*docnav.NavItem{root}}
		root.Children = []*docnav.NavItem{child}

		_, err := navtree.Load(&docnav.NavDocument{Root: root})
		assert.Equal(t, docnav.EPARSE, docnav.ErrorCode(err))
	})

	t.Run("returns EPARSE for shared subtree", func(t *testing.T) {
		t.Parallel()

		shared := &docnav.NavItem{Label: "Shared"}
		_, err := navtree.Load(&docnav.NavDocument{Root: &docnav.NavItem{
			Label: "Root", Children: []*docnav.NavItem{shared, shared},
		}})
		assert.Equal(t, docnav.EPARSE, docnav.ErrorCode(err))
	})

	t.Run("returns EPARSE for nil child", func(t *testing.T) {
		t.Parallel()

		_, err := navtree.Load(&docnav.NavDocument{Root: &docnav.NavItem{
			Label: "Root", Children: []*docnav.NavItem{nil},
		}})
		assert.Equal(t, docnav.EPARSE, docnav.ErrorCode(err))
	})
}

func TestTree_ResolvePath(t *testing.T) {
	t.Parallel()

	t.Run("round-trips every navigable node", func(t *testing.T) {
		t.Parallel()

		tree, err := navtree.Load(&docnav.NavDocument{Root: &docnav.NavItem{
			Label: "Root", Target: "root.html", Children: []*docnav.NavItem{
				{Label: "A", Target: "a.html", Children: []*docnav.NavItem{
					{Label: "A1", Target: "a/one.html"},
					{Label: "A2", Target: "a/two.html#section"},
				}},
				{Label: "B", Children: []*docnav.NavItem{
					{Label: "B1", Target: "b/one.html"},
				}},
			},
		}})
		require.NoError(t, err)

		tree.Walk(func(n *docnav.NavNode) bool {
			if !n.Navigable() {
				return true
			}
			path := tree.ResolvePath(n.Target)
			require.NotEmpty(t, path, n.Target)
			assert.Equal(t, n.ID, path[len(path)-1].ID)
			assert.Equal(t, tree.Root().ID, path[0].ID)
			return true
		})
	})

	t.Run("strips anchor to reach installation page", func(t *testing.T) {
		t.Parallel()

		tree, err := navtree.Load(&docnav.NavDocument{Root: &docnav.NavItem{
			Label: "root", Children: []*docnav.NavItem{
				{Label: "Guide", Children: []*docnav.NavItem{
					{Label: "Installation", Target: "installation.html"},
				}},
			},
		}})
		require.NoError(t, err)

		path := tree.ResolvePath("installation.html#autotoc_md42")
		assert.Equal(t, []string{"root", "Guide", "Installation"}, labels(path))
	})

	t.Run("strips trailing path segments", func(t *testing.T) {
		t.Parallel()

		tree, err := navtree.Load(&docnav.NavDocument{Root: &docnav.NavItem{
			Label: "root", Children: []*docnav.NavItem{
				{Label: "Reference", Target: "reference/"},
			},
		}})
		require.NoError(t, err)

		path := tree.ResolvePath("reference/classes/mesh.html?v=2#top")
		assert.Equal(t, []string{"root", "Reference"}, labels(path))
	})

	t.Run("prefers exact anchored location", func(t *testing.T) {
		t.Parallel()

		tree, err := navtree.Load(&docnav.NavDocument{Root: &docnav.NavItem{
			Label: "root", Children: []*docnav.NavItem{
				{Label: "Page", Target: "page.html", Children: []*docnav.NavItem{
					{Label: "Section", Target: "page.html#s2"},
				}},
			},
		}})
		require.NoError(t, err)

		assert.Equal(t, []string{"root", "Page", "Section"}, labels(tree.ResolvePath("page.html#s2")))
		assert.Equal(t, []string{"root", "Page"}, labels(tree.ResolvePath("page.html#s3")))
	})

	t.Run("first node in pre-order wins duplicate targets", func(t *testing.T) {
		t.Parallel()

		tree, err := navtree.Load(pmpDocument())
		require.NoError(t, err)

		path := tree.ResolvePath("index.html")
		require.Len(t, path, 1)
		assert.Equal(t, tree.Root().ID, path[0].ID)
	})

	t.Run("ignores relative prefixes", func(t *testing.T) {
		t.Parallel()

		tree, err := navtree.Load(pmpDocument())
		require.NoError(t, err)

		path := tree.ResolvePath("../eigen.html")
		assert.Equal(t, []string{"Polygon Mesh Processing Library", "Guide", "Advanced", "Interfacing with Eigen"}, labels(path))
	})

	t.Run("returns nil when nothing matches", func(t *testing.T) {
		t.Parallel()

		tree, err := navtree.Load(pmpDocument())
		require.NoError(t, err)

		assert.Nil(t, tree.ResolvePath("missing.html#x"))
		assert.Nil(t, tree.ResolvePath(""))
	})
}

func TestLocationCandidates(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		[]string{"a/b/c.html#f", "a/b/c.html", "a/b/", "a/b", "a/", "a"},
		navtree.LocationCandidates("a/b/c.html#f"))
	assert.Equal(t,
		[]string{"installation.html#autotoc_md42", "installation.html"},
		navtree.LocationCandidates("installation.html#autotoc_md42"))
	assert.Nil(t, navtree.LocationCandidates("  "))
}
