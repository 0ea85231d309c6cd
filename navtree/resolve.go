package navtree

import (
	"strings"

	"github.com/fwojciec/docnav"
)

// ResolvePath returns the nodes from the root to the node matching the
// location, or nil if nothing matches. An exact match wins; otherwise the
// query string and fragment are dropped and trailing path segments are
// stripped one at a time until a node matches.
func (t *Tree) ResolvePath(location string) []*docnav.NavNode {
	for _, candidate := range LocationCandidates(location) {
		if idx, ok := t.index[candidate]; ok {
			return t.Path(t.nodes[idx].ID)
		}
	}
	return nil
}

// LocationCandidates returns the locations tried by ResolvePath, most
// specific first.
func LocationCandidates(location string) []string {
	loc := docnav.CleanLocation(location)
	if loc == "" {
		return nil
	}

	var candidates []string
	seen := make(map[string]bool)
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			candidates = append(candidates, s)
		}
	}

	add(loc)
	if i := strings.IndexByte(loc, '#'); i >= 0 {
		loc = loc[:i]
		add(loc)
	}
	if i := strings.IndexByte(loc, '?'); i >= 0 {
		loc = loc[:i]
		add(loc)
	}

	for {
		trimmed := strings.TrimSuffix(loc, "/")
		i := strings.LastIndexByte(trimmed, '/')
		if i < 0 {
			break
		}
		loc = trimmed[:i]
		add(loc + "/")
		add(loc)
	}
	return candidates
}
