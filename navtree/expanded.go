package navtree

import "sort"

// ExpandedSet tracks the ids of expanded nodes. It is not safe for
// concurrent use.
type ExpandedSet struct {
	ids map[string]struct{}
}

// NewExpandedSet returns a set containing ids.
func NewExpandedSet(ids ...string) *ExpandedSet {
	s := &ExpandedSet{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// Toggle flips membership of id and reports whether it is now expanded.
// Toggling the same id twice restores the original state.
func (s *ExpandedSet) Toggle(id string) bool {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// Expand adds id to the set.
func (s *ExpandedSet) Expand(id string) {
	s.ids[id] = struct{}{}
}

// Collapse removes id from the set.
func (s *ExpandedSet) Collapse(id string) {
	delete(s.ids, id)
}

// Contains reports whether id is expanded.
func (s *ExpandedSet) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of expanded ids.
func (s *ExpandedSet) Len() int {
	return len(s.ids)
}

// IDs returns the expanded ids in sorted order.
func (s *ExpandedSet) IDs() []string {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
