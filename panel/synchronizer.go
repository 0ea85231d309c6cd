// Package panel keeps the navigation panel consistent with the content
// panel.
package panel

import (
	"context"
	"sync"

	"github.com/fwojciec/docnav"
	"github.com/fwojciec/docnav/navtree"
	"github.com/google/uuid"
)

// State is a snapshot of the navigation panel for rendering.
type State struct {
	Selected    string   `json:"selected,omitempty"`
	Expanded    []string `json:"expanded"`
	SyncEnabled bool     `json:"syncEnabled"`
}

// Synchronizer owns the selection and expansion state of the navigation
// panel. Content location changes expand and select the matching path;
// selecting a node either requests navigation or toggles expansion.
// It is safe for concurrent use by multiple goroutines.
type Synchronizer struct {
	tree      *navtree.Tree
	navigator docnav.Navigator
	newID     func() string

	mu          sync.Mutex
	expanded    *navtree.ExpandedSet
	selected    string
	syncEnabled bool
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithSyncEnabled sets the initial synchronisation state. Defaults to true.
func WithSyncEnabled(enabled bool) Option {
	return func(s *Synchronizer) {
		s.syncEnabled = enabled
	}
}

// WithRequestIDFunc sets the generator for navigation request ids.
// Defaults to random UUIDs.
func WithRequestIDFunc(fn func() string) Option {
	return func(s *Synchronizer) {
		s.newID = fn
	}
}

// NewSynchronizer creates a Synchronizer over tree that sends navigation
// requests to navigator.
func NewSynchronizer(tree *navtree.Tree, navigator docnav.Navigator, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		tree:        tree,
		navigator:   navigator,
		newID:       uuid.NewString,
		expanded:    navtree.NewExpandedSet(),
		syncEnabled: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnLocationChanged expands every ancestor of the node matching location and
// selects that node. It does nothing while synchronisation is disabled or
// when no node matches, and reports whether the state was updated.
func (s *Synchronizer) OnLocationChanged(location string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.syncEnabled {
		return false
	}
	path := s.tree.ResolvePath(location)
	if len(path) == 0 {
		return false
	}
	for _, n := range path[:len(path)-1] {
		s.expanded.Expand(n.ID)
	}
	s.selected = path[len(path)-1].ID
	return true
}

// OnNodeSelected handles a user selecting a node in the tree. A navigable
// node produces a navigation request; a container node toggles its
// expansion. Returns ENOTFOUND for an unknown node.
func (s *Synchronizer) OnNodeSelected(ctx context.Context, nodeID string) error {
	n, ok := s.tree.Node(nodeID)
	if !ok {
		return docnav.Errorf(docnav.ENOTFOUND, "navigation node %q not found", nodeID)
	}

	if !n.Navigable() {
		s.mu.Lock()
		s.expanded.Toggle(n.ID)
		s.mu.Unlock()
		return nil
	}

	// Navigate without holding the lock: the navigator may report the new
	// location straight back through OnLocationChanged.
	return s.navigator.Navigate(ctx, docnav.NavigationRequest{
		ID:       s.newID(),
		NodeID:   n.ID,
		Target:   n.Target,
		External: n.External,
	})
}

// ToggleExpanded flips the expansion of a node and reports whether it is now
// expanded. Returns ENOTFOUND for an unknown node.
func (s *Synchronizer) ToggleExpanded(nodeID string) (bool, error) {
	if _, ok := s.tree.Node(nodeID); !ok {
		return false, docnav.Errorf(docnav.ENOTFOUND, "navigation node %q not found", nodeID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expanded.Toggle(nodeID), nil
}

// IsExpanded reports whether the node is expanded.
func (s *Synchronizer) IsExpanded(nodeID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expanded.Contains(nodeID)
}

// Selected returns the id of the selected node, or "" if none.
func (s *Synchronizer) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// ToggleSync flips panel synchronisation and returns the new setting.
func (s *Synchronizer) ToggleSync() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncEnabled = !s.syncEnabled
	return s.syncEnabled
}

// SyncEnabled reports whether content location changes are followed.
func (s *Synchronizer) SyncEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncEnabled
}

// SyncMessage returns the label for the synchronisation toggle in its
// current state.
func (s *Synchronizer) SyncMessage() string {
	on, off := s.tree.SyncMessages()
	if s.SyncEnabled() {
		return on
	}
	return off
}

// State returns a snapshot of the panel state.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Selected:    s.selected,
		Expanded:    s.expanded.IDs(),
		SyncEnabled: s.syncEnabled,
	}
}
