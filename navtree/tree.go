// Package navtree provides the in-memory navigation tree: loading and
// validating a navigation document, resolving content locations to a path
// of nodes, and tracking which nodes are expanded.
package navtree

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/docnav"
)

// Tree is an immutable navigation tree. Nodes live in a flat slice in
// pre-order; index 0 is the root. It is safe for concurrent reads.
type Tree struct {
	nodes []docnav.NavNode
	byID  map[string]int

	// index maps a target location to the first node (in pre-order) that
	// navigates to it.
	index map[string]int

	syncOn  string
	syncOff string
}

// Load builds a Tree from a navigation document.
// Returns EPARSE if the document has no root, contains a cycle or a shared
// subtree, a duplicate id, or an item without a label.
func Load(doc *docnav.NavDocument) (*Tree, error) {
	if doc == nil || doc.Root == nil {
		return nil, docnav.Errorf(docnav.EPARSE, "navigation document has no root")
	}

	t := &Tree{
		byID:    make(map[string]int),
		index:   make(map[string]int),
		syncOn:  doc.SyncOnMessage,
		syncOff: doc.SyncOffMessage,
	}
	if t.syncOn == "" {
		t.syncOn = docnav.DefaultSyncOnMessage
	}
	if t.syncOff == "" {
		t.syncOff = docnav.DefaultSyncOffMessage
	}

	l := &loader{tree: t, visiting: make(map[*docnav.NavItem]bool)}
	if _, err := l.add(doc.Root, -1, 0, 0); err != nil {
		return nil, err
	}
	return t, nil
}

type loader struct {
	tree     *Tree
	visiting map[*docnav.NavItem]bool
}

// add appends item and its subtree in pre-order and returns the item's index.
func (l *loader) add(item *docnav.NavItem, parent, ordinal, depth int) (int, error) {
	if item == nil {
		return 0, docnav.Errorf(docnav.EPARSE, "nil navigation item at depth %d", depth)
	}
	if l.visiting[item] {
		return 0, docnav.Errorf(docnav.EPARSE, "navigation item %q appears more than once", item.Label)
	}
	l.visiting[item] = true

	label := strings.TrimSpace(item.Label)
	if label == "" {
		return 0, docnav.Errorf(docnav.EPARSE, "navigation item at depth %d has no label", depth)
	}

	parentID := ""
	if parent >= 0 {
		parentID = l.tree.nodes[parent].ID
	}
	id := item.ID
	if id == "" {
		id = generateID(parentID, ordinal, label)
	}
	if _, ok := l.tree.byID[id]; ok {
		return 0, docnav.Errorf(docnav.EPARSE, "duplicate navigation id %q", id)
	}

	target, external := parseTarget(item.Target)
	idx := len(l.tree.nodes)
	l.tree.nodes = append(l.tree.nodes, docnav.NavNode{
		ID:       id,
		Label:    label,
		Target:   target,
		External: external,
		Parent:   parentID,
		Depth:    depth,
	})
	l.tree.byID[id] = idx
	if target != "" && !external {
		if _, ok := l.tree.index[target]; !ok {
			l.tree.index[target] = idx
		}
	}

	children := make([]string, 0, len(item.Children))
	for i, child := range item.Children {
		childIdx, err := l.add(child, idx, i, depth+1)
		if err != nil {
			return 0, err
		}
		children = append(children, l.tree.nodes[childIdx].ID)
	}
	if len(children) > 0 {
		l.tree.nodes[idx].Children = children
	}
	return idx, nil
}

// generateID derives a stable id from the parent id, the position among
// siblings and the label.
func generateID(parentID string, ordinal int, label string) string {
	h := xxhash.New()
	_, _ = h.WriteString(parentID)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(strconv.Itoa(ordinal))
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(label)
	return fmt.Sprintf("n%016x", h.Sum64())
}

// parseTarget cleans a raw target and reports whether it is external.
func parseTarget(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "^") {
		return strings.TrimSpace(raw[1:]), true
	}
	return docnav.CleanLocation(raw), false
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Root returns the root node.
func (t *Tree) Root() *docnav.NavNode {
	return &t.nodes[0]
}

// Node returns the node with the given id.
// Returned nodes are shared and must not be modified.
func (t *Tree) Node(id string) (*docnav.NavNode, bool) {
	idx, ok := t.byID[id]
	if !ok {
		return nil, false
	}
	return &t.nodes[idx], true
}

// Children returns the children of the node with the given id in
// presentation order.
func (t *Tree) Children(id string) []*docnav.NavNode {
	n, ok := t.Node(id)
	if !ok {
		return nil
	}
	children := make([]*docnav.NavNode, 0, len(n.Children))
	for _, childID := range n.Children {
		children = append(children, &t.nodes[t.byID[childID]])
	}
	return children
}

// Path returns the nodes from the root to the node with the given id, or nil
// if the id is unknown.
func (t *Tree) Path(id string) []*docnav.NavNode {
	n, ok := t.Node(id)
	if !ok {
		return nil
	}
	path := make([]*docnav.NavNode, n.Depth+1)
	for i := n.Depth; i >= 0; i-- {
		path[i] = n
		if n.Parent == "" {
			break
		}
		n = &t.nodes[t.byID[n.Parent]]
	}
	return path
}

// Lookup returns the node navigating to exactly the given location.
func (t *Tree) Lookup(location string) (*docnav.NavNode, bool) {
	idx, ok := t.index[docnav.CleanLocation(location)]
	if !ok {
		return nil, false
	}
	return &t.nodes[idx], true
}

// Walk visits every node in pre-order until fn returns false.
func (t *Tree) Walk(fn func(n *docnav.NavNode) bool) {
	for i := range t.nodes {
		if !fn(&t.nodes[i]) {
			return
		}
	}
}

// SyncMessages returns the labels for the panel synchronisation toggle when
// synchronisation is on and off.
func (t *Tree) SyncMessages() (on, off string) {
	return t.syncOn, t.syncOff
}
