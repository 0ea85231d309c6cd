package docnav

import "context"

// NavItem is one entry of a navigation document as supplied by the
// documentation generator. Children are owned by their parent.
type NavItem struct {
	// ID is optional. Items without an ID are assigned a stable generated one
	// when the tree is loaded.
	ID string `json:"id,omitempty"`

	Label string `json:"label"`

	// Target is the location the item navigates to. Empty marks a
	// container-only item. A leading "^" marks an external link.
	Target string `json:"target,omitempty"`

	Children []*NavItem `json:"children,omitempty"`
}

// NavDocument is a complete navigation document with a single root.
type NavDocument struct {
	Root *NavItem `json:"root"`

	// Panel synchronisation toggle labels shipped with the document.
	// Empty values fall back to the package defaults.
	SyncOnMessage  string `json:"syncOnMessage,omitempty"`
	SyncOffMessage string `json:"syncOffMessage,omitempty"`
}

// Default panel synchronisation labels.
const (
	DefaultSyncOnMessage  = "click to disable panel synchronisation"
	DefaultSyncOffMessage = "click to enable panel synchronisation"
)

// NavNode is a node of a loaded navigation tree. Parent and Children refer
// to other nodes by ID; the parent link is only used to walk towards the
// root.
type NavNode struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Target   string   `json:"target,omitempty"`
	External bool     `json:"external,omitempty"`
	Parent   string   `json:"parent,omitempty"`
	Children []string `json:"children,omitempty"`
	Depth    int      `json:"depth"`
}

// Navigable reports whether selecting the node should navigate the content
// panel rather than toggle its expansion.
func (n *NavNode) Navigable() bool {
	return n.Target != ""
}

// NavSource loads the navigation document.
type NavSource interface {
	// LoadNavDocument fetches and decodes the navigation document.
	// Returns EFETCH if the document is unreachable and EPARSE if it is
	// structurally invalid.
	LoadNavDocument(ctx context.Context) (*NavDocument, error)
}

// NavigationRequest asks the content panel to show a location.
type NavigationRequest struct {
	ID       string `json:"id"`
	NodeID   string `json:"nodeId"`
	Target   string `json:"target"`
	External bool   `json:"external,omitempty"`
}

// Navigator receives navigation requests emitted by the navigation panel.
type Navigator interface {
	Navigate(ctx context.Context, req NavigationRequest) error
}
