package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fwojciec/docnav"
	"github.com/fwojciec/docnav/navtree"
	"github.com/fwojciec/docnav/panel"
	docslog "github.com/fwojciec/docnav/slog"
)

func loadTree(deps *Dependencies) (*navtree.Tree, error) {
	doc, err := deps.Sources.Nav.LoadNavDocument(deps.Ctx)
	if err != nil {
		return nil, err
	}
	return navtree.Load(doc)
}

// printNavigator writes navigation requests to w as JSON lines.
type printNavigator struct {
	w io.Writer
}

func (n *printNavigator) Navigate(_ context.Context, req docnav.NavigationRequest) error {
	return json.NewEncoder(n.w).Encode(req)
}

func newSynchronizer(deps *Dependencies, tree *navtree.Tree) *panel.Synchronizer {
	var navigator docnav.Navigator = &printNavigator{w: deps.Stdout}
	if deps.Logger != nil {
		navigator = docslog.NewLoggingNavigator(navigator, deps.Logger)
	}
	return panel.NewSynchronizer(tree, navigator)
}

func formatNode(n *docnav.NavNode) string {
	switch {
	case n.External:
		return fmt.Sprintf("%s -> %s (external)", n.Label, n.Target)
	case n.Target != "":
		return fmt.Sprintf("%s -> %s", n.Label, n.Target)
	default:
		return n.Label
	}
}

// Run executes the resolve command.
func (c *ResolveCmd) Run(deps *Dependencies) error {
	tree, err := loadTree(deps)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docnav.ErrorMessage(err))
		return err
	}

	sync := newSynchronizer(deps, tree)
	if !sync.OnLocationChanged(c.Location) {
		fmt.Fprintf(deps.Stderr, "No navigation entry for %q.\n", c.Location)
		return docnav.Errorf(docnav.ENOTFOUND, "no navigation entry for %q", c.Location)
	}

	for _, n := range tree.Path(sync.Selected()) {
		fmt.Fprintf(deps.Stdout, "%s%s\n", strings.Repeat("  ", n.Depth), formatNode(n))
	}
	return nil
}

// Run executes the tree command.
func (c *TreeCmd) Run(deps *Dependencies) error {
	tree, err := loadTree(deps)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docnav.ErrorMessage(err))
		return err
	}

	tree.Walk(func(n *docnav.NavNode) bool {
		if c.Depth > 0 && n.Depth > c.Depth {
			return true
		}
		fmt.Fprintf(deps.Stdout, "%s%s\n", strings.Repeat("  ", n.Depth), formatNode(n))
		return true
	})
	return nil
}

// Run executes the open command.
func (c *OpenCmd) Run(deps *Dependencies) error {
	tree, err := loadTree(deps)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docnav.ErrorMessage(err))
		return err
	}

	node := tree.Root()
	for _, label := range c.Path {
		next := findChild(tree, node.ID, label)
		if next == nil {
			fmt.Fprintf(deps.Stderr, "No entry %q under %q.\n", label, node.Label)
			return docnav.Errorf(docnav.ENOTFOUND, "no navigation entry %q", label)
		}
		node = next
	}

	sync := newSynchronizer(deps, tree)
	if err := sync.OnNodeSelected(deps.Ctx, node.ID); err != nil {
		return err
	}
	if !node.Navigable() {
		state := "collapsed"
		if sync.IsExpanded(node.ID) {
			state = "expanded"
		}
		fmt.Fprintf(deps.Stdout, "%s %s\n", node.Label, state)
	}
	return nil
}

func findChild(tree *navtree.Tree, parentID, label string) *docnav.NavNode {
	for _, child := range tree.Children(parentID) {
		if strings.EqualFold(child.Label, label) {
			return child
		}
	}
	return nil
}
