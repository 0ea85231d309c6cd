package doxygen

import (
	"context"
	"strings"

	"github.com/fwojciec/docnav"
	"github.com/t14raptor/go-fast/ast"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// NavTreeDataFile is the name of the navigation tree entry point.
const NavTreeDataFile = "navtreedata.js"

// DefaultFetchConcurrency bounds concurrent reference file fetches.
const DefaultFetchConcurrency = 8

// Ref is a children list stored in a separate file. The file <Name>.js
// declares a variable <Name> holding the children of Parent.
type Ref struct {
	Parent *docnav.NavItem
	Name   string
}

// NavTreeData is the decoded content of navtreedata.js.
type NavTreeData struct {
	Root *docnav.NavItem

	// Refs lists children lists that still have to be loaded.
	Refs []Ref

	// Index lists the first target of every navtreeindex file.
	Index []string

	SyncOnMessage  string
	SyncOffMessage string
}

// ParseNavTreeData decodes navtreedata.js.
func ParseNavTreeData(data []byte) (*NavTreeData, error) {
	vars, err := parseVars(data)
	if err != nil {
		return nil, err
	}

	tree, ok := vars["NAVTREE"]
	if !ok {
		return nil, docnav.Errorf(docnav.EPARSE, "NAVTREE not declared")
	}
	roots, ok := arrayElems(tree)
	if !ok || len(roots) != 1 {
		return nil, docnav.Errorf(docnav.EPARSE, "NAVTREE must hold exactly one root item")
	}

	var refs []Ref
	root, err := parseNavItem(roots[0], &refs)
	if err != nil {
		return nil, err
	}

	d := &NavTreeData{Root: root, Refs: refs}
	if idx, ok := arrayElems(vars["NAVTREEINDEX"]); ok {
		for _, e := range idx {
			if s, ok := stringValue(e); ok {
				d.Index = append(d.Index, s)
			}
		}
	}
	d.SyncOnMessage, _ = stringValue(vars["SYNCONMSG"])
	d.SyncOffMessage, _ = stringValue(vars["SYNCOFFMSG"])
	return d, nil
}

// ParseNavChildren decodes a reference file declaring the variable name.
func ParseNavChildren(data []byte, name string) ([]*docnav.NavItem, []Ref, error) {
	vars, err := parseVars(data)
	if err != nil {
		return nil, nil, err
	}
	v, ok := vars[name]
	if !ok {
		return nil, nil, docnav.Errorf(docnav.EPARSE, "%s not declared", name)
	}

	var refs []Ref
	items, err := parseNavItems(v, &refs)
	if err != nil {
		return nil, nil, err
	}
	return items, refs, nil
}

func parseNavItems(e ast.Expr, refs *[]Ref) ([]*docnav.NavItem, error) {
	elems, ok := arrayElems(e)
	if !ok {
		return nil, docnav.Errorf(docnav.EPARSE, "navigation children must be an array")
	}
	items := make([]*docnav.NavItem, 0, len(elems))
	for _, el := range elems {
		item, err := parseNavItem(el, refs)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// parseNavItem decodes [label, target|null, children|ref|null].
func parseNavItem(e ast.Expr, refs *[]Ref) (*docnav.NavItem, error) {
	fields, ok := arrayElems(e)
	if !ok || len(fields) < 2 {
		return nil, docnav.Errorf(docnav.EPARSE, "navigation item must be [label, target, children]")
	}

	label, ok := stringValue(fields[0])
	if !ok {
		return nil, docnav.Errorf(docnav.EPARSE, "navigation item label must be a string")
	}
	item := &docnav.NavItem{Label: label}

	if !isNull(fields[1]) {
		target, ok := stringValue(fields[1])
		if !ok {
			return nil, docnav.Errorf(docnav.EPARSE, "target of %q must be a string or null", label)
		}
		item.Target = docnav.CleanLocation(target)
	}

	if len(fields) < 3 || isNull(fields[2]) {
		return item, nil
	}
	if ref, ok := stringValue(fields[2]); ok {
		*refs = append(*refs, Ref{Parent: item, Name: ref})
		return item, nil
	}
	children, err := parseNavItems(fields[2], refs)
	if err != nil {
		return nil, err
	}
	item.Children = children
	return item, nil
}

// NavSource loads the navigation document through a Fetcher, resolving
// every children reference before returning.
type NavSource struct {
	fetcher docnav.Fetcher
	sem     *semaphore.Weighted
}

// NewNavSource returns a NavSource reading files from fetcher.
func NewNavSource(fetcher docnav.Fetcher) *NavSource {
	return &NavSource{
		fetcher: fetcher,
		sem:     semaphore.NewWeighted(DefaultFetchConcurrency),
	}
}

// LoadNavDocument implements docnav.NavSource.
func (s *NavSource) LoadNavDocument(ctx context.Context) (*docnav.NavDocument, error) {
	data, err := s.fetch(ctx, NavTreeDataFile)
	if err != nil {
		return nil, err
	}
	d, err := ParseNavTreeData(data)
	if err != nil {
		return nil, err
	}

	if err := s.resolve(ctx, d.Refs, nil); err != nil {
		return nil, err
	}
	return &docnav.NavDocument{
		Root:           d.Root,
		SyncOnMessage:  d.SyncOnMessage,
		SyncOffMessage: d.SyncOffMessage,
	}, nil
}

// resolve loads refs concurrently. chain holds the references leading to
// refs; meeting one of them again is a cycle.
func (s *NavSource) resolve(ctx context.Context, refs []Ref, chain []string) error {
	if len(refs) == 0 {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, ref := range refs {
		for _, seen := range chain {
			if seen == ref.Name {
				return docnav.Errorf(docnav.EPARSE, "navigation reference cycle: %s -> %s", strings.Join(chain, " -> "), ref.Name)
			}
		}
		next := append(chain[:len(chain):len(chain)], ref.Name)

		g.Go(func() error {
			data, err := s.fetch(ctx, ref.Name+".js")
			if err != nil {
				return err
			}
			children, nested, err := ParseNavChildren(data, ref.Name)
			if err != nil {
				return err
			}
			// Each ref has a distinct parent, so no lock is needed.
			ref.Parent.Children = children
			return s.resolve(ctx, nested, next)
		})
	}
	return g.Wait()
}

func (s *NavSource) fetch(ctx context.Context, name string) ([]byte, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)

	data, err := s.fetcher.Fetch(ctx, name)
	if err != nil {
		if docnav.ErrorCode(err) == docnav.EFETCH {
			return nil, err
		}
		return nil, docnav.WrapError(docnav.EFETCH, err, "fetch %s", name)
	}
	return data, nil
}

var _ docnav.NavSource = (*NavSource)(nil)
