// Package qhp reads Qt Help Project files (index.qhp), which doxygen can
// emit alongside its HTML output. The table of contents becomes the
// navigation document and the keyword list becomes the search index.
package qhp

import (
	"bytes"
	"context"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/beevik/etree"
	"github.com/fwojciec/docnav"
)

// DefaultFile is the conventional project file name.
const DefaultFile = "index.qhp"

// Project is a decoded help project.
type Project struct {
	Namespace string
	Nav       *docnav.NavDocument
	Shards    map[string]*docnav.IndexShard
}

// Parse decodes a help project from r.
func Parse(r io.Reader) (*Project, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, docnav.WrapError(docnav.EPARSE, err, "parse help project")
	}

	root := doc.Root()
	if root == nil || root.Tag != "QtHelpProject" {
		return nil, docnav.Errorf(docnav.EPARSE, "not a help project")
	}
	filter := root.SelectElement("filterSection")
	if filter == nil {
		return nil, docnav.Errorf(docnav.EPARSE, "help project has no filterSection")
	}

	p := &Project{Shards: make(map[string]*docnav.IndexShard)}
	if ns := root.SelectElement("namespace"); ns != nil {
		p.Namespace = strings.TrimSpace(ns.Text())
	}

	nav, err := parseTOC(filter.SelectElement("toc"), p.Namespace)
	if err != nil {
		return nil, err
	}
	p.Nav = nav

	if kw := filter.SelectElement("keywords"); kw != nil {
		p.addKeywords(kw)
	}
	return p, nil
}

func parseTOC(toc *etree.Element, namespace string) (*docnav.NavDocument, error) {
	if toc == nil {
		return nil, docnav.Errorf(docnav.EPARSE, "help project has no toc")
	}
	sections := toc.SelectElements("section")
	if len(sections) == 0 {
		return nil, docnav.Errorf(docnav.EPARSE, "help project toc is empty")
	}

	if len(sections) == 1 {
		root, err := parseSection(sections[0])
		if err != nil {
			return nil, err
		}
		return &docnav.NavDocument{Root: root}, nil
	}

	// Several top-level sections hang off a synthetic root.
	label := namespace
	if label == "" {
		label = "Contents"
	}
	root := &docnav.NavItem{Label: label}
	for _, s := range sections {
		item, err := parseSection(s)
		if err != nil {
			return nil, err
		}
		root.Children = append(root.Children, item)
	}
	return &docnav.NavDocument{Root: root}, nil
}

func parseSection(e *etree.Element) (*docnav.NavItem, error) {
	title := strings.TrimSpace(e.SelectAttrValue("title", ""))
	if title == "" {
		return nil, docnav.Errorf(docnav.EPARSE, "toc section without title")
	}
	item := &docnav.NavItem{
		Label:  title,
		Target: docnav.CleanLocation(e.SelectAttrValue("ref", "")),
	}
	for _, child := range e.SelectElements("section") {
		c, err := parseSection(child)
		if err != nil {
			return nil, err
		}
		item.Children = append(item.Children, c)
	}
	return item, nil
}

// addKeywords groups keywords into shards, sorted by key so entries sharing
// a key stay adjacent.
func (p *Project) addKeywords(keywords *etree.Element) {
	for _, kw := range keywords.SelectElements("keyword") {
		name := strings.TrimSpace(kw.SelectAttrValue("name", ""))
		ref := docnav.CleanLocation(kw.SelectAttrValue("ref", ""))
		key := docnav.NormalizeQuery(name)
		if key == "" || ref == "" {
			continue
		}

		shardKey := docnav.ShardKeyFor(key)
		shard, ok := p.Shards[shardKey]
		if !ok {
			shard = &docnav.IndexShard{Key: shardKey}
			p.Shards[shardKey] = shard
		}
		shard.Entries = append(shard.Entries, docnav.SearchEntry{
			Key:         key,
			DisplayName: name,
			Target:      ref,
			Scope:       keywordScope(kw.SelectAttrValue("id", ""), name),
		})
	}
	for _, shard := range p.Shards {
		slices.SortStableFunc(shard.Entries, func(a, b docnav.SearchEntry) int {
			return strings.Compare(a.Key, b.Key)
		})
	}
}

// keywordScope derives the enclosing scope from a keyword id such as
// "pmp::SurfaceMesh::valence".
func keywordScope(id, name string) string {
	if id == "" {
		return ""
	}
	if scope, ok := strings.CutSuffix(id, "::"+name); ok {
		return scope
	}
	return id
}

// Source serves the navigation document and search shards of a help
// project read through a Fetcher. The project is loaded on first use; a
// failed load is retried on the next call.
type Source struct {
	fetcher docnav.Fetcher
	name    string

	mu      sync.Mutex
	project *Project
}

// NewSource returns a Source reading the project file name from fetcher.
// An empty name selects DefaultFile.
func NewSource(fetcher docnav.Fetcher, name string) *Source {
	if name == "" {
		name = DefaultFile
	}
	return &Source{fetcher: fetcher, name: name}
}

// Project returns the decoded project, loading it if needed.
func (s *Source) Project(ctx context.Context) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.project != nil {
		return s.project, nil
	}
	data, err := s.fetcher.Fetch(ctx, s.name)
	if err != nil {
		return nil, docnav.WrapError(docnav.EFETCH, err, "fetch %s", s.name)
	}
	p, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	s.project = p
	return p, nil
}

// LoadNavDocument implements docnav.NavSource. The returned document is
// shared and must not be modified.
func (s *Source) LoadNavDocument(ctx context.Context) (*docnav.NavDocument, error) {
	p, err := s.Project(ctx)
	if err != nil {
		return nil, err
	}
	return p.Nav, nil
}

// FetchShard implements docnav.ShardSource.
func (s *Source) FetchShard(ctx context.Context, key string) (*docnav.IndexShard, error) {
	p, err := s.Project(ctx)
	if err != nil {
		// A project that cannot be parsed is unusable for search as well.
		if docnav.ErrorCode(err) == docnav.EPARSE {
			return nil, docnav.WrapError(docnav.EFETCH, err, "read %s", s.name)
		}
		return nil, err
	}
	shard, ok := p.Shards[key]
	if !ok {
		return nil, docnav.Errorf(docnav.ENOTFOUND, "no search shard for %q", key)
	}
	return shard, nil
}

var (
	_ docnav.NavSource   = (*Source)(nil)
	_ docnav.ShardSource = (*Source)(nil)
)
