package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fwojciec/docnav"
	"github.com/fwojciec/docnav/search"
)

// Run executes the search command.
func (c *SearchCmd) Run(deps *Dependencies) error {
	store := search.NewShardStore(deps.searchSource())
	engine := search.NewEngine(store, search.WithLimit(c.Limit))
	defer engine.Close()

	query := strings.Join(c.Query, " ")

	var entries []docnav.SearchEntry
	var err error
	if c.Incremental {
		entries, err = searchIncremental(deps.Ctx, engine, query)
	} else {
		entries, err = engine.Search(deps.Ctx, query)
	}
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docnav.ErrorMessage(err))
		return err
	}

	if len(entries) == 0 {
		fmt.Fprintln(deps.Stdout, "No matches.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(deps.Stdout, "%s\t%s\t%s\n", e.DisplayName, e.Scope, e.Target)
	}
	return nil
}

// searchIncremental issues every prefix of query and waits for the result
// of the last one.
func searchIncremental(ctx context.Context, engine *search.Engine, query string) ([]docnav.SearchEntry, error) {
	runes := []rune(query)
	var last uint64
	for i := 1; i <= len(runes); i++ {
		last = engine.Issue(ctx, string(runes[:i]))
	}
	if last == 0 {
		return nil, nil
	}

	for {
		select {
		case res, ok := <-engine.Results():
			if !ok {
				return nil, docnav.Errorf(docnav.EINTERNAL, "search engine closed")
			}
			if res.Seq == last {
				return res.Entries, res.Err
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
