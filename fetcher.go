package docnav

import "context"

// Fetcher retrieves raw generator data files by name, e.g.
// "navtreedata.js" or "search/all_14.js". Names are relative to the root of
// the generated site.
type Fetcher interface {
	// Fetch returns the file contents.
	// Returns ENOTFOUND if the file does not exist.
	Fetch(ctx context.Context, name string) ([]byte, error)
}
