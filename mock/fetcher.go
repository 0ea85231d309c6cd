package mock

import (
	"context"

	"github.com/fwojciec/docnav"
)

var _ docnav.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of docnav.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, name string) ([]byte, error)
}

func (f *Fetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	return f.FetchFn(ctx, name)
}
