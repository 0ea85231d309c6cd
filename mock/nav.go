package mock

import (
	"context"

	"github.com/fwojciec/docnav"
)

var _ docnav.NavSource = (*NavSource)(nil)

// NavSource is a mock implementation of docnav.NavSource.
type NavSource struct {
	LoadNavDocumentFn func(ctx context.Context) (*docnav.NavDocument, error)
}

func (s *NavSource) LoadNavDocument(ctx context.Context) (*docnav.NavDocument, error) {
	return s.LoadNavDocumentFn(ctx)
}

var _ docnav.Navigator = (*Navigator)(nil)

// Navigator is a mock implementation of docnav.Navigator.
type Navigator struct {
	NavigateFn func(ctx context.Context, req docnav.NavigationRequest) error
}

func (n *Navigator) Navigate(ctx context.Context, req docnav.NavigationRequest) error {
	return n.NavigateFn(ctx, req)
}
