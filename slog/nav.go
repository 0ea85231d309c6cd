package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/docnav"
)

// Ensure the decorators implement their interfaces.
var (
	_ docnav.NavSource = (*LoggingNavSource)(nil)
	_ docnav.Navigator = (*LoggingNavigator)(nil)
)

// LoggingNavSource wraps a NavSource with debug logging.
type LoggingNavSource struct {
	next   docnav.NavSource
	logger *slog.Logger
}

// NewLoggingNavSource creates a new LoggingNavSource.
func NewLoggingNavSource(next docnav.NavSource, logger *slog.Logger) *LoggingNavSource {
	return &LoggingNavSource{next: next, logger: logger}
}

// LoadNavDocument delegates to the wrapped source and logs the operation.
func (s *LoggingNavSource) LoadNavDocument(ctx context.Context) (doc *docnav.NavDocument, err error) {
	defer func(begin time.Time) {
		s.logger.Info("load navigation",
			"items", countItems(doc),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.LoadNavDocument(ctx)
}

func countItems(doc *docnav.NavDocument) int {
	if doc == nil || doc.Root == nil {
		return 0
	}
	n := 0
	stack := []*docnav.NavItem{doc.Root}
	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if item == nil {
			continue
		}
		n++
		stack = append(stack, item.Children...)
	}
	return n
}

// LoggingNavigator wraps a Navigator with debug logging.
type LoggingNavigator struct {
	next   docnav.Navigator
	logger *slog.Logger
}

// NewLoggingNavigator creates a new LoggingNavigator.
func NewLoggingNavigator(next docnav.Navigator, logger *slog.Logger) *LoggingNavigator {
	return &LoggingNavigator{next: next, logger: logger}
}

// Navigate delegates to the wrapped navigator and logs the request.
func (n *LoggingNavigator) Navigate(ctx context.Context, req docnav.NavigationRequest) (err error) {
	defer func(begin time.Time) {
		n.logger.Info("navigate",
			"id", req.ID,
			"node", req.NodeID,
			"target", req.Target,
			"external", req.External,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return n.next.Navigate(ctx, req)
}
