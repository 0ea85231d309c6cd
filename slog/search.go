package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/docnav"
)

// Ensure LoggingShardSource implements docnav.ShardSource.
var _ docnav.ShardSource = (*LoggingShardSource)(nil)

// LoggingShardSource wraps a ShardSource with debug logging.
type LoggingShardSource struct {
	next   docnav.ShardSource
	logger *slog.Logger
}

// NewLoggingShardSource creates a new LoggingShardSource.
func NewLoggingShardSource(next docnav.ShardSource, logger *slog.Logger) *LoggingShardSource {
	return &LoggingShardSource{next: next, logger: logger}
}

// FetchShard delegates to the wrapped source and logs the operation.
func (s *LoggingShardSource) FetchShard(ctx context.Context, key string) (shard *docnav.IndexShard, err error) {
	defer func(begin time.Time) {
		var entries int
		if shard != nil {
			entries = len(shard.Entries)
		}
		s.logger.Info("fetch shard",
			"key", key,
			"entries", entries,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.FetchShard(ctx, key)
}
