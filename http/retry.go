package http

import (
	"context"
	"time"
)

// DefaultRetryDelays returns the backoff delays for fetch retries: 250ms,
// 500ms, 1s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{250 * time.Millisecond, 500 * time.Millisecond, 1 * time.Second}
}

// withRetry calls fetch until it succeeds, fails permanently, or the delays
// are exhausted. Only transient errors are retried; the error returned is
// the one from the last attempt with the transient marker removed.
func withRetry(ctx context.Context, delays []time.Duration, fetch func(context.Context) ([]byte, error)) ([]byte, error) {
	maxAttempts := len(delays) + 1 // 1 initial + N retries

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		data, err := fetch(ctx)
		if err == nil {
			return data, nil
		}
		lastErr = err

		if !isTransient(err) || attempt >= maxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}

	if t, ok := lastErr.(*transientError); ok {
		return nil, t.err
	}
	return nil, lastErr
}
