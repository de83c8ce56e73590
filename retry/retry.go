// Package retry runs a call a bounded number of times with a fixed pause
// between attempts.
package retry

import (
	"context"
	"time"
)

// Config controls the behaviour of [Do].
type Config struct {
	// Attempts is the maximum number of calls to fn, the first one included.
	// Values < 1 mean a single attempt.
	Attempts int

	// Delay is the fixed wait between two attempts. Zero retries immediately.
	Delay time.Duration

	// OnRetry, when set, is called after a failed attempt that will be
	// retried. attempt is 1-based.
	OnRetry func(attempt int, err error)
}

// Do calls fn until it succeeds or cfg.Attempts calls have failed, returning
// the last error together with the number of calls made. Only the result of
// the successful call is returned; earlier partial results are discarded.
//
// The context is checked before every retry; if ctx is done Do returns
// immediately with the context error.
func Do[T any](ctx context.Context, cfg Config, fn func(context.Context) (T, error)) (T, int, error) {
	var zero T
	attempts := max(cfg.Attempts, 1)

	for i := 1; ; i++ {
		result, err := fn(ctx)
		if err == nil {
			return result, i, nil
		}
		if i >= attempts {
			return zero, i, err
		}
		if ctx.Err() != nil {
			return zero, i, ctx.Err()
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(i, err)
		}

		if cfg.Delay <= 0 {
			continue
		}
		timer := time.NewTimer(cfg.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, i, ctx.Err()
		case <-timer.C:
		}
	}
}
