// Package retry wraps fallible external calls (model invocations, remote
// downloads, transcoding) with bounded exponential backoff. Deliberately no
// jitter and no circuit breaker; callers needing cancellation enforce a
// timeout on the surrounding context.
package retry

import (
	"context"
	"time"

	backoff "github.com/sethvargo/go-retry"

	logx "github.com/daycare-qa/server/pkg/logger"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 2 * time.Second
)

// Exec runs op up to maxAttempts times, sleeping baseDelay*2^(attempt-1)
// between attempts. The last failure is returned once attempts are exhausted.
func Exec(ctx context.Context, label string, maxAttempts int, baseDelay time.Duration, op func(context.Context) error) error {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}

	b := backoff.WithMaxRetries(uint64(maxAttempts-1), backoff.NewExponential(baseDelay))

	attempt := 0
	return backoff.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		err := op(ctx)
		if err != nil {
			logx.Warn().
				Str("label", label).
				Int("attempt", attempt).
				Int("max_attempts", maxAttempts).
				Err(err).
				Msg("attempt failed")
			return backoff.RetryableError(err)
		}
		return nil
	})
}

// Value is Exec for operations that return a result.
func Value[T any](ctx context.Context, label string, maxAttempts int, baseDelay time.Duration, op func(context.Context) (T, error)) (T, error) {
	var out T
	err := Exec(ctx, label, maxAttempts, baseDelay, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
