// Package retry runs an operation a bounded number of times with linear backoff.
package retry

import (
	"context"
	"fmt"
	"time"
)

const (
	DefaultMaxAttempts = 3
	DefaultBackoff     = 200 * time.Millisecond
)

// Policy bounds a retry loop. The wait before attempt n+1 is n*Backoff.
type Policy struct {
	MaxAttempts int           `mapstructure:"max-attempts"`
	Backoff     time.Duration `mapstructure:"backoff"`
}

func DefaultPolicy() Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts, Backoff: DefaultBackoff}
}

// Once is a policy that never retries.
func Once() Policy {
	return Policy{MaxAttempts: 1}
}

// Error is returned when the last attempt failed with a retryable error.
type Error struct {
	Attempts int
	Err      error
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// Do calls fn until it succeeds, fails with an error shouldRetry rejects, the
// attempts are used up or ctx is done. A terminal error is returned as is. An
// exhausted retryable error is wrapped in *Error. Cancellation during backoff
// returns ctx.Err() joined with the last error, never an *Error.
func Do[T any](ctx context.Context, policy Policy, shouldRetry func(error) bool, fn func(ctx context.Context) (T, error)) (T, error) {
	maxAttempts := policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var zero T
	for attempt := 1; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if !shouldRetry(err) {
			return zero, err
		}
		if attempt >= maxAttempts {
			return zero, &Error{Attempts: attempt, Err: err}
		}

		timer := time.NewTimer(time.Duration(attempt) * policy.Backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("%w after %d attempts: %w", ctx.Err(), attempt, err)
		case <-timer.C:
		}
	}
}
