package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errFlaky    = errors.New("flaky")
	errTerminal = errors.New("terminal")
)

func isFlaky(err error) bool { return errors.Is(err, errFlaky) }

func TestDoSucceedsAfterRetries(t *testing.T) {
	attempts := 0
	got, err := Do(context.Background(), Policy{MaxAttempts: 3, Backoff: time.Millisecond}, isFlaky,
		func(context.Context) (string, error) {
			attempts++
			if attempts < 3 {
				return "", errFlaky
			}
			return "ok", nil
		})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, attempts)
}

func TestDoStopsOnTerminalError(t *testing.T) {
	attempts := 0
	_, err := Do(context.Background(), Policy{MaxAttempts: 5, Backoff: time.Millisecond}, isFlaky,
		func(context.Context) (int, error) {
			attempts++
			return 0, errTerminal
		})

	require.ErrorIs(t, err, errTerminal)
	var exhausted *Error
	assert.False(t, errors.As(err, &exhausted))
	assert.Equal(t, 1, attempts)
}

func TestDoReportsAttemptsWhenExhausted(t *testing.T) {
	attempts := 0
	_, err := Do(context.Background(), Policy{MaxAttempts: 3, Backoff: time.Millisecond}, isFlaky,
		func(context.Context) (int, error) {
			attempts++
			return 0, errFlaky
		})

	var exhausted *Error
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 3, attempts)
}

func TestDoBacksOffLinearly(t *testing.T) {
	var stamps []time.Time
	_, _ = Do(context.Background(), Policy{MaxAttempts: 3, Backoff: 20 * time.Millisecond}, isFlaky,
		func(context.Context) (int, error) {
			stamps = append(stamps, time.Now())
			return 0, errFlaky
		})

	require.Len(t, stamps, 3)
	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), 20*time.Millisecond)
	assert.GreaterOrEqual(t, stamps[2].Sub(stamps[1]), 40*time.Millisecond)
}

func TestDoHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	_, err := Do(ctx, Policy{MaxAttempts: 10, Backoff: time.Hour}, isFlaky,
		func(context.Context) (int, error) {
			attempts++
			cancel()
			return 0, errFlaky
		})

	require.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, errFlaky)
	var exhausted *Error
	assert.False(t, errors.As(err, &exhausted))
	assert.Equal(t, 1, attempts)
}

func TestOnceNeverRetries(t *testing.T) {
	attempts := 0
	_, err := Do(context.Background(), Once(), isFlaky, func(context.Context) (int, error) {
		attempts++
		return 0, errFlaky
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}
