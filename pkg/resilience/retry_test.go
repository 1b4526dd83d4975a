package resilience_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/PioneersHub/pytanis-go/pkg/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrySucceedsOnFirstAttempt(t *testing.T) {
	calls := 0
	err := resilience.Retry(context.Background(), nil, func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryStopsAfterMaxAttempts(t *testing.T) {
	cfg := &resilience.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond, BackoffFactor: 2}
	calls := 0
	errBoom := errors.New("boom")

	err := resilience.Retry(context.Background(), cfg, func() error {
		calls++
		return errBoom
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, resilience.ErrMaxRetriesExceeded)
	assert.Equal(t, 3, calls)
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	cfg := &resilience.RetryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond, BackoffFactor: 2}
	calls := 0

	err := resilience.Retry(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	cfg := &resilience.RetryConfig{MaxAttempts: 10, InitialDelay: 50 * time.Millisecond, MaxDelay: time.Second, BackoffFactor: 2}
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := resilience.Retry(ctx, cfg, func() error {
		calls++
		if calls == 1 {
			cancel()
		}
		return errors.New("still failing")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryReturnsPermanentErrorWithoutRetrying(t *testing.T) {
	cfg := &resilience.RetryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond, BackoffFactor: 2}
	calls := 0
	errBadRequest := errors.New("400 bad request")

	err := resilience.Retry(context.Background(), cfg, func() error {
		calls++
		return resilience.NonRetryable(errBadRequest)
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, errBadRequest)
	assert.NotErrorIs(t, err, resilience.ErrMaxRetriesExceeded)
	assert.Equal(t, 1, calls, "a permanent error must stop the loop on the first attempt")
}

func TestRetryWrapsLastErrorSoCallersCanMatchItAfterExhaustion(t *testing.T) {
	cfg := &resilience.RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1}
	sentinel := errors.New("upstream: unavailable")

	err := resilience.Retry(context.Background(), cfg, func() error {
		return fmt.Errorf("wrapped: %w", sentinel)
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel, "the last attempt's error chain must survive exhaustion, not just ErrMaxRetriesExceeded")
	assert.ErrorIs(t, err, resilience.ErrMaxRetriesExceeded)
}

func TestRetryWithCircuitBreakerDoesNotCountPermanentErrorsAsFailures(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{FailureThreshold: 1, SleepWindow: time.Hour})
	cfg := &resilience.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1}

	err := resilience.RetryWithCircuitBreaker(context.Background(), cfg, cb, func() error {
		return resilience.NonRetryable(errors.New("caller's fault, not upstream's"))
	})
	require.Error(t, err)
	assert.Equal(t, resilience.Closed, cb.State(), "a non-retryable caller error must not trip the breaker")
}

func TestRetryWithCircuitBreakerFailsFastWhenOpen(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{FailureThreshold: 1, SleepWindow: time.Hour})
	cfg := &resilience.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1}

	calls := 0
	err := resilience.RetryWithCircuitBreaker(context.Background(), cfg, cb, func() error {
		calls++
		return errors.New("downstream down")
	})
	require.Error(t, err)
	assert.Equal(t, resilience.Open, cb.State())

	// Second call: breaker is open for the whole sleep window, so every
	// attempt inside Retry should fail immediately without calling fn.
	calls = 0
	err = resilience.RetryWithCircuitBreaker(context.Background(), cfg, cb, func() error {
		calls++
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, resilience.ErrMaxRetriesExceeded)
	assert.Equal(t, 0, calls, "breaker open: fn must not be called")
}
