// Package resilience provides retry and circuit-breaking helpers used by
// the upstream HTTP fetcher to tolerate transient failure without the
// caller hand-rolling backoff logic.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrMaxRetriesExceeded is wrapped into the error Retry returns once every
// attempt has failed.
var ErrMaxRetriesExceeded = errors.New("resilience: max retry attempts exceeded")

// Permanent wraps an error that must not be retried, for callers whose fn
// distinguishes a caller-fault failure (e.g. an HTTP 4xx other than 429)
// from a transient one.
type Permanent struct {
	Err error
}

func (p *Permanent) Error() string { return p.Err.Error() }
func (p *Permanent) Unwrap() error { return p.Err }

// NonRetryable wraps err so Retry returns it on the current attempt instead
// of continuing the backoff schedule. A nil err returns nil.
func NonRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &Permanent{Err: err}
}

// RetryConfig configures Retry's backoff schedule.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterEnabled bool
}

// DefaultRetryConfig mirrors the upstream API's own rate-limit backoff
// expectations: a handful of attempts, starting small, capped well under the
// rate limiter's own window.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  200 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		JitterEnabled: true,
	}
}

// Retry calls fn until it succeeds, ctx is done, or MaxAttempts is reached.
// Delay grows by BackoffFactor after each failed attempt, capped at MaxDelay,
// with a small sine-based jitter to avoid synchronized retries when several
// pipeline stages back off at once.
func Retry(ctx context.Context, config *RetryConfig, fn func() error) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var lastErr error
	delay := config.InitialDelay

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := fn(); err == nil {
			return nil
		} else {
			var perm *Permanent
			if errors.As(err, &perm) {
				return perm.Err
			}
			lastErr = err
		}

		if attempt == config.MaxAttempts {
			break
		}

		if attempt > 1 {
			delay = time.Duration(float64(delay) * config.BackoffFactor)
			if delay > config.MaxDelay {
				delay = config.MaxDelay
			}
		}

		if config.JitterEnabled {
			jitter := time.Duration(float64(delay) * 0.1 * math.Sin(float64(attempt)))
			delay += jitter
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("retry: attempts (%d) exhausted, last error %w: %w", config.MaxAttempts, lastErr, ErrMaxRetriesExceeded)
}

// RetryWithCircuitBreaker wraps Retry so a tripped breaker fails fast
// without burning through the retry budget on a call known to be failing.
func RetryWithCircuitBreaker(ctx context.Context, config *RetryConfig, cb *CircuitBreaker, fn func() error) error {
	return Retry(ctx, config, func() error {
		if !cb.Allow() {
			return ErrCircuitOpen
		}

		if err := fn(); err != nil {
			var perm *Permanent
			if errors.As(err, &perm) {
				return err
			}
			cb.RecordFailure()
			return err
		}

		cb.RecordSuccess()
		return nil
	})
}
