package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by Allow's caller path (via Retry) when the
// breaker is open and rejecting calls.
var ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

// CircuitState is one of Closed, Open, or HalfOpen.
type CircuitState int

const (
	Closed CircuitState = iota
	Open
	HalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// MetricsCollector receives circuit breaker lifecycle events. Implementations
// must be safe for concurrent use.
type MetricsCollector interface {
	RecordSuccess(name string)
	RecordFailure(name string)
	RecordStateChange(name string, from, to CircuitState)
	RecordRejection(name string)
}

// noopMetrics discards every event; it is the default when a
// CircuitBreakerConfig leaves Metrics unset.
type noopMetrics struct{}

func (noopMetrics) RecordSuccess(string)                                 {}
func (noopMetrics) RecordFailure(string)                                 {}
func (noopMetrics) RecordStateChange(string, CircuitState, CircuitState) {}
func (noopMetrics) RecordRejection(string)                               {}

// CircuitBreakerConfig configures the trip threshold and recovery window.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that trips
	// the breaker from Closed to Open.
	FailureThreshold int
	// SleepWindow is how long the breaker stays Open before allowing a
	// single HalfOpen probe call.
	SleepWindow time.Duration
	// Name identifies this breaker in emitted metrics (e.g. "upstream-api").
	Name string
	// Metrics receives success/failure/rejection/state-change events. A
	// nil value discards them.
	Metrics MetricsCollector
}

// DefaultCircuitBreakerConfig is tuned for the upstream API's own outage
// pattern: a short burst of 5xx responses, not sustained downtime.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SleepWindow:      30 * time.Second,
	}
}

// CircuitBreaker is a minimal closed/open/half-open breaker: no sliding
// windows or error-rate thresholds, just a consecutive-failure counter. The
// upstream fetcher only needs "stop hammering a
// dependency that just failed five times in a row", not HdrHistogram-grade
// traffic shaping.
type CircuitBreaker struct {
	mu               sync.Mutex
	state            CircuitState
	failureThreshold int
	sleepWindow      time.Duration
	failures         int
	openedAt         time.Time
	name             string
	metrics          MetricsCollector
}

// NewCircuitBreaker builds a breaker starting Closed.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultCircuitBreakerConfig().FailureThreshold
	}
	if cfg.SleepWindow <= 0 {
		cfg.SleepWindow = DefaultCircuitBreakerConfig().SleepWindow
	}
	if cfg.Metrics == nil {
		cfg.Metrics = noopMetrics{}
	}
	return &CircuitBreaker{
		state:            Closed,
		failureThreshold: cfg.FailureThreshold,
		sleepWindow:      cfg.SleepWindow,
		name:             cfg.Name,
		metrics:          cfg.Metrics,
	}
}

// Allow reports whether a call may proceed, transitioning Open to HalfOpen
// once the sleep window has elapsed.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case Closed:
		return true
	case Open:
		if time.Since(cb.openedAt) >= cb.sleepWindow {
			cb.transitionLocked(HalfOpen)
			return true
		}
		cb.metrics.RecordRejection(cb.name)
		return false
	case HalfOpen:
		return true
	default:
		return true
	}
}

// RecordSuccess closes the breaker and resets the failure count. A success
// during HalfOpen is what proves the dependency has recovered.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.transitionLocked(Closed)
	cb.metrics.RecordSuccess(cb.name)
}

// RecordFailure increments the failure count, tripping the breaker open
// once the threshold is reached. A failed HalfOpen probe re-opens
// immediately regardless of the threshold.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.metrics.RecordFailure(cb.name)

	if cb.state == HalfOpen {
		cb.transitionLocked(Open)
		return
	}

	cb.failures++
	if cb.failures >= cb.failureThreshold {
		cb.transitionLocked(Open)
	}
}

// transitionLocked moves to next, reporting the change to the metrics
// collector when it actually changes the state. Callers must hold cb.mu.
func (cb *CircuitBreaker) transitionLocked(next CircuitState) {
	prev := cb.state
	cb.state = next
	if next == Open {
		cb.openedAt = time.Now()
	}
	if prev != next {
		cb.metrics.RecordStateChange(cb.name, prev, next)
	}
}

// State reports the current state, mainly for tests and diagnostics.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
