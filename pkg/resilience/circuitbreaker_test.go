package resilience_test

import (
	"testing"
	"time"

	"github.com/PioneersHub/pytanis-go/pkg/resilience"
	"github.com/stretchr/testify/assert"
)

func TestCircuitBreakerStartsClosed(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig())
	assert.Equal(t, resilience.Closed, cb.State())
	assert.True(t, cb.Allow())
}

func TestCircuitBreakerTripsAfterThreshold(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{FailureThreshold: 2, SleepWindow: time.Hour})

	cb.RecordFailure()
	assert.Equal(t, resilience.Closed, cb.State())
	cb.RecordFailure()
	assert.Equal(t, resilience.Open, cb.State())
	assert.False(t, cb.Allow())
}

func TestCircuitBreakerHalfOpensAfterSleepWindow(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{FailureThreshold: 1, SleepWindow: time.Millisecond})

	cb.RecordFailure()
	require := assert.New(t)
	require.Equal(resilience.Open, cb.State())

	time.Sleep(5 * time.Millisecond)
	require.True(cb.Allow())
	require.Equal(resilience.HalfOpen, cb.State())
}

func TestCircuitBreakerFailedProbeReopensImmediately(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{FailureThreshold: 1, SleepWindow: time.Millisecond})

	cb.RecordFailure()
	time.Sleep(5 * time.Millisecond)
	cb.Allow() // transitions to HalfOpen
	assert.Equal(t, resilience.HalfOpen, cb.State())

	cb.RecordFailure()
	assert.Equal(t, resilience.Open, cb.State())
}

type recordingMetrics struct {
	successes   []string
	failures    []string
	rejections  []string
	transitions [][3]string
}

func (r *recordingMetrics) RecordSuccess(name string) { r.successes = append(r.successes, name) }
func (r *recordingMetrics) RecordFailure(name string) { r.failures = append(r.failures, name) }
func (r *recordingMetrics) RecordRejection(name string) {
	r.rejections = append(r.rejections, name)
}
func (r *recordingMetrics) RecordStateChange(name string, from, to resilience.CircuitState) {
	r.transitions = append(r.transitions, [3]string{name, from.String(), to.String()})
}

func TestCircuitBreakerReportsEventsToMetricsCollector(t *testing.T) {
	rec := &recordingMetrics{}
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 1,
		SleepWindow:      time.Hour,
		Name:             "upstream-api",
		Metrics:          rec,
	})

	cb.RecordFailure()
	assert.Equal(t, []string{"upstream-api"}, rec.failures)
	assert.Equal(t, [][3]string{{"upstream-api", "closed", "open"}}, rec.transitions)

	assert.False(t, cb.Allow())
	assert.Equal(t, []string{"upstream-api"}, rec.rejections)
}

func TestCircuitBreakerSuccessClosesAndResetsFailures(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{FailureThreshold: 2, SleepWindow: time.Hour})

	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	assert.Equal(t, resilience.Closed, cb.State(), "failure count should have reset on success")
}
