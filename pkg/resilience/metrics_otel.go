package resilience

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetricsCollector implements MetricsCollector on top of the
// process-global (or caller-supplied) OpenTelemetry MeterProvider.
type OTelMetricsCollector struct {
	ctx            context.Context
	successCounter metric.Int64Counter
	failureCounter metric.Int64Counter
	rejectCounter  metric.Int64Counter
	stateCounter   metric.Int64Counter
}

// NewOTelMetricsCollector builds a collector that records circuit breaker
// events against meter, tagged by the breaker's Name. ctx is used for every
// recorded measurement; a long-lived context (e.g. context.Background())
// is the usual choice since the collector outlives any single request.
func NewOTelMetricsCollector(ctx context.Context, meter metric.Meter) (*OTelMetricsCollector, error) {
	successCounter, err := meter.Int64Counter("resilience.circuit_breaker.success",
		metric.WithDescription("Successful calls observed by a circuit breaker"))
	if err != nil {
		return nil, err
	}
	failureCounter, err := meter.Int64Counter("resilience.circuit_breaker.failure",
		metric.WithDescription("Failed calls observed by a circuit breaker"))
	if err != nil {
		return nil, err
	}
	rejectCounter, err := meter.Int64Counter("resilience.circuit_breaker.rejected",
		metric.WithDescription("Calls rejected while a circuit breaker was open"))
	if err != nil {
		return nil, err
	}
	stateCounter, err := meter.Int64Counter("resilience.circuit_breaker.state_change",
		metric.WithDescription("Circuit breaker state transitions"))
	if err != nil {
		return nil, err
	}

	return &OTelMetricsCollector{
		ctx:            ctx,
		successCounter: successCounter,
		failureCounter: failureCounter,
		rejectCounter:  rejectCounter,
		stateCounter:   stateCounter,
	}, nil
}

// RecordSuccess implements MetricsCollector.
func (o *OTelMetricsCollector) RecordSuccess(name string) {
	o.successCounter.Add(o.ctx, 1, metric.WithAttributes(attribute.String("circuit_breaker", name)))
}

// RecordFailure implements MetricsCollector.
func (o *OTelMetricsCollector) RecordFailure(name string) {
	o.failureCounter.Add(o.ctx, 1, metric.WithAttributes(attribute.String("circuit_breaker", name)))
}

// RecordRejection implements MetricsCollector.
func (o *OTelMetricsCollector) RecordRejection(name string) {
	o.rejectCounter.Add(o.ctx, 1, metric.WithAttributes(attribute.String("circuit_breaker", name)))
}

// RecordStateChange implements MetricsCollector.
func (o *OTelMetricsCollector) RecordStateChange(name string, from, to CircuitState) {
	o.stateCounter.Add(o.ctx, 1, metric.WithAttributes(
		attribute.String("circuit_breaker", name),
		attribute.String("from_state", from.String()),
		attribute.String("to_state", to.String()),
	))
}
