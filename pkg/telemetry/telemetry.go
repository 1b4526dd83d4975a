// Package telemetry is a thin wrapper around go.opentelemetry.io/otel used
// by the fetcher (one span per Get call) and by the schedule optimizer
// (one span for the whole run and one each for its Building and Solving
// stages). It does not configure an exporter: building a
// TracerProvider backed by OTLP, stdout, or any other destination is a
// process-wiring concern left to the caller (the settings-file boundary
// covers where that configuration would come from). Callers that never
// register an exporter still get a fully
// functional, zero-overhead no-op tracer from otel's global default.
package telemetry

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/PioneersHub/pytanis-go"

// NewTracerProvider builds an SDK TracerProvider from the given options
// (typically a resource and one or more span processors supplied by the
// caller). A provider built with no processors still works: spans are
// created and timed, simply never exported anywhere.
func NewTracerProvider(opts ...sdktrace.TracerProviderOption) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(opts...)
}

// Tracer returns this module's named tracer from provider, or from the
// process-global provider when provider is nil.
func Tracer(provider trace.TracerProvider) trace.Tracer {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return provider.Tracer(instrumentationName)
}

// StartSpan starts a span named name under ctx carrying attrs, using
// tracer (a nil tracer falls back to the global provider's tracer so
// callers that did not wire one up still get a working no-op span).
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if tracer == nil {
		tracer = Tracer(nil)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err on span when non-nil, setting the span's status to
// Error, then ends it. Safe to call with a nil err.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Meter returns this module's named meter from provider, or from the
// process-global provider when provider is nil, mirroring Tracer above.
func Meter(provider metric.MeterProvider) metric.Meter {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	return provider.Meter(instrumentationName)
}

// NewCorrelationID returns a fresh identifier used to tie together the log
// lines and spans belonging to one scheduling run, following this codebase's request/correlation-id convention for tracing
// one logical operation across several log statements.
func NewCorrelationID() string {
	return uuid.NewString()
}
