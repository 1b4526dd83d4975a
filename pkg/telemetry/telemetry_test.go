package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/PioneersHub/pytanis-go/pkg/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestStartSpanWithNilTracerUsesGlobalProvider(t *testing.T) {
	ctx, span := telemetry.StartSpan(context.Background(), nil, "fetcher.get", attribute.String("path", "/submissions/"))
	require.NotNil(t, span)
	require.NotNil(t, ctx)
	telemetry.EndSpan(span, nil)
}

func TestEndSpanRecordsError(t *testing.T) {
	tp := telemetry.NewTracerProvider()
	tracer := telemetry.Tracer(tp)
	_, span := telemetry.StartSpan(context.Background(), tracer, "schedule.solving")
	telemetry.EndSpan(span, errors.New("solver exited 1"))
	// sdktrace spans expose no public assertion surface for status without
	// an exporter; this test only confirms EndSpan does not panic on a real
	// (non-noop) span, which the noop tracer in the prior test cannot
	// exercise.
}

func TestMeterWithNilProviderUsesGlobalProvider(t *testing.T) {
	m := telemetry.Meter(nil)
	require.NotNil(t, m)
}

func TestNewCorrelationIDIsUnique(t *testing.T) {
	a := telemetry.NewCorrelationID()
	b := telemetry.NewCorrelationID()
	assert.NotEqual(t, a, b)
	assert.NotEmpty(t, a)
}
