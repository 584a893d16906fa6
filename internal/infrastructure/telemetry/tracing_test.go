package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// setupTestTracer installs an in-memory span recorder as the global provider
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(attrs))
	for _, a := range attrs {
		m[string(a.Key)] = a.Value
	}
	return m
}

func TestStartServiceSpan(t *testing.T) {
	sr := setupTestTracer(t)
	customerID := uuid.New()

	_, span := telemetry.StartServiceSpan(context.Background(), "order", "checkout")
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSessionID, "sess-1",
		telemetry.SpanAttrCustomerID, customerID,
		telemetry.SpanAttrItemCount, 3,
		42, "ignored non-string key",
		"dangling",
	)
	telemetry.SetAttribute(span, telemetry.SpanAttrAmount, decimal.RequireFromString("12.50"))
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	s := spans[0]
	assert.Equal(t, "order.checkout", s.Name())
	assert.Equal(t, trace.SpanKindInternal, s.SpanKind())

	attrs := attrMap(s.Attributes())
	assert.Equal(t, "sess-1", attrs["session_id"].AsString())
	assert.Equal(t, customerID.String(), attrs["customer_id"].AsString())
	assert.Equal(t, int64(3), attrs["item_count"].AsInt64())
	assert.Equal(t, "12.5", attrs["amount"].AsString())
	assert.Len(t, attrs, 4)
}

func TestStartServiceSpan_Nested(t *testing.T) {
	sr := setupTestTracer(t)

	ctx, parent := telemetry.StartServiceSpan(context.Background(), "payment", "pay")
	_, child := telemetry.StartServiceSpan(ctx, "order", "mark_paid")
	child.End()
	parent.End()

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "order.mark_paid", spans[0].Name())
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
	assert.Equal(t, spans[1].SpanContext().TraceID(), spans[0].SpanContext().TraceID())
}

func TestRecordError(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartServiceSpan(context.Background(), "order", "mark_paid")
	telemetry.RecordError(span, nil)
	telemetry.RecordError(span, errors.New("invalid transition"))
	span.End()

	s := sr.Ended()[0]
	assert.Equal(t, codes.Error, s.Status().Code)
	assert.Equal(t, "invalid transition", s.Status().Description)
	require.Len(t, s.Events(), 1)
	assert.Equal(t, "exception", s.Events()[0].Name)
}

func TestHelpersTolerateNilSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		telemetry.SetAttributes(nil, "k", "v")
		telemetry.SetAttribute(nil, "k", "v")
		telemetry.RecordError(nil, errors.New("x"))
	})
}
