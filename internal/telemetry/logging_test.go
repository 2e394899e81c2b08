package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestTraceHandler_AddsSpanIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewTraceHandler(&buf, slog.LevelInfo))

	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	logger.InfoContext(ctx, "order placed", slog.String("order_id", "1"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "order placed", rec["msg"])
	assert.Equal(t, span.SpanContext().TraceID().String(), rec["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), rec["span_id"])
}

func TestTraceHandler_NoSpan(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewTraceHandler(&buf, slog.LevelInfo)).With(slog.String("component", "test"))

	logger.Debug("hidden")
	assert.Zero(t, buf.Len())

	logger.Info("shown")
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "test", rec["component"])
	assert.NotContains(t, rec, "trace_id")
}
