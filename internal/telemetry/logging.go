package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"
)

// TraceHandler decorates JSON log records with the active span's ids.
type TraceHandler struct {
	next slog.Handler
}

// NewTraceHandler writes JSON records to w, tagging each with trace_id and
// span_id when the record's context carries a sampled span.
func NewTraceHandler(w io.Writer, level slog.Leveler) *TraceHandler {
	return &TraceHandler{
		next: slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}),
	}
}

func (h *TraceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *TraceHandler) Handle(ctx context.Context, record slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		record.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.next.Handle(ctx, record)
}

func (h *TraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceHandler{next: h.next.WithAttrs(attrs)}
}

func (h *TraceHandler) WithGroup(name string) slog.Handler {
	return &TraceHandler{next: h.next.WithGroup(name)}
}

// InitLogger installs a service-scoped JSON logger as the slog default.
// Components created afterwards pick it up through slog.Default.
func InitLogger(serviceName string, level slog.Level) *slog.Logger {
	logger := slog.New(NewTraceHandler(os.Stdout, level)).With(
		slog.String("service", serviceName),
	)
	slog.SetDefault(logger)
	return logger
}
