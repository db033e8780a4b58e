package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

type contextKey struct{}

// ContextWithRunID stores the run id picked up by WithContext.
func ContextWithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, contextKey{}, runID)
}

func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// WithContext adds the run id and, inside a recording span, the trace and
// span ids so log lines can be matched to exported traces. It returns l
// itself when ctx carries neither.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	runID := RunIDFromContext(ctx)
	sc := trace.SpanContextFromContext(ctx)
	if runID == "" && !sc.IsValid() {
		return l
	}
	zc := l.zl.With()
	if runID != "" {
		zc = zc.Str(FieldRunID, runID)
	}
	if sc.IsValid() {
		zc = zc.Str(FieldTraceID, sc.TraceID().String()).Str(FieldSpanID, sc.SpanID().String())
	}
	return l.derive(zc)
}

// WithSpan adds only the trace and span ids of the span in ctx. Use it on
// loggers that already carry the run id.
func (l *Logger) WithSpan(ctx context.Context) *Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return l
	}
	return l.derive(l.zl.With().
		Str(FieldTraceID, sc.TraceID().String()).
		Str(FieldSpanID, sc.SpanID().String()))
}
