// Package tracing wraps otel span creation so packages can trace without
// caring whether a tracer was installed.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

var tracer trace.Tracer

// SetTracer installs the tracer used by StartSpan. Before it is called,
// StartSpan is a no-op.
func SetTracer(t trace.Tracer) {
	tracer = t
}

// StartSpan starts a span with the given name. When no tracer is installed it
// returns the context unchanged and the (no-op) span already on it.
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, spanName)
}
