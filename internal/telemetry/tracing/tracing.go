// Package tracing wires the obscalc engine's suspension points (ITC calls,
// persisted-state reads/writes, smart-gcal lookups, event-stream reads —
// spec §5) into OpenTelemetry spans.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Options configures the tracer provider.
type Options struct {
	ServiceName string
	Enabled     bool
}

// Init installs a process-wide TracerProvider and returns a teardown
// function, matching the module-level "explicit init(config) / teardown()"
// convention (spec §9).
func Init(opts Options) (teardown func(context.Context) error, err error) {
	if !opts.Enabled {
		otel.SetTracerProvider(trace.NewNoopTracerProvider())
		return func(context.Context) error { return nil }, nil
	}
	res, err := resource.New(context.Background(), resource.WithAttributes())
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// Tracer returns the named tracer from the process-wide provider.
func Tracer(name string) trace.Tracer { return otel.Tracer(name) }

// StartSpan is a thin convenience wrapper used at every suspension point.
func StartSpan(ctx context.Context, tracerName, spanName string) (context.Context, trace.Span) {
	return Tracer(tracerName).Start(ctx, spanName)
}

// ExtractIDs returns the trace/span id of the active span in ctx, for log
// correlation (spec ambient logging requirement).
func ExtractIDs(ctx context.Context) (traceID, spanID string) {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return "", ""
	}
	return sc.TraceID().String(), sc.SpanID().String()
}
