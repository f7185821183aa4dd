package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"research-agent/internal/shared/telemetry"
)

// ServiceName is reported on every span.
const ServiceName = "research-agent"

// Setup installs a global tracer provider that samples at ratio and writes
// finished spans to the process logger. The returned func flushes and stops
// the provider.
func Setup(ratio float64, extra ...sdktrace.SpanProcessor) (func(context.Context) error, error) {
	res := resource.NewSchemaless(attribute.String("service.name", ServiceName))

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		sdktrace.WithBatcher(&logExporter{}),
	}
	for _, p := range extra {
		opts = append(opts, sdktrace.WithSpanProcessor(p))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// logExporter writes spans as debug log lines.
type logExporter struct{}

func (e *logExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		fields := map[string]any{
			"span":        s.Name(),
			"trace_id":    s.SpanContext().TraceID().String(),
			"span_id":     s.SpanContext().SpanID().String(),
			"duration_ms": float64(s.EndTime().Sub(s.StartTime()).Microseconds()) / 1000.0,
			"status":      s.Status().Code.String(),
		}
		if s.Parent().IsValid() {
			fields["parent_span_id"] = s.Parent().SpanID().String()
		}
		for _, kv := range s.Attributes() {
			fields[string(kv.Key)] = kv.Value.Emit()
		}
		telemetry.Debug("trace.span", fields)
	}
	return nil
}

func (e *logExporter) Shutdown(context.Context) error {
	return nil
}
