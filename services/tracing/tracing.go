package tracesvc

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
)

// NewProvider builds the SDK tracer provider described by conf and installs it as the global one.
// Spans are exported to `logger`. When tracing is disabled the global no-op provider is kept.
func NewProvider(conf *core.Config, logger core.Logger) *sdktrace.TracerProvider {
	if !conf.Trace.Enabled {
		return nil
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", conf.AppName),
		attribute.String("service.version", conf.Build),
		attribute.String("deployment.environment", conf.Env),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(conf.Trace.SampleRatio))),
		sdktrace.WithBatcher(NewLogExporter(logger)),
	)
	otel.SetTracerProvider(tp)
	return tp
}

// Shutdown flushes the spans still buffered by tp. A nil provider is a no-op.
func Shutdown(tp *sdktrace.TracerProvider, timeout time.Duration) error {
	if tp == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return tp.Shutdown(ctx)
}

// LogExporter writes finished spans as structured debug entries.
type LogExporter struct {
	logger core.Logger
}

var _ sdktrace.SpanExporter = (*LogExporter)(nil)

func NewLogExporter(logger core.Logger) *LogExporter {
	return &LogExporter{logger: logger}
}

func (e *LogExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, span := range spans {
		fields := map[string]interface{}{
			"trace_id":    span.SpanContext().TraceID().String(),
			"span_id":     span.SpanContext().SpanID().String(),
			"duration_ms": span.EndTime().Sub(span.StartTime()).Milliseconds(),
		}
		for _, kv := range span.Attributes() {
			fields[string(kv.Key)] = kv.Value.AsInterface()
		}
		if st := span.Status(); st.Code == codes.Error {
			fields["status"] = st.Description
			e.logger.Warn("span "+span.Name(), fields)
			continue
		}
		e.logger.Debug("span "+span.Name(), fields)
	}
	return nil
}

func (e *LogExporter) Shutdown(context.Context) error {
	return nil
}
