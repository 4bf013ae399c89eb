// internal/common/observability/spanlog.go
package observability

import (
	"context"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type Logger interface {
	Debug(msg string, fields map[string]interface{})
}

// LogExporter writes finished spans as debug log lines.
type LogExporter struct {
	logger Logger
}

func NewLogExporter(logger Logger) *LogExporter {
	return &LogExporter{logger: logger}
}

func (e *LogExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		fields := map[string]interface{}{
			"span":       s.Name(),
			"traceId":    s.SpanContext().TraceID().String(),
			"spanId":     s.SpanContext().SpanID().String(),
			"durationMs": s.EndTime().Sub(s.StartTime()).Milliseconds(),
			"status":     s.Status().Code.String(),
		}
		if s.Parent().IsValid() {
			fields["parentSpanId"] = s.Parent().SpanID().String()
		}
		for _, kv := range s.Attributes() {
			fields[string(kv.Key)] = kv.Value.Emit()
		}
		e.logger.Debug("span finished", fields)
	}
	return nil
}

func (e *LogExporter) Shutdown(ctx context.Context) error {
	return nil
}
