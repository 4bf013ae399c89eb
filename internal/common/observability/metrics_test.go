// internal/common/observability/metrics_test.go
package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type debugLogger struct {
	messages []string
	fields   []map[string]interface{}
}

func (l *debugLogger) Debug(msg string, fields map[string]interface{}) {
	l.messages = append(l.messages, msg)
	l.fields = append(l.fields, fields)
}

func TestObservability_RecordsQuestionMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := New("titanic-agent-test", WithRegisterer(reg))
	defer obs.Shutdown()

	ctx := context.Background()
	obs.RecordQuestionProcessed(ctx, "success")
	obs.RecordQuestionProcessed(ctx, "error")
	obs.RecordQuestionDuration(ctx, 250*time.Millisecond, "success")
	obs.RecordToolInvoked(ctx, "analyze_data", "success")

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	joined := strings.Join(names, ",")
	assert.Contains(t, joined, "questions_processed")
	assert.Contains(t, joined, "questions_duration")
	assert.Contains(t, joined, "tools_invoked")
}

func TestObservability_NilSafe(t *testing.T) {
	var obs *Observability
	ctx := context.Background()

	assert.NotPanics(t, func() {
		obs.RecordQuestionProcessed(ctx, "success")
		obs.RecordQuestionDuration(ctx, time.Second, "success")
		obs.RecordToolInvoked(ctx, "visualize_data", "error")
		obs.Shutdown()
	})
	assert.NotNil(t, obs.Tracer())
}

func TestLogExporter_ExportSpans(t *testing.T) {
	log := &debugLogger{}
	exp := NewLogExporter(log)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, parent := tp.Tracer("test").Start(context.Background(), "agent.answer")
	_, child := tp.Tracer("test").Start(ctx, "tool.analyze_data")
	child.SetAttributes(attribute.String("tool", "analyze_data"))
	child.End()
	parent.End()

	require.Len(t, log.messages, 2)
	assert.Equal(t, "tool.analyze_data", log.fields[0]["span"])
	assert.Equal(t, "analyze_data", log.fields[0]["tool"])
	assert.Contains(t, log.fields[0], "parentSpanId")
	assert.Equal(t, "agent.answer", log.fields[1]["span"])
	assert.NotContains(t, log.fields[1], "parentSpanId")
}

func TestObservability_TracerUsesExporter(t *testing.T) {
	recorder := tracetest.NewInMemoryExporter()
	obs := New("titanic-agent-test", WithRegisterer(prometheus.NewRegistry()), WithSpanExporter(recorder))

	_, span := obs.Tracer().Start(context.Background(), "question")
	span.End()
	require.NoError(t, obs.ForceFlush(context.Background()))
	defer obs.Shutdown()

	spans := recorder.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "question", spans[0].Name)
}
