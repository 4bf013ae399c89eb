// internal/common/observability/metrics.go
package observability

import (
	"context"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type Observability struct {
	meterProvider    *metric.MeterProvider
	tracerProvider   *sdktrace.TracerProvider
	meter            otelmetric.Meter
	tracer           trace.Tracer
	questionCounter  otelmetric.Int64Counter
	questionDuration otelmetric.Float64Histogram
	toolCounter      otelmetric.Int64Counter
}

// Option configures New.
type Option func(*options)

type options struct {
	registerer prometheus.Registerer
	spanSink   sdktrace.SpanExporter
}

// WithRegisterer exports OTel metrics into reg instead of the default registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithSpanExporter batches finished spans into exp.
func WithSpanExporter(exp sdktrace.SpanExporter) Option {
	return func(o *options) { o.spanSink = exp }
}

func New(serviceName string, opts ...Option) *Observability {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	tpOpts := []sdktrace.TracerProviderOption{sdktrace.WithSampler(sdktrace.AlwaysSample())}
	if o.spanSink != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(o.spanSink))
	}
	tracerProvider := sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(tracerProvider)

	obs := &Observability{
		tracerProvider: tracerProvider,
		tracer:         tracerProvider.Tracer(serviceName),
	}

	var exporterOpts []otelprom.Option
	if o.registerer != nil {
		exporterOpts = append(exporterOpts, otelprom.WithRegisterer(o.registerer))
	}
	exporter, err := otelprom.New(exporterOpts...)
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return obs
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	questionCounter, _ := meter.Int64Counter(
		"questions.processed",
		otelmetric.WithDescription("Number of questions processed"),
	)
	questionDuration, _ := meter.Float64Histogram(
		"questions.duration",
		otelmetric.WithDescription("Question processing duration"),
		otelmetric.WithUnit("ms"),
	)
	toolCounter, _ := meter.Int64Counter(
		"tools.invoked",
		otelmetric.WithDescription("Number of tool calls dispatched by the agent"),
	)

	obs.meterProvider = provider
	obs.meter = meter
	obs.questionCounter = questionCounter
	obs.questionDuration = questionDuration
	obs.toolCounter = toolCounter
	return obs
}

// Tracer is never nil; without New it falls back to the global provider.
func (o *Observability) Tracer() trace.Tracer {
	if o == nil || o.tracer == nil {
		return otel.Tracer("titanic-agent")
	}
	return o.tracer
}

func (o *Observability) RecordQuestionProcessed(ctx context.Context, status string) {
	if o != nil && o.questionCounter != nil {
		o.questionCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordQuestionDuration(ctx context.Context, duration time.Duration, status string) {
	if o != nil && o.questionDuration != nil {
		o.questionDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordToolInvoked(ctx context.Context, tool, status string) {
	if o != nil && o.toolCounter != nil {
		o.toolCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("status", status),
		))
	}
}

// ForceFlush exports any spans still buffered by the batcher.
func (o *Observability) ForceFlush(ctx context.Context) error {
	if o == nil || o.tracerProvider == nil {
		return nil
	}
	return o.tracerProvider.ForceFlush(ctx)
}

func (o *Observability) Shutdown() {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
}
