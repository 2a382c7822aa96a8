package operations

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"clcconvert/internal/infrastructure"
)

const (
	TracerName = "clcconvert.conversion"
)

// ConversionTracer provides spans and metrics for conversions
type ConversionTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.ConversionMetrics
}

// NewConversionTracer creates a tracer on the given providers. With nil
// providers spans go to the global tracer and metrics are dropped.
func NewConversionTracer(providers *infrastructure.OTelProviders) (*ConversionTracer, error) {
	ct := &ConversionTracer{tracer: otel.Tracer(TracerName)}
	if providers == nil {
		return ct, nil
	}

	if providers.TracerProvider != nil {
		ct.tracer = providers.TracerProvider.Tracer(TracerName)
	}
	metrics, err := infrastructure.NewConversionMetrics(providers.Meter)
	if err != nil {
		return nil, err
	}
	ct.metrics = metrics
	return ct, nil
}

// TraceBatch creates a span for a whole batch
func (ct *ConversionTracer) TraceBatch(ctx context.Context, batchID string, files int) (context.Context, trace.Span) {
	return ct.tracer.Start(ctx, "conversion.batch",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("batch.id", batchID),
			attribute.Int("batch.files", files),
		),
	)
}

// TraceFile creates a span for one input file
func (ct *ConversionTracer) TraceFile(ctx context.Context, path string) (context.Context, trace.Span) {
	return ct.tracer.Start(ctx, "conversion.file",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("file.path", path)),
	)
}

// TraceStage creates a span for one pipeline stage
func (ct *ConversionTracer) TraceStage(ctx context.Context, stage Stage) (context.Context, trace.Span) {
	return ct.tracer.Start(ctx, "conversion.stage."+string(stage),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("stage", string(stage))),
	)
}

// RecordStageCompletion closes out a stage span
func (ct *ConversionTracer) RecordStageCompletion(ctx context.Context, span trace.Span, stage Stage, duration time.Duration, err error) {
	span.SetAttributes(attribute.Float64("stage.duration_seconds", duration.Seconds()))
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return
	}
	span.SetStatus(codes.Ok, "")
}

// RecordFileCompletion records the outcome of one file on its span and in metrics
func (ct *ConversionTracer) RecordFileCompletion(ctx context.Context, span trace.Span, res Result, duration time.Duration) {
	span.SetAttributes(
		attribute.String("file.status", string(res.Status)),
		attribute.Int("file.tags", res.Tags),
		attribute.Int("file.samples", res.Samples),
		attribute.Int("file.warnings", len(res.Warnings)),
	)

	ct.metrics.RecordConversion(ctx, string(res.Status), string(res.Kind), duration)
	if res.OK() {
		good := res.Samples*res.Tags - res.BadSamples
		ct.metrics.RecordSamples(ctx, good, res.BadSamples)
		ct.metrics.RecordWarnings(ctx, len(res.Warnings))
		span.SetStatus(codes.Ok, "")
		return
	}

	infrastructure.AddSpanEvent(ctx, "conversion.failed",
		attribute.String("kind", string(res.Kind)),
		attribute.String("stage", string(res.Stage)))
	span.SetStatus(codes.Error, res.Message)
}
