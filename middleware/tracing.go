package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nicholidev/eco-mentor/job"
)

// tracerName is the instrumentation scope name for eco-mentor tracing.
const tracerName = "github.com/nicholidev/eco-mentor"

// Tracing returns middleware that wraps job execution in an OpenTelemetry span.
// If no TracerProvider is configured globally, the default noop tracer is used
// and this middleware becomes a pass-through with zero overhead.
//
// Span attributes include: ecomentor.job.id, ecomentor.job.name,
// ecomentor.queue, ecomentor.retry_count, ecomentor.channel_id,
// ecomentor.language_code. On error, the span status is set to codes.Error
// with the error message.
func Tracing() Middleware {
	tracer := otel.Tracer(tracerName)
	return TracingWithTracer(tracer)
}

// TracingWithTracer returns tracing middleware using the provided tracer.
// This variant allows injecting a specific TracerProvider for testing or
// when multiple providers are in use.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		ctx, span := tracer.Start(ctx, "ecomentor.job.execute",
			trace.WithAttributes(
				attribute.String("ecomentor.job.id", j.ID.String()),
				attribute.String("ecomentor.job.name", j.Name),
				attribute.String("ecomentor.queue", j.Queue),
				attribute.Int("ecomentor.retry_count", j.RetryCount),
				attribute.String("ecomentor.channel_id", j.ChannelID),
				attribute.String("ecomentor.language_code", j.LanguageCode),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return err
	}
}
