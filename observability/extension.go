package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/nicholidev/eco-mentor/ext"
	"github.com/nicholidev/eco-mentor/job"
)

const meterName = "github.com/nicholidev/eco-mentor/observability"

// Compile-time interface checks.
var (
	_ ext.Extension     = (*MetricsExtension)(nil)
	_ ext.JobEnqueued   = (*MetricsExtension)(nil)
	_ ext.JobCompleted  = (*MetricsExtension)(nil)
	_ ext.JobFailed     = (*MetricsExtension)(nil)
	_ ext.JobRetrying   = (*MetricsExtension)(nil)
	_ ext.BufferFlushed = (*MetricsExtension)(nil)
)

// MetricsExtension records lifecycle counters via OpenTelemetry. Register
// it as an extension to track enqueue rates, completion counts, failure
// rates, retry counts, and buffer flush volumes. Counters carry queue and
// job_name attributes; buffer counters carry buffer_id.
type MetricsExtension struct {
	jobsEnqueued  metric.Int64Counter
	jobsCompleted metric.Int64Counter
	jobsFailed    metric.Int64Counter
	jobsRetried   metric.Int64Counter
	bufferFlushes metric.Int64Counter
	bufferEmitted metric.Int64Counter
}

// NewMetricsExtension creates a MetricsExtension on the global
// MeterProvider. Without a configured provider the instruments are
// noops, so registering the extension is always safe.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the
// provided meter. Use this variant to inject a specific MeterProvider.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	m := &MetricsExtension{}

	// On error the OTel API returns noop instruments, so the extension
	// degrades gracefully.
	m.jobsEnqueued, _ = meter.Int64Counter("ecomentor.jobs.enqueued", //nolint:errcheck
		metric.WithDescription("Jobs accepted into the store"),
		metric.WithUnit("{job}"))
	m.jobsCompleted, _ = meter.Int64Counter("ecomentor.jobs.completed", //nolint:errcheck
		metric.WithDescription("Jobs finished successfully"),
		metric.WithUnit("{job}"))
	m.jobsFailed, _ = meter.Int64Counter("ecomentor.jobs.failed", //nolint:errcheck
		metric.WithDescription("Jobs failed terminally"),
		metric.WithUnit("{job}"))
	m.jobsRetried, _ = meter.Int64Counter("ecomentor.jobs.retried", //nolint:errcheck
		metric.WithDescription("Job retry attempts scheduled"),
		metric.WithUnit("{job}"))
	m.bufferFlushes, _ = meter.Int64Counter("ecomentor.buffer.flushes", //nolint:errcheck
		metric.WithDescription("Buffer flush operations"),
		metric.WithUnit("{flush}"))
	m.bufferEmitted, _ = meter.Int64Counter("ecomentor.buffer.jobs_emitted", //nolint:errcheck
		metric.WithDescription("Jobs emitted to the queue by buffer flushes"),
		metric.WithUnit("{job}"))

	return m
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

func jobAttrs(j *job.Job) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("job_name", j.Name),
		attribute.String("queue", j.Queue),
	)
}

// OnJobEnqueued implements ext.JobEnqueued.
func (m *MetricsExtension) OnJobEnqueued(ctx context.Context, j *job.Job) error {
	m.jobsEnqueued.Add(ctx, 1, jobAttrs(j))
	return nil
}

// OnJobCompleted implements ext.JobCompleted.
func (m *MetricsExtension) OnJobCompleted(ctx context.Context, j *job.Job, _ time.Duration) error {
	m.jobsCompleted.Add(ctx, 1, jobAttrs(j))
	return nil
}

// OnJobFailed implements ext.JobFailed.
func (m *MetricsExtension) OnJobFailed(ctx context.Context, j *job.Job, _ error) error {
	m.jobsFailed.Add(ctx, 1, jobAttrs(j))
	return nil
}

// OnJobRetrying implements ext.JobRetrying.
func (m *MetricsExtension) OnJobRetrying(ctx context.Context, j *job.Job, _ int, _ time.Time) error {
	m.jobsRetried.Add(ctx, 1, jobAttrs(j))
	return nil
}

// OnBufferFlushed implements ext.BufferFlushed.
func (m *MetricsExtension) OnBufferFlushed(ctx context.Context, bufferID string, _, emitted int) error {
	attrs := metric.WithAttributes(attribute.String("buffer_id", bufferID))
	m.bufferFlushes.Add(ctx, 1, attrs)
	m.bufferEmitted.Add(ctx, int64(emitted), attrs)
	return nil
}
