package observability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	ecomentor "github.com/nicholidev/eco-mentor"
	"github.com/nicholidev/eco-mentor/id"
	"github.com/nicholidev/eco-mentor/job"
	"github.com/nicholidev/eco-mentor/observability"
	"github.com/nicholidev/eco-mentor/search"
)

func newTestExtension(t *testing.T) (*observability.MetricsExtension, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background()) //nolint:errcheck
	})
	meter := provider.Meter("test")
	return observability.NewMetricsExtensionWithMeter(meter), reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	return rm
}

func counterValue(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("metric %s is not an int64 sum", name)
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

func newIndexJob() *job.Job {
	return &job.Job{
		Entity: ecomentor.NewEntity(),
		ID:     id.NewJobID(),
		Name:   search.OpUpdateProduct,
		Queue:  ecomentor.QueueSearchIndex,
		State:  job.StatePending,
	}
}

func TestMetricsExtension_JobCounters(t *testing.T) {
	t.Parallel()

	e, reader := newTestExtension(t)
	ctx := context.Background()
	j := newIndexJob()

	if err := e.OnJobEnqueued(ctx, j); err != nil {
		t.Fatalf("OnJobEnqueued: %v", err)
	}
	if err := e.OnJobEnqueued(ctx, j); err != nil {
		t.Fatalf("OnJobEnqueued: %v", err)
	}
	if err := e.OnJobCompleted(ctx, j, 50*time.Millisecond); err != nil {
		t.Fatalf("OnJobCompleted: %v", err)
	}
	if err := e.OnJobRetrying(ctx, j, 1, time.Now()); err != nil {
		t.Fatalf("OnJobRetrying: %v", err)
	}
	if err := e.OnJobFailed(ctx, j, errors.New("boom")); err != nil {
		t.Fatalf("OnJobFailed: %v", err)
	}

	rm := collect(t, reader)
	if v := counterValue(t, rm, "ecomentor.jobs.enqueued"); v != 2 {
		t.Errorf("enqueued = %d, want 2", v)
	}
	if v := counterValue(t, rm, "ecomentor.jobs.completed"); v != 1 {
		t.Errorf("completed = %d, want 1", v)
	}
	if v := counterValue(t, rm, "ecomentor.jobs.retried"); v != 1 {
		t.Errorf("retried = %d, want 1", v)
	}
	if v := counterValue(t, rm, "ecomentor.jobs.failed"); v != 1 {
		t.Errorf("failed = %d, want 1", v)
	}
}

func TestMetricsExtension_BufferCounters(t *testing.T) {
	t.Parallel()

	e, reader := newTestExtension(t)
	ctx := context.Background()

	if err := e.OnBufferFlushed(ctx, search.BufferIndexUpdates, 9, 4); err != nil {
		t.Fatalf("OnBufferFlushed: %v", err)
	}
	if err := e.OnBufferFlushed(ctx, search.BufferIndexUpdates, 2, 2); err != nil {
		t.Fatalf("OnBufferFlushed: %v", err)
	}

	rm := collect(t, reader)
	if v := counterValue(t, rm, "ecomentor.buffer.flushes"); v != 2 {
		t.Errorf("flushes = %d, want 2", v)
	}
	if v := counterValue(t, rm, "ecomentor.buffer.jobs_emitted"); v != 6 {
		t.Errorf("jobs emitted = %d, want 6", v)
	}
}

// Without a configured provider the extension uses noop instruments and
// must still accept every hook.
func TestMetricsExtension_NoopProviderSafe(t *testing.T) {
	t.Parallel()

	e := observability.NewMetricsExtension()
	ctx := context.Background()
	j := newIndexJob()

	if err := e.OnJobEnqueued(ctx, j); err != nil {
		t.Fatalf("OnJobEnqueued: %v", err)
	}
	if err := e.OnBufferFlushed(ctx, search.BufferCollectionFilters, 1, 1); err != nil {
		t.Fatalf("OnBufferFlushed: %v", err)
	}
}
