package ext_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/nicholidev/eco-mentor/ext"
	"github.com/nicholidev/eco-mentor/id"
	"github.com/nicholidev/eco-mentor/job"
)

// ──────────────────────────────────────────────────
// Test extensions
// ──────────────────────────────────────────────────

// allHooksExt implements every lifecycle hook for testing.
type allHooksExt struct {
	calls []string
}

func (e *allHooksExt) Name() string { return "all-hooks" }

func (e *allHooksExt) OnJobEnqueued(_ context.Context, _ *job.Job) error {
	e.calls = append(e.calls, "OnJobEnqueued")
	return nil
}

func (e *allHooksExt) OnJobStarted(_ context.Context, _ *job.Job) error {
	e.calls = append(e.calls, "OnJobStarted")
	return nil
}

func (e *allHooksExt) OnJobCompleted(_ context.Context, _ *job.Job, _ time.Duration) error {
	e.calls = append(e.calls, "OnJobCompleted")
	return nil
}

func (e *allHooksExt) OnJobFailed(_ context.Context, _ *job.Job, _ error) error {
	e.calls = append(e.calls, "OnJobFailed")
	return nil
}

func (e *allHooksExt) OnJobRetrying(_ context.Context, _ *job.Job, _ int, _ time.Time) error {
	e.calls = append(e.calls, "OnJobRetrying")
	return nil
}

func (e *allHooksExt) OnBufferFlushed(_ context.Context, _ string, _, _ int) error {
	e.calls = append(e.calls, "OnBufferFlushed")
	return nil
}

func (e *allHooksExt) OnShutdown(_ context.Context) error {
	e.calls = append(e.calls, "OnShutdown")
	return nil
}

// enqueueOnlyExt implements only the JobEnqueued hook.
type enqueueOnlyExt struct {
	count int
}

func (e *enqueueOnlyExt) Name() string { return "enqueue-only" }

func (e *enqueueOnlyExt) OnJobEnqueued(_ context.Context, _ *job.Job) error {
	e.count++
	return nil
}

// failingExt returns an error from its hook; the registry must swallow it.
type failingExt struct{}

func (e *failingExt) Name() string { return "failing" }

func (e *failingExt) OnJobEnqueued(_ context.Context, _ *job.Job) error {
	return errors.New("hook exploded")
}

func testJob() *job.Job {
	return &job.Job{ID: id.NewJobID(), Name: "test", Queue: "default"}
}

// ──────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────

func TestRegistry_EmitsToAllHooks(t *testing.T) {
	t.Parallel()
	r := ext.NewRegistry(slog.Default())
	e := &allHooksExt{}
	r.Register(e)

	ctx := context.Background()
	j := testJob()

	r.EmitJobEnqueued(ctx, j)
	r.EmitJobStarted(ctx, j)
	r.EmitJobCompleted(ctx, j, time.Second)
	r.EmitJobFailed(ctx, j, errors.New("boom"))
	r.EmitJobRetrying(ctx, j, 1, time.Now())
	r.EmitBufferFlushed(ctx, "update-search-index", 4, 1)
	r.EmitShutdown(ctx)

	want := []string{
		"OnJobEnqueued", "OnJobStarted", "OnJobCompleted",
		"OnJobFailed", "OnJobRetrying", "OnBufferFlushed", "OnShutdown",
	}
	if len(e.calls) != len(want) {
		t.Fatalf("got %d calls, want %d: %v", len(e.calls), len(want), e.calls)
	}
	for i, name := range want {
		if e.calls[i] != name {
			t.Errorf("calls[%d] = %q, want %q", i, e.calls[i], name)
		}
	}
}

func TestRegistry_PartialHookExtension(t *testing.T) {
	t.Parallel()
	r := ext.NewRegistry(slog.Default())
	e := &enqueueOnlyExt{}
	r.Register(e)

	ctx := context.Background()
	j := testJob()

	// Only EmitJobEnqueued should reach the extension; the others must
	// not panic even though no hook is registered for them.
	r.EmitJobEnqueued(ctx, j)
	r.EmitJobCompleted(ctx, j, time.Second)
	r.EmitBufferFlushed(ctx, "b", 0, 0)

	if e.count != 1 {
		t.Errorf("OnJobEnqueued called %d times, want 1", e.count)
	}
}

func TestRegistry_HookErrorDoesNotPropagate(t *testing.T) {
	t.Parallel()
	r := ext.NewRegistry(slog.Default())
	r.Register(&failingExt{})
	after := &enqueueOnlyExt{}
	r.Register(after)

	// The failing hook must not stop later extensions from being notified.
	r.EmitJobEnqueued(context.Background(), testJob())

	if after.count != 1 {
		t.Errorf("extension after failing hook called %d times, want 1", after.count)
	}
}

func TestRegistry_Extensions(t *testing.T) {
	t.Parallel()
	r := ext.NewRegistry(slog.Default())
	r.Register(&allHooksExt{})
	r.Register(&enqueueOnlyExt{})

	if got := len(r.Extensions()); got != 2 {
		t.Errorf("Extensions() = %d, want 2", got)
	}
}
