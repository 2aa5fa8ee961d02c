package replay_test

import (
	"context"
	"errors"
	"testing"
	"time"

	ecomentor "github.com/nicholidev/eco-mentor"
	"github.com/nicholidev/eco-mentor/id"
	"github.com/nicholidev/eco-mentor/job"
	"github.com/nicholidev/eco-mentor/replay"
	"github.com/nicholidev/eco-mentor/search"
	"github.com/nicholidev/eco-mentor/store/memory"
)

func newFailedJob(name string, failedAt time.Time) *job.Job {
	runAt := failedAt.Add(-time.Minute)
	return &job.Job{
		Entity:       ecomentor.NewEntity(),
		ID:           id.NewJobID(),
		Name:         name,
		Queue:        ecomentor.QueueSearchIndex,
		Payload:      []byte(`{"product_ids":["prod-1"]}`),
		State:        job.StateFailed,
		MaxRetries:   3,
		RetryCount:   3,
		LastError:    "bulk index rejected",
		ChannelID:    "storefront-eu",
		LanguageCode: "en",
		RunAt:        runAt,
		CompletedAt:  &failedAt,
	}
}

func TestService_Replay_ReEnqueuesFreshJob(t *testing.T) {
	t.Parallel()

	st := memory.New()
	svc := replay.NewService(st)
	ctx := context.Background()

	failed := newFailedJob(search.OpUpdateProduct, time.Now().UTC())
	if err := st.EnqueueJob(ctx, failed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	fresh, err := svc.Replay(ctx, failed.ID)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if fresh.ID == failed.ID {
		t.Error("replayed job kept the original ID")
	}
	if fresh.State != job.StatePending {
		t.Errorf("State = %q, want pending", fresh.State)
	}
	if fresh.RetryCount != 0 {
		t.Errorf("RetryCount = %d, want 0", fresh.RetryCount)
	}
	if fresh.ChannelID != "storefront-eu" || fresh.LanguageCode != "en" {
		t.Errorf("scope = (%q, %q), want (storefront-eu, en)", fresh.ChannelID, fresh.LanguageCode)
	}
	if string(fresh.Payload) != string(failed.Payload) {
		t.Error("payload not preserved")
	}

	// The failed original is gone.
	if _, err := st.GetJob(ctx, failed.ID); !errors.Is(err, ecomentor.ErrJobNotFound) {
		t.Errorf("GetJob(original) error = %v, want ErrJobNotFound", err)
	}
}

func TestService_Replay_RejectsNonFailedJob(t *testing.T) {
	t.Parallel()

	st := memory.New()
	svc := replay.NewService(st)
	ctx := context.Background()

	j := newFailedJob(search.OpUpdateProduct, time.Now().UTC())
	j.State = job.StatePending
	j.CompletedAt = nil
	if err := st.EnqueueJob(ctx, j); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := svc.Replay(ctx, j.ID); !errors.Is(err, replay.ErrNotFailed) {
		t.Fatalf("Replay error = %v, want ErrNotFailed", err)
	}
}

func TestService_ReplayAll_CoversQueue(t *testing.T) {
	t.Parallel()

	st := memory.New()
	svc := replay.NewService(st)
	ctx := context.Background()

	now := time.Now().UTC()
	for _, name := range []string{search.OpUpdateProduct, search.OpUpdateVariants, search.OpReindex} {
		if err := st.EnqueueJob(ctx, newFailedJob(name, now)); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	n, err := svc.ReplayAll(ctx, ecomentor.QueueSearchIndex)
	if err != nil {
		t.Fatalf("ReplayAll: %v", err)
	}
	if n != 3 {
		t.Errorf("replayed %d jobs, want 3", n)
	}

	remaining, err := svc.CountFailed(ctx, "")
	if err != nil {
		t.Fatalf("CountFailed: %v", err)
	}
	if remaining != 0 {
		t.Errorf("failed jobs remaining = %d, want 0", remaining)
	}

	pending, err := st.ListJobsByState(ctx, job.StatePending, job.ListOpts{})
	if err != nil {
		t.Fatalf("ListJobsByState: %v", err)
	}
	if len(pending) != 3 {
		t.Errorf("pending jobs = %d, want 3", len(pending))
	}
}

func TestService_Purge_RemovesOldFailures(t *testing.T) {
	t.Parallel()

	st := memory.New()
	svc := replay.NewService(st)
	ctx := context.Background()

	now := time.Now().UTC()
	old := newFailedJob(search.OpUpdateProduct, now.Add(-48*time.Hour))
	recent := newFailedJob(search.OpUpdateVariants, now.Add(-time.Hour))
	for _, j := range []*job.Job{old, recent} {
		if err := st.EnqueueJob(ctx, j); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	removed, err := svc.Purge(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, err := st.GetJob(ctx, old.ID); !errors.Is(err, ecomentor.ErrJobNotFound) {
		t.Errorf("old job still present, err = %v", err)
	}
	if _, err := st.GetJob(ctx, recent.ID); err != nil {
		t.Errorf("recent job removed, err = %v", err)
	}
}
