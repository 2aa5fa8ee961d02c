package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	ecomentor "github.com/nicholidev/eco-mentor"
	"github.com/nicholidev/eco-mentor/ext"
	"github.com/nicholidev/eco-mentor/id"
	"github.com/nicholidev/eco-mentor/job"
)

// Submitter hands a job descriptor to the execution queue and returns the
// live handle.
type Submitter interface {
	Submit(ctx context.Context, j *job.Job) (*job.Job, error)
}

// WatchOpts bounds a completion wait.
type WatchOpts struct {
	// PollInterval is how often the job state is re-read.
	PollInterval time.Duration

	// Timeout is the maximum total wait before giving up.
	Timeout time.Duration
}

// Inspector is an optional queue capability: observing a submitted job
// until it reaches a terminal state. Queue implementations that cannot
// inspect progress simply do not implement it; callers probe with a type
// assertion and degrade gracefully.
type Inspector interface {
	WatchJob(ctx context.Context, jobID id.JobID, opts WatchOpts) (job.State, error)
}

// Compile-time capability checks.
var (
	_ Submitter = (*StoreQueue)(nil)
	_ Inspector = (*StoreQueue)(nil)
)

// StoreQueue is the store-backed execution queue. Submit persists the job
// in pending state for the worker pool to dequeue; WatchJob polls the store
// until the job reaches a terminal state.
type StoreQueue struct {
	store      job.Store
	extensions *ext.Registry
	logger     *slog.Logger
}

// NewStoreQueue creates a StoreQueue. extensions may be nil.
func NewStoreQueue(store job.Store, extensions *ext.Registry, logger *slog.Logger) *StoreQueue {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreQueue{store: store, extensions: extensions, logger: logger}
}

// Submit persists the job in pending state. Missing descriptor fields are
// filled with defaults; the returned job is the live handle. Jobs already
// carrying a state other than pending are rejected: state transitions
// belong to the worker pool.
func (q *StoreQueue) Submit(ctx context.Context, j *job.Job) (*job.Job, error) {
	if j.ID.IsNil() {
		j.ID = id.NewJobID()
	}
	switch j.State {
	case "":
		j.State = job.StatePending
	case job.StatePending:
	default:
		return nil, fmt.Errorf("submit job %q in state %s: %w",
			j.Name, j.State, ecomentor.ErrInvalidState)
	}
	if j.Queue == "" {
		j.Queue = ecomentor.QueueDefault
	}
	now := time.Now().UTC()
	if j.CreatedAt.IsZero() {
		j.Entity = ecomentor.NewEntity()
	}
	if j.RunAt.IsZero() {
		j.RunAt = now
	}

	if err := q.store.EnqueueJob(ctx, j); err != nil {
		return nil, fmt.Errorf("submit job %q: %w", j.Name, err)
	}

	if q.extensions != nil {
		q.extensions.EmitJobEnqueued(ctx, j)
	}
	return j, nil
}

// WatchJob polls the store until the job reaches a terminal state, the
// timeout elapses, or the context is cancelled. On timeout the last
// observed state is returned together with ecomentor.ErrWaitTimeout.
func (q *StoreQueue) WatchJob(ctx context.Context, jobID id.JobID, opts WatchOpts) (job.State, error) {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 500 * time.Millisecond
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Minute
	}

	deadline := time.Now().Add(opts.Timeout)
	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	last := job.StatePending
	for {
		j, err := q.store.GetJob(ctx, jobID)
		if err != nil {
			return last, fmt.Errorf("watch job %s: %w", jobID, err)
		}
		last = j.State
		if last.Terminal() {
			return last, nil
		}

		if time.Now().After(deadline) {
			return last, fmt.Errorf("watch job %s after %s in state %q: %w",
				jobID, opts.Timeout, last, ecomentor.ErrWaitTimeout)
		}

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-ticker.C:
		}
	}
}
