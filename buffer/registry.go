package buffer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	ecomentor "github.com/nicholidev/eco-mentor"
	"github.com/nicholidev/eco-mentor/job"
)

// Submitter hands a job to the real execution queue. Defined locally so the
// buffer package does not depend on the queue package; queue.StoreQueue
// satisfies it.
type Submitter interface {
	Submit(ctx context.Context, j *job.Job) (*job.Job, error)
}

// FlushObserver is notified after each buffer flush. Defined locally for the
// same reason; ext.Registry satisfies it.
type FlushObserver interface {
	EmitBufferFlushed(ctx context.Context, bufferID string, held, emitted int)
}

// Registry owns the set of active buffers and coordinates flushing. Job
// producers call Submit; ops tooling calls Sizes and Flush.
//
// Emitted jobs are at-most-once: if submission of collected jobs partially
// fails mid-flush, the successfully submitted jobs are not re-submitted
// later and the buffer is still cleared. Buffered jobs represent
// re-derivable index invalidation, so the next domain event re-triggers the
// missed work; callers needing stronger guarantees should not buffer.
type Registry struct {
	queue    Submitter
	logger   *slog.Logger
	observer FlushObserver

	mu      sync.RWMutex
	buffers []Buffer          // registration order, drives Submit iteration
	byID    map[string]Buffer // identity → buffer
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithObserver sets the flush observer notified after each buffer flush.
func WithObserver(o FlushObserver) RegistryOption {
	return func(r *Registry) { r.observer = o }
}

// NewRegistry creates a buffer registry submitting unbuffered jobs to queue.
func NewRegistry(queue Submitter, logger *slog.Logger, opts ...RegistryOption) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		queue:  queue,
		logger: logger,
		byID:   make(map[string]Buffer),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a buffer keyed by its ID. Registering a second buffer with
// the same ID replaces the prior registration; this is logged as unusual
// but is not an error.
func (r *Registry) Register(b Buffer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[b.ID()]; exists {
		r.logger.Warn("replacing already registered job buffer",
			slog.String("buffer_id", b.ID()),
		)
		for i, existing := range r.buffers {
			if existing.ID() == b.ID() {
				r.buffers[i] = b
				break
			}
		}
	} else {
		r.buffers = append(r.buffers, b)
	}
	r.byID[b.ID()] = b
}

// Submit routes a job through the registered buffers. The first buffer (in
// registration order) whose Accepts returns true holds the job and buffered
// is true; the job does not reach the execution queue. If no buffer accepts,
// the job is submitted directly and the live handle is returned.
func (r *Registry) Submit(ctx context.Context, j *job.Job) (submitted *job.Job, buffered bool, err error) {
	r.mu.RLock()
	buffers := r.buffers
	r.mu.RUnlock()

	for _, b := range buffers {
		if b.Accepts(j) {
			b.Add(j)
			return j, true, nil
		}
	}

	live, err := r.queue.Submit(ctx, j)
	if err != nil {
		return nil, false, err
	}
	return live, false, nil
}

// Sizes returns the held-job count per buffer ID. With no IDs given it
// reports all registered buffers. Unknown IDs are omitted from the result.
// Introspection only; buffer state is not mutated.
func (r *Registry) Sizes(ids ...string) map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sizes := make(map[string]int)
	if len(ids) == 0 {
		for _, b := range r.buffers {
			sizes[b.ID()] = b.Size()
		}
		return sizes
	}
	for _, bufID := range ids {
		if b, ok := r.byID[bufID]; ok {
			sizes[b.ID()] = b.Size()
		}
	}
	return sizes
}

// Flush drains the named buffers (or all, if none named), collapses each
// drained batch via Collect, and submits the resulting jobs to the
// execution queue. It returns every job that was successfully submitted.
//
// A Collect error restores the drained batch so it is retried on the next
// flush. Submission errors do not restore: the batch stays cleared and the
// error is reported (see the at-most-once note on Registry).
func (r *Registry) Flush(ctx context.Context, ids ...string) ([]*job.Job, error) {
	targets, err := r.resolve(ids)
	if err != nil {
		return nil, err
	}

	var (
		emitted []*job.Job
		errs    []error
	)
	for _, b := range targets {
		jobs, flushErr := r.flushOne(ctx, b)
		emitted = append(emitted, jobs...)
		if flushErr != nil {
			errs = append(errs, flushErr)
		}
	}
	return emitted, errors.Join(errs...)
}

// resolve maps buffer IDs to registered buffers, failing on unknown IDs.
func (r *Registry) resolve(ids []string) ([]Buffer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(ids) == 0 {
		return r.buffers, nil
	}
	targets := make([]Buffer, 0, len(ids))
	for _, bufID := range ids {
		b, ok := r.byID[bufID]
		if !ok {
			return nil, fmt.Errorf("flush buffer %q: %w", bufID, ecomentor.ErrBufferNotFound)
		}
		targets = append(targets, b)
	}
	return targets, nil
}

func (r *Registry) flushOne(ctx context.Context, b Buffer) ([]*job.Job, error) {
	batch := b.Drain()
	if len(batch) == 0 {
		return nil, nil
	}

	collected, err := b.Collect(ctx, batch)
	if err != nil {
		// The batch was never handed off; put it back for the next flush.
		b.Restore(batch)
		return nil, fmt.Errorf("collect buffer %q: %w", b.ID(), err)
	}

	var (
		submitted []*job.Job
		errs      []error
	)
	for _, j := range collected {
		live, submitErr := r.queue.Submit(ctx, j)
		if submitErr != nil {
			r.logger.Error("failed to submit collected job",
				slog.String("buffer_id", b.ID()),
				slog.String("job_name", j.Name),
				slog.String("error", submitErr.Error()),
			)
			errs = append(errs, fmt.Errorf("submit collected job %q: %w", j.Name, submitErr))
			continue
		}
		submitted = append(submitted, live)
	}

	r.logger.Debug("flushed job buffer",
		slog.String("buffer_id", b.ID()),
		slog.Int("held", len(batch)),
		slog.Int("emitted", len(submitted)),
	)
	if r.observer != nil {
		r.observer.EmitBufferFlushed(ctx, b.ID(), len(batch), len(submitted))
	}
	return submitted, errors.Join(errs...)
}
