// Package buffer implements job buffering: named interceptors that claim
// matching job submissions before they reach the execution queue, hold them
// in memory, and collapse the held batch into a minimal set of jobs when
// flushed.
//
// A Buffer never executes jobs. It only classifies (Accepts), accumulates
// (Add), and reduces (Collect). The Registry owns the set of active buffers
// and coordinates flushing.
package buffer

import (
	"context"
	"sync"

	"github.com/nicholidev/eco-mentor/job"
)

// Buffer intercepts job submissions of a particular kind.
//
// Accepts must be a pure, deterministic predicate. Collect must be a pure
// function of its input batch so reducers are independently testable: the
// same batch always collapses to an equivalent job set. Two buffers must
// not both accept the same job; the Registry resolves such a conflict by
// registration order but treats it as a configuration error.
type Buffer interface {
	// ID is the stable name distinguishing this buffer from all others.
	ID() string

	// Accepts reports whether this buffer claims the given job.
	Accepts(j *job.Job) bool

	// Add appends an accepted job to the held batch.
	Add(j *job.Job)

	// Size returns the number of currently held jobs.
	Size() int

	// Drain atomically swaps the held batch for an empty one and returns
	// the previous contents in arrival order. Jobs added concurrently with
	// a drain land in the next batch.
	Drain() []*job.Job

	// Restore prepends jobs to the held batch, preserving their original
	// order ahead of anything added since the drain. Used to undo a drain
	// when a flush fails before the collected jobs were handed off.
	Restore(jobs []*job.Job)

	// Collect reduces a drained batch to the minimal set of jobs with the
	// same net effect. It must not mutate the input.
	Collect(ctx context.Context, batch []*job.Job) ([]*job.Job, error)
}

// Batch is a mutex-guarded, insertion-ordered job holding area meant to be
// embedded by Buffer implementations. The zero value is ready to use.
type Batch struct {
	mu   sync.Mutex
	jobs []*job.Job
}

// Add appends a job to the batch.
func (b *Batch) Add(j *job.Job) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jobs = append(b.jobs, j)
}

// Size returns the number of held jobs.
func (b *Batch) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.jobs)
}

// Drain swaps the held slice for nil and returns the previous contents.
func (b *Batch) Drain() []*job.Job {
	b.mu.Lock()
	defer b.mu.Unlock()
	drained := b.jobs
	b.jobs = nil
	return drained
}

// Restore puts drained jobs back at the front of the batch.
func (b *Batch) Restore(jobs []*job.Job) {
	if len(jobs) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	restored := make([]*job.Job, 0, len(jobs)+len(b.jobs))
	restored = append(restored, jobs...)
	restored = append(restored, b.jobs...)
	b.jobs = restored
}
