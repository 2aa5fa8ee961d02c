package replay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	ecomentor "github.com/nicholidev/eco-mentor"
	"github.com/nicholidev/eco-mentor/id"
	"github.com/nicholidev/eco-mentor/job"
)

// ErrNotFailed is returned when the job to replay or purge is not in the
// failed state.
var ErrNotFailed = errors.New("ecomentor/replay: job is not in failed state")

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// Service lists and re-enqueues failed jobs.
type Service struct {
	store  job.Store
	logger *slog.Logger
}

// NewService creates a replay service over the given job store.
func NewService(store job.Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// ListFailed returns failed jobs matching opts, newest failures included.
func (s *Service) ListFailed(ctx context.Context, opts job.ListOpts) ([]*job.Job, error) {
	return s.store.ListJobsByState(ctx, job.StateFailed, opts)
}

// CountFailed returns the number of failed jobs on the given queue. An
// empty queue counts all queues.
func (s *Service) CountFailed(ctx context.Context, queue string) (int64, error) {
	return s.store.CountJobs(ctx, job.CountOpts{Queue: queue, State: job.StateFailed})
}

// Replay re-enqueues a failed job as a fresh pending job and deletes the
// failed original. The new job keeps the payload, queue, priority, retry
// budget, and channel scope, gets a new ID and a zero retry count, and
// runs immediately.
func (s *Service) Replay(ctx context.Context, jobID id.JobID) (*job.Job, error) {
	failed, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if failed.State != job.StateFailed {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotFailed, jobID, failed.State)
	}

	fresh := &job.Job{
		Entity:       ecomentor.NewEntity(),
		ID:           id.NewJobID(),
		Name:         failed.Name,
		Queue:        failed.Queue,
		Payload:      failed.Payload,
		State:        job.StatePending,
		Priority:     failed.Priority,
		MaxRetries:   failed.MaxRetries,
		ChannelID:    failed.ChannelID,
		LanguageCode: failed.LanguageCode,
		RunAt:        time.Now().UTC(),
		Timeout:      failed.Timeout,
	}
	if err := s.store.EnqueueJob(ctx, fresh); err != nil {
		return nil, err
	}

	if err := s.store.DeleteJob(ctx, jobID); err != nil {
		// The replacement is already enqueued; leaving the original
		// behind only costs a duplicate listing.
		s.logger.Warn("replay: delete original failed job",
			"job_id", jobID, "error", err)
	}

	s.logger.Info("replay: job re-enqueued",
		"failed_job_id", jobID, "job_id", fresh.ID, "job_name", fresh.Name)
	return fresh, nil
}

// ReplayAll re-enqueues every failed job on the given queue. An empty
// queue covers all queues. It returns the number of jobs replayed; on
// error the jobs replayed so far stay enqueued.
func (s *Service) ReplayAll(ctx context.Context, queue string) (int, error) {
	failed, err := s.store.ListJobsByState(ctx, job.StateFailed, job.ListOpts{Queue: queue})
	if err != nil {
		return 0, err
	}
	for n, j := range failed {
		if _, err := s.Replay(ctx, j.ID); err != nil {
			return n, err
		}
	}
	return len(failed), nil
}

// Purge deletes failed jobs whose last run completed before the given
// time and returns how many were removed.
func (s *Service) Purge(ctx context.Context, before time.Time) (int, error) {
	failed, err := s.store.ListJobsByState(ctx, job.StateFailed, job.ListOpts{})
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, j := range failed {
		if j.CompletedAt == nil || !j.CompletedAt.Before(before) {
			continue
		}
		if err := s.store.DeleteJob(ctx, j.ID); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
