package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	ecomentor "github.com/nicholidev/eco-mentor"
	"github.com/nicholidev/eco-mentor/buffer"
	"github.com/nicholidev/eco-mentor/job"
	"github.com/nicholidev/eco-mentor/queue"
)

// Service orchestrates buffered search index updates. When
// Config.BufferUpdates is on it registers the collection filter buffer and
// the index update buffer with the registry, so subsequent search-index job
// submissions are intercepted; when off the Service is a cheap no-op and
// jobs execute immediately.
type Service struct {
	cfg      ecomentor.Config
	registry *buffer.Registry
	queue    queue.Submitter
	logger   *slog.Logger
}

// NewService wires the orchestrator. The buffers are registered immediately
// when cfg.BufferUpdates is set; ancestry may be nil (collection filter
// jobs then keep arrival order).
func NewService(cfg ecomentor.Config, registry *buffer.Registry, q queue.Submitter, ancestry Ancestry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		cfg:      cfg,
		registry: registry,
		queue:    q,
		logger:   logger,
	}
	if cfg.BufferUpdates {
		registry.Register(NewCollectionFilterBuffer(ancestry))
		registry.Register(NewUpdateIndexBuffer())
	}
	return s
}

// PendingUpdates returns the number of buffered search index updates.
// With buffering off nothing could be pending, so it returns 0 immediately.
// A buffer momentarily absent from the size map counts as 0.
func (s *Service) PendingUpdates(_ context.Context) (int, error) {
	if !s.cfg.BufferUpdates {
		return 0, nil
	}
	sizes := s.registry.Sizes(BufferCollectionFilters, BufferIndexUpdates)
	return sizes[BufferCollectionFilters] + sizes[BufferIndexUpdates], nil
}

// RunPendingUpdates flushes the buffered work in dependency order: the
// collection filter buffer first, then the index update buffer. Index
// update jobs read collection membership, so when the execution queue
// supports inspection each emitted collection job is awaited until it
// reaches a terminal state (bounded by Config.WaitTimeout, polling at
// Config.PollInterval) before the index buffer flushes. A wait timeout is
// logged as degraded ordering and execution proceeds. Without inspection
// the flushes still happen in sequence, best-effort only.
func (s *Service) RunPendingUpdates(ctx context.Context) error {
	if !s.cfg.BufferUpdates {
		return nil
	}

	collectionJobs, err := s.registry.Flush(ctx, BufferCollectionFilters)
	if err != nil {
		return fmt.Errorf("flush collection filter buffer: %w", err)
	}

	if inspector, ok := s.queue.(queue.Inspector); ok {
		for _, j := range collectionJobs {
			if err := s.awaitJob(ctx, inspector, j); err != nil {
				return err
			}
		}
	} else if len(collectionJobs) > 0 {
		s.logger.Debug("execution queue does not support inspection; flushing index updates without completion wait")
	}

	if _, err := s.registry.Flush(ctx, BufferIndexUpdates); err != nil {
		return fmt.Errorf("flush index update buffer: %w", err)
	}
	return nil
}

// awaitJob blocks until the job reaches a terminal state or the configured
// timeout elapses. Timeouts degrade ordering but do not abort the run;
// context cancellation does.
func (s *Service) awaitJob(ctx context.Context, inspector queue.Inspector, j *job.Job) error {
	state, err := inspector.WatchJob(ctx, j.ID, queue.WatchOpts{
		PollInterval: s.cfg.PollInterval,
		Timeout:      s.cfg.WaitTimeout,
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ecomentor.ErrWaitTimeout):
		s.logger.Warn("timed out waiting for collection filter job; index updates may read stale membership",
			slog.String("job_id", j.ID.String()),
			slog.String("job_state", string(state)),
			slog.Duration("timeout", s.cfg.WaitTimeout),
		)
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		s.logger.Warn("failed to observe collection filter job; proceeding",
			slog.String("job_id", j.ID.String()),
			slog.String("error", err.Error()),
		)
		return nil
	}
}
