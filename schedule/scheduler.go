package schedule

import (
	"context"
	"fmt"
	"log/slog"

	cronlib "github.com/robfig/cron/v3"

	"github.com/nicholidev/eco-mentor/job"
	"github.com/nicholidev/eco-mentor/queue"
	"github.com/nicholidev/eco-mentor/search"
)

// BuildFunc produces a fresh job descriptor for one scheduler tick.
// Identity fields are left empty; the submitter fills them on enqueue.
type BuildFunc func() (*job.Job, error)

// ReindexEntry returns a builder for a full reindex of the given sales
// channel. An empty language code covers every language on the channel.
func ReindexEntry(channelID, languageCode string) BuildFunc {
	return func() (*job.Job, error) {
		return search.NewJob(search.OpReindex, search.Payload{}, channelID, languageCode)
	}
}

// cronParser supports standard 5-field cron and descriptors like "@every 30m".
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor,
)

// ParseSpec validates a cron expression without registering an entry.
func ParseSpec(expr string) (cronlib.Schedule, error) {
	return cronParser.Parse(expr)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the scheduler's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// Scheduler fires registered entries on their cron schedule and submits
// the built jobs to the execution queue.
type Scheduler struct {
	q      queue.Submitter
	cron   *cronlib.Cron
	logger *slog.Logger
}

// NewScheduler creates a Scheduler submitting to q. Call [Scheduler.Add]
// for each entry, then [Scheduler.Start].
func NewScheduler(q queue.Submitter, opts ...Option) *Scheduler {
	s := &Scheduler{
		q:    q,
		cron: cronlib.New(cronlib.WithParser(cronParser)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Add registers a recurring entry. The name identifies the entry in logs;
// spec is a cron expression.
func (s *Scheduler) Add(name, spec string, build BuildFunc) error {
	if _, err := ParseSpec(spec); err != nil {
		return fmt.Errorf("schedule %q: parse spec %q: %w", name, spec, err)
	}
	_, err := s.cron.AddFunc(spec, func() {
		s.fire(context.Background(), name, build)
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", name, err)
	}
	return nil
}

func (s *Scheduler) fire(ctx context.Context, name string, build BuildFunc) {
	j, err := build()
	if err != nil {
		s.logger.Error("schedule: build job failed", "entry", name, "error", err)
		return
	}
	submitted, err := s.q.Submit(ctx, j)
	if err != nil {
		s.logger.Error("schedule: submit failed", "entry", name, "job_name", j.Name, "error", err)
		return
	}
	s.logger.Info("schedule: entry fired",
		"entry", name, "job_id", submitted.ID, "job_name", submitted.Name)
}

// Start begins firing entries. It returns immediately.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the tick loop and waits for in-flight fires to finish, or
// for ctx to expire, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
