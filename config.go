package ecomentor

import "time"

// Config holds process-wide configuration for the job and search-sync
// subsystems. It is read once at construction and never mutated afterwards.
type Config struct {
	// BufferUpdates controls whether search index updates are routed
	// through job buffers instead of being enqueued immediately.
	BufferUpdates bool

	// PollInterval is how often a completion wait polls the job store
	// while watching a submitted job for a terminal state.
	PollInterval time.Duration

	// WaitTimeout bounds how long a completion wait may block before
	// giving up and proceeding with degraded ordering.
	WaitTimeout time.Duration

	// Concurrency is the maximum number of jobs processed concurrently
	// by the worker pool.
	Concurrency int

	// Queues is the list of queues the worker pool will poll.
	Queues []string

	// PollJobsInterval is how often worker goroutines poll for new jobs.
	PollJobsInterval time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BufferUpdates:    true,
		PollInterval:     500 * time.Millisecond,
		WaitTimeout:      3 * time.Minute,
		Concurrency:      10,
		Queues:           []string{QueueSearchIndex, QueueDefault},
		PollJobsInterval: time.Second,
		ShutdownTimeout:  30 * time.Second,
	}
}

// Queue names used across the platform.
const (
	// QueueDefault is the catch-all queue for background work.
	QueueDefault = "default"

	// QueueSearchIndex carries search index update jobs.
	QueueSearchIndex = "search-index"
)
