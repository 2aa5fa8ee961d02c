// Package queue provides the execution queue surface: submission of jobs
// to a store-backed queue, optional completion inspection, and per-queue /
// per-channel rate limiting.
//
// # Submission and Inspection
//
// [StoreQueue] is the live execution queue. Producers (directly or through
// the buffer registry) call Submit; the worker pool dequeues and executes.
// StoreQueue also implements [Inspector], a bounded polling wait used when
// a caller needs to know a submitted job has reached a terminal state:
//
//	state, err := q.WatchJob(ctx, j.ID, queue.WatchOpts{
//	    PollInterval: 500 * time.Millisecond,
//	    Timeout:      3 * time.Minute,
//	})
//
// Not every queue implementation can observe job progress; callers must
// probe for the Inspector capability and degrade to fire-and-forget when
// it is absent.
//
// # Per-Queue Configuration
//
// Use [Config] to set per-queue rate limits and concurrency caps:
//
//	queue.Config{
//	    Name:           "search-index",
//	    MaxConcurrency: 5,      // max 5 concurrent index jobs
//	    RateLimit:      10,     // max 10 jobs/s dequeued from this queue
//	    RateBurst:      20,     // allow bursts up to 20
//	}
//
// # Manager
//
// [Manager] enforces per-queue and per-channel limits at dequeue time.
// It uses a token-bucket rate limiter (golang.org/x/time/rate) and an
// active-count gate for concurrency limits.
//
//	m := queue.NewManager(configs...)
//	if m.Acquire(queueName, channelID) {
//	    defer m.Release(queueName, channelID)
//	    // process the job
//	}
//
// Queues without a [Config] have no limits beyond the pool-wide concurrency.
package queue
