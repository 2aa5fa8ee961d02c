// Package store defines the aggregate persistence interface. The job
// subsystem defines its own store interface; the composite Store adds the
// backend lifecycle on top. Backends: Memory, Redis, and Bun (PostgreSQL).
package store

import (
	"context"

	"github.com/nicholidev/eco-mentor/job"
)

// Store is the aggregate persistence interface. A single backend (memory,
// redis, bun) implements the job store plus the lifecycle methods.
type Store interface {
	job.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
