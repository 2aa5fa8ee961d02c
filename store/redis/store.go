package redis

import (
	"context"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/nicholidev/eco-mentor/store"
)

var _ store.Store = (*Store)(nil)

// Store is a Redis-backed job store.
type Store struct {
	client goredis.Cmdable
	logger *slog.Logger
}

// Option configures the store.
type Option func(*Store)

// WithLogger sets the logger used by the store.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a store on top of an existing Redis client. The client may
// be a single-node client, a cluster client, or anything else that
// satisfies redis.Cmdable.
func New(client goredis.Cmdable, opts ...Option) *Store {
	s := &Store{
		client: client,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Client returns the underlying Redis client.
func (s *Store) Client() goredis.Cmdable {
	return s.client
}

// Migrate is a no-op; Redis needs no schema.
func (s *Store) Migrate(ctx context.Context) error {
	return nil
}

// Ping verifies connectivity to Redis.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ecomentor/redis: ping: %w", err)
	}
	return nil
}

// Close is a no-op; the caller owns the client's lifecycle.
func (s *Store) Close() error {
	return nil
}
