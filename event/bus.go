// Package event provides the in-process domain event bus. Services publish
// domain events (catalog changed, collection modified, tax rate changed) and
// subscribers react to them — most notably the search sync subscriber that
// translates events into index update jobs.
package event

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
)

// Event is a domain event published on the bus. Kind identifies the event
// type and is the subscription key.
type Event interface {
	Kind() string
}

// Handler processes a published event. Handlers run synchronously on the
// publisher's goroutine, so they should be fast and hand heavy work to the
// job queue.
type Handler func(ctx context.Context, evt Event)

// Bus is a topic-keyed publish/subscribe registry for domain events.
// It is safe for concurrent use.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *slog.Logger
}

// NewBus creates an empty event bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for the given event kind. Handlers for the
// same kind are invoked in subscription order.
func (b *Bus) Subscribe(kind string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], h)
}

// Publish delivers the event to every handler subscribed to its kind.
// A panicking handler is recovered and logged; remaining handlers still run.
func (b *Bus) Publish(ctx context.Context, evt Event) {
	b.mu.RLock()
	hs := b.handlers[evt.Kind()]
	b.mu.RUnlock()

	for _, h := range hs {
		b.invoke(ctx, evt, h)
	}
}

func (b *Bus) invoke(ctx context.Context, evt Event, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				slog.String("event_kind", evt.Kind()),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	h(ctx, evt)
}

// SubscriberCount returns how many handlers are subscribed to a kind.
// Introspection only, used by health endpoints and tests.
func (b *Bus) SubscriberCount(kind string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[kind])
}
