package job

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// HandlerFunc is a type-erased job handler over raw JSON payload bytes.
// Typed definitions are converted to a HandlerFunc at registration time by
// closing over the decode step and the typed handler.
type HandlerFunc func(ctx context.Context, payload []byte) error

// Definition binds a job name to a typed handler. T is the payload shape
// carried by jobs of this name; the registry decodes the raw bytes into T
// before the handler runs, so index handlers receive structured entity id
// sets rather than JSON. Opts fix the queue, retry budget, priority, and
// timeout that jobs enqueued under this name start from.
type Definition[T any] struct {
	// Name is the job name producers enqueue under and workers dispatch on.
	Name string

	// Handler processes one decoded payload.
	Handler func(ctx context.Context, payload T) error

	// Opts are the enqueue defaults for this job type.
	Opts Options
}

// NewDefinition creates a typed job definition with DefaultOptions applied
// first, then the given options in order.
func NewDefinition[T any](name string, handler func(ctx context.Context, payload T) error, opts ...Option) *Definition[T] {
	def := &Definition[T]{
		Name:    name,
		Handler: handler,
		Opts:    DefaultOptions(),
	}
	for _, opt := range opts {
		opt(&def.Opts)
	}
	return def
}

// Registry maps job names to type-erased handler functions.
// It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewRegistry creates an empty job registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]HandlerFunc),
	}
}

// RegisterDefinition registers a typed job definition. The typed handler
// is wrapped in a closure that JSON-unmarshals the payload into T before
// calling it. An empty payload decodes to the zero T, which is what
// reindex jobs carry.
//
// This is a package-level generic function because Go does not allow
// generic methods on non-generic receiver types.
func RegisterDefinition[T any](r *Registry, def *Definition[T]) {
	handler := func(ctx context.Context, payload []byte) error {
		var t T
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &t); err != nil {
				return fmt.Errorf("unmarshal payload for job %q: %w", def.Name, err)
			}
		}
		return def.Handler(ctx, t)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[def.Name] = handler
}

// RegisterFunc registers a raw handler under the given name. Used where
// the payload is decoded by hand or ignored.
func (r *Registry) RegisterFunc(name string, h HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
}

// Get returns the handler for the given job name.
// Returns false if no handler is registered.
func (r *Registry) Get(name string) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Names returns all registered job names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}
