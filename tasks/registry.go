// Package tasks runs background work either eagerly, in the caller's
// goroutine, or by publishing it to a broker queue for a worker.
// celery.always_eager selects the mode.
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// ErrUnknownTask is returned when dispatching or handling an unregistered task name.
var ErrUnknownTask = errors.New("tasks: unknown task")

// Handler runs one task. payload is the JSON encoding of the value passed
// to Dispatcher.Delay, in both eager and queued modes.
type Handler func(ctx context.Context, payload json.RawMessage) error

// Registry maps task names to handlers. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a handler. Names must be unique.
func (r *Registry) Register(name string, h Handler) error {
	if name == "" {
		return fmt.Errorf("tasks: task name is required")
	}
	if h == nil {
		return fmt.Errorf("tasks: handler for %q is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("tasks: %q already registered", name)
	}
	r.handlers[name] = h
	return nil
}

// Lookup returns the handler registered under name.
func (r *Registry) Lookup(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Names returns the registered task names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.handlers))
}
