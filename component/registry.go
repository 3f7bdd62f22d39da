package component

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/mysqlsvc/logger"
)

// DefaultStopTimeout bounds the context handed to each component's Stop.
const DefaultStopTimeout = 10 * time.Second

// componentEntry holds a component and its started state.
type componentEntry struct {
	component Component
	started   bool
}

// Registry manages component lifecycle with deterministic ordering.
// Components are started in registration order and stopped in reverse order.
// Lifecycle operations are serialised; health and status reads only take
// the registry lock long enough to snapshot the entries.
type Registry struct {
	entries []*componentEntry
	lookup  map[string]*componentEntry
	mu      sync.RWMutex
	opMu    sync.Mutex
	log     *logger.Logger
}

// NewRegistry creates a new component registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make([]*componentEntry, 0),
		lookup:  make(map[string]*componentEntry),
		log:     logger.WithComponent("registry"),
	}
}

// WithLogger replaces the registry logger.
func (r *Registry) WithLogger(l *logger.Logger) *Registry {
	r.log = l.WithComponent("registry")
	return r
}

// Register adds a component to the registry. Components are started in
// the order they are registered, so register dependencies first.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, exists := r.lookup[name]; exists {
		return fmt.Errorf("component %s already registered", name)
	}

	entry := &componentEntry{component: c}
	r.entries = append(r.entries, entry)
	r.lookup[name] = entry

	r.log.Debug("Component registered", map[string]interface{}{
		"component": name,
	})
	return nil
}

// StartAll starts all components in registration order. It stops at the
// first failure; components started before it stay started so StopAll can
// release them.
func (r *Registry) StartAll(ctx context.Context) error {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	entries := r.snapshot()
	r.log.Info("Starting all components", map[string]interface{}{
		"count": len(entries),
	})

	for _, entry := range entries {
		if r.isStarted(entry) {
			continue
		}
		name := entry.component.Name()

		r.log.Debug("Starting component", map[string]interface{}{"component": name})
		if err := entry.component.Start(ctx); err != nil {
			r.log.Error("Component start failed", map[string]interface{}{
				"component": name,
				"error":     err.Error(),
			})
			return fmt.Errorf("failed to start %s: %w", name, err)
		}

		r.setStarted(entry, true)
		r.log.Debug("Component started", map[string]interface{}{"component": name})
	}

	r.log.Info("All components started successfully")
	return nil
}

// StopAll gracefully stops all started components in reverse registration order.
// Each Stop gets a context bounded by DefaultStopTimeout; the bound only
// applies to components that honour ctx.
func (r *Registry) StopAll(ctx context.Context) error {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	r.log.Info("Stopping all components")

	entries := r.snapshot()
	var errs []error
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		if !r.isStarted(entry) {
			continue
		}

		name := entry.component.Name()
		r.log.Debug("Stopping component", map[string]interface{}{"component": name})

		stopCtx, cancel := context.WithTimeout(ctx, DefaultStopTimeout)
		err := entry.component.Stop(stopCtx)
		cancel()
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to stop %s: %w", name, err))
			r.log.Error("Component stop failed", map[string]interface{}{
				"component": name,
				"error":     err.Error(),
			})
			continue
		}
		r.setStarted(entry, false)
		r.log.Info("Component stopped", map[string]interface{}{"component": name})
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	r.log.Info("All components stopped successfully")
	return nil
}

// HealthAll returns health status for all registered components.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	entries := r.snapshot()
	results := make([]Health, 0, len(entries))
	for _, entry := range entries {
		results = append(results, entry.component.Health(ctx))
	}
	return results
}

// StatusAll returns lifecycle status for all registered components.
// Components that do not implement StatusReporter are reported from the
// registry's own view: running once started, stopped otherwise.
func (r *Registry) StatusAll(ctx context.Context) []Status {
	entries := r.snapshot()
	results := make([]Status, 0, len(entries))
	for _, entry := range entries {
		if sr, ok := entry.component.(StatusReporter); ok {
			results = append(results, sr.Status(ctx))
			continue
		}
		state := StateStopped
		if r.isStarted(entry) {
			state = StateRunning
		}
		results = append(results, Status{Name: entry.component.Name(), State: state})
	}
	return results
}

// Get returns a registered component by name, or nil if not found.
func (r *Registry) Get(name string) Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry, exists := r.lookup[name]; exists {
		return entry.component
	}
	return nil
}

// All returns all registered components in registration order.
func (r *Registry) All() []Component {
	entries := r.snapshot()
	result := make([]Component, 0, len(entries))
	for _, entry := range entries {
		result = append(result, entry.component)
	}
	return result
}

func (r *Registry) snapshot() []*componentEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*componentEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *Registry) isStarted(e *componentEntry) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return e.started
}

func (r *Registry) setStarted(e *componentEntry, started bool) {
	r.mu.Lock()
	e.started = started
	r.mu.Unlock()
}
