// Package backoff tracks temporary unavailability windows for external
// providers. A provider that answered with a rate limit or server error is
// skipped entirely until its window passes.
package backoff

import (
	"log/slog"
	"sync"
	"time"
)

// Registry keeps a backoff deadline per provider name.
type Registry struct {
	deadlines map[string]time.Time
	now       func() time.Time
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		deadlines: make(map[string]time.Time),
		now:       time.Now,
	}
}

// Available reports whether the provider may be called. A provider with no
// recorded failure is always available.
func (r *Registry) Available(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	deadline, ok := r.deadlines[name]
	if !ok {
		return true
	}
	return !r.now().Before(deadline)
}

// MarkFailure puts the provider into backoff for the given duration.
func (r *Registry) MarkFailure(name string, d time.Duration) {
	if d <= 0 {
		return
	}

	r.mu.Lock()
	r.deadlines[name] = r.now().Add(d)
	r.mu.Unlock()

	slog.Warn("provider backoff enabled", "provider", name, "duration", d)
}

// Clear drops the backoff window for the provider, if any.
func (r *Registry) Clear(name string) {
	r.mu.Lock()
	delete(r.deadlines, name)
	r.mu.Unlock()
}
