// Package cache provides a generic TTL cache shared by the weather,
// lookup, and advisory layers.
package cache

import (
	"sync"
	"time"
)

// TTL implements a concurrency-safe map cache with per-entry expiry.
type TTL[K comparable, V any] struct {
	entries    map[K]entry[V]
	defaultTTL time.Duration
	now        func() time.Time
	mu         sync.RWMutex
}

type entry[V any] struct {
	expiresAt time.Time
	value     V
}

// NewTTL creates a new TTL cache.
func NewTTL[K comparable, V any](defaultTTL time.Duration) *TTL[K, V] {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &TTL[K, V]{
		entries:    make(map[K]entry[V]),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Get retrieves a value from the cache. Expired entries are evicted and
// reported as absent; an entry is never served past its expiry.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores a value with the given TTL. A non-positive TTL falls back to
// the cache default.
func (c *TTL[K, V]) Set(key K, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, expiresAt: c.now().Add(ttl)}
}

// SetWithDefaultTTL stores a value using the default TTL.
func (c *TTL[K, V]) SetWithDefaultTTL(key K, value V) {
	c.Set(key, value, c.defaultTTL)
}

// Remove removes a specific entry from the cache.
func (c *TTL[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.entries[key]
	delete(c.entries, key)
	return ok
}

// Purge removes all entries and returns the number removed.
func (c *TTL[K, V]) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	c.entries = make(map[K]entry[V])
	return n
}

// Len returns the number of entries, including not-yet-evicted expired ones.
func (c *TTL[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
