// Package cache provides the in-process TTL cache and token metadata caches.
package cache

import (
	"sync"
	"time"
)

// Entry wraps a cached value with its creation time.
type Entry[V any] struct {
	Value     V
	CreatedAt time.Time
}

// TTLCache is a mutex-guarded map whose entries are valid while now - CreatedAt < ttl.
// A ttl of zero or less never expires entries.
type TTLCache[V any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]Entry[V]
}

// NewTTL creates a TTLCache. A nil clock uses time.Now.
func NewTTL[V any](ttl time.Duration, clock func() time.Time) *TTLCache[V] {
	if clock == nil {
		clock = time.Now
	}
	return &TTLCache[V]{
		ttl:     ttl,
		now:     clock,
		entries: make(map[string]Entry[V]),
	}
}

// Get returns the value for key if a valid entry exists.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || !c.valid(e) {
		var zero V
		return zero, false
	}
	return e.Value, true
}

// Set stores value under key, replacing any previous entry.
func (c *TTLCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = Entry[V]{Value: value, CreatedAt: c.now()}
}

// Delete removes key.
func (c *TTLCache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Len returns the number of stored entries, expired ones included.
func (c *TTLCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Prune removes expired entries and returns how many were removed.
func (c *TTLCache[V]) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, e := range c.entries {
		if !c.valid(e) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

func (c *TTLCache[V]) valid(e Entry[V]) bool {
	if c.ttl <= 0 {
		return true
	}
	return c.now().Sub(e.CreatedAt) < c.ttl
}
