// Package idempotency holds a TTL keyed result cache used to suppress
// duplicate checkout submissions. Entries expire lazily: a read that
// finds an expired entry deletes it and reports a miss, so no background
// sweep is needed.
package idempotency

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache maps an opaque client-supplied key to a cached result. Safe for
// concurrent use. Two requests racing on a fresh key may both proceed;
// this is a best-effort de-dup window, not a lock. Once Put returns,
// every Get for that key observes the value until expiry.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	now     func() time.Time
}

func New[V any]() *Cache[V] {
	return &Cache[V]{
		entries: make(map[string]entry[V]),
		now:     time.Now,
	}
}

// Get returns the cached value for key. An expired entry is removed and
// reported as a miss.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !e.expiresAt.After(c.now()) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Put stores value under key for ttl.
func (c *Cache[V]) Put(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
}

// Len reports the number of live and not-yet-collected entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
