// Package cache is a small in-memory TTL cache, safe for concurrent use.
package cache

import (
	"sync"
	"time"
)

type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
}

type entry[V any] struct {
	value V
	exp   time.Time
}

func New[V any]() *Cache[V] {
	return &Cache[V]{
		entries: make(map[string]entry[V]),
	}
}

// Set stores value under key until ttl has elapsed. A non-positive ttl stores
// an entry that's already expired.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	e := entry[V]{
		value: value,
		exp:   time.Now().Add(ttl),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = e
}

// Get returns the value stored under key and whether it was present and unexpired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var val V

	e, ok := c.entries[key]
	if !ok {
		return val, false
	}

	// Present and unexpired
	if time.Now().Before(e.exp) {
		return e.value, true
	}

	// Expired
	delete(c.entries, key)
	return val, false
}

// Clean removes all expired entries and returns how many were removed.
func (c *Cache[V]) Clean() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	n := 0
	for k, e := range c.entries {
		if !now.Before(e.exp) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
