package cache

import (
	"sync"
	"time"
)

// entry stores one cached value with its absolute expiry.
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// -----------------------------------------------------------------------------
// Cache is a TTL key-value store with lazy expiry on read. There is no
// background sweeper: entry count is bounded by the set of actively
// requested symbols. Values are whole-value replaced, never patched, so a
// single mutex around get/set is enough.
// -----------------------------------------------------------------------------

type Cache[V any] struct {
	mu    sync.Mutex
	items map[string]entry[V]
	now   func() time.Time
}

// -----------------------------------------------------------------------------

func New[V any]() *Cache[V] {
	return &Cache[V]{
		items: make(map[string]entry[V]),
		now:   time.Now,
	}
}

// -----------------------------------------------------------------------------

// Get returns the value for key if present and not expired. Expired entries
// are deleted on the spot.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.items, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// -----------------------------------------------------------------------------

// Set stores value under key for ttl, overwriting any previous entry.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry[V]{value: value, expiresAt: c.now().Add(ttl)}
}

// -----------------------------------------------------------------------------

func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// -----------------------------------------------------------------------------

// Len counts stored entries, expired ones included until a read evicts them.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
