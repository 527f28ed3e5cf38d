// Package cache provides a typed TTL cache over patrickmn/go-cache.
package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is a concurrency safe string keyed store whose entries expire.
type Cache[V any] struct {
	store *gocache.Cache
}

// New creates a cache whose janitor sweeps expired entries every
// cleanupInterval. A zero interval disables the janitor.
func New[V any](cleanupInterval time.Duration) *Cache[V] {
	return &Cache[V]{
		store: gocache.New(gocache.NoExpiration, cleanupInterval),
	}
}

// Get returns the value for key if present and not expired.
func (c *Cache[V]) Get(_ context.Context, key string) (V, bool) {
	var zero V

	raw, ok := c.store.Get(key)
	if !ok {
		return zero, false
	}
	v, ok := raw.(V)
	if !ok {
		return zero, false
	}
	return v, true
}

// Set stores value for ttl. A non-positive ttl never expires.
func (c *Cache[V]) Set(_ context.Context, key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	c.store.Set(key, value, ttl)
}

func (c *Cache[V]) Delete(_ context.Context, key string) {
	c.store.Delete(key)
}

// Len counts stored entries, including expired ones the janitor has not
// swept yet.
func (c *Cache[V]) Len() int {
	return c.store.ItemCount()
}

// DeleteExpired sweeps expired entries now.
func (c *Cache[V]) DeleteExpired() {
	c.store.DeleteExpired()
}

// Close drops every entry. The go-cache janitor stops once the cache is
// unreachable.
func (c *Cache[V]) Close() {
	c.store.Flush()
}
