// Package cache provides a generic size-bounded TTL cache
package cache

import (
	"time"

	"github.com/bluele/gcache"
)

// Cache is a thread-safe LRU cache with TTL expiration
type Cache[T any] struct {
	lru gcache.Cache
}

// New creates a cache holding at most size entries, each for ttl
func New[T any](size int, ttl time.Duration) *Cache[T] {
	if size <= 0 {
		size = 1
	}
	b := gcache.New(size).LRU()
	if ttl > 0 {
		b = b.Expiration(ttl)
	}
	return &Cache[T]{lru: b.Build()}
}

// Get retrieves a value, returning (value, true) if found and not expired
func (c *Cache[T]) Get(key string) (T, bool) {
	var zero T

	v, err := c.lru.Get(key)
	if err != nil {
		return zero, false
	}
	value, ok := v.(T)
	if !ok {
		return zero, false
	}
	return value, true
}

// Set stores a value with the cache's TTL
func (c *Cache[T]) Set(key string, value T) {
	_ = c.lru.Set(key, value)
}

// GetOrCompute returns the cached value for key, computing and storing it
// on a miss. Concurrent misses may compute more than once.
func (c *Cache[T]) GetOrCompute(key string, compute func() T) T {
	if v, ok := c.Get(key); ok {
		return v
	}
	v := compute()
	c.Set(key, v)
	return v
}

// Clear removes all items from the cache
func (c *Cache[T]) Clear() {
	c.lru.Purge()
}

// Size returns the number of unexpired items
func (c *Cache[T]) Size() int {
	return c.lru.Len(false)
}

// HitRate returns the fraction of lookups served from the cache
func (c *Cache[T]) HitRate() float64 {
	return c.lru.HitRate()
}
