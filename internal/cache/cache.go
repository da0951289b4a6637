package cache

import (
	"sync"
	"time"

	"github.com/Law-son/Smart-Ecommerce-System/internal/metrics"
)

// Cache is a point cache: presence means valid, entries only leave via
// Invalidate or Clear. Safe for concurrent use.
type Cache[K comparable, V any] struct {
	name    string
	mu      sync.RWMutex
	entries map[K]V
}

func New[K comparable, V any](name string) *Cache[K, V] {
	return &Cache[K, V]{
		name:    name,
		entries: make(map[K]V),
	}
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	if ok {
		metrics.CacheOperations.WithLabelValues(c.name, "hit").Inc()
	} else {
		metrics.CacheOperations.WithLabelValues(c.name, "miss").Inc()
	}
	return v, ok
}

func (c *Cache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	metrics.CacheOperations.WithLabelValues(c.name, "put").Inc()
}

func (c *Cache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	metrics.CacheOperations.WithLabelValues(c.name, "invalidate").Inc()
}

func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]V)
}

func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// ListCache holds one whole list with a freshness timestamp. The list is
// valid only while it is non-empty and younger than the TTL; Put resets
// the timestamp. Both Put and Get copy the slice.
type ListCache[V any] struct {
	name     string
	ttl      time.Duration
	mu       sync.RWMutex
	items    []V
	storedAt time.Time
}

func NewList[V any](name string, ttl time.Duration) *ListCache[V] {
	return &ListCache[V]{name: name, ttl: ttl}
}

func (c *ListCache[V]) Get() ([]V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.items) == 0 || time.Since(c.storedAt) >= c.ttl {
		metrics.CacheOperations.WithLabelValues(c.name, "miss").Inc()
		return nil, false
	}
	metrics.CacheOperations.WithLabelValues(c.name, "hit").Inc()
	out := make([]V, len(c.items))
	copy(out, c.items)
	return out, true
}

func (c *ListCache[V]) Put(items []V) {
	stored := make([]V, len(items))
	copy(stored, items)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = stored
	c.storedAt = time.Now()
	metrics.CacheOperations.WithLabelValues(c.name, "put").Inc()
}

func (c *ListCache[V]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.storedAt = time.Time{}
	metrics.CacheOperations.WithLabelValues(c.name, "invalidate").Inc()
}
