// Package cache holds short-lived command output so concurrent probes in
// one pass can share a single invocation.
package cache

import (
	"sync"
	"time"
)

// Cache represents a generic in-memory TTL cache with LRU eviction
type Cache[K comparable, V any] struct {
	items      map[K]*Item[V]
	mutex      sync.Mutex
	defaultTTL time.Duration
	maxSize    int
	now        func() time.Time

	stopCh    chan struct{}
	closeOnce sync.Once
}

// Item represents a cached item with expiration
type Item[V any] struct {
	Value     V
	ExpiresAt time.Time
	LastUsed  time.Time
}

// NewCache creates a new cache instance. Expired items are swept in the
// background until Close is called.
func NewCache[K comparable, V any](defaultTTL time.Duration, maxSize int) *Cache[K, V] {
	return newCache[K, V](defaultTTL, maxSize, time.Now)
}

func newCache[K comparable, V any](defaultTTL time.Duration, maxSize int, now func() time.Time) *Cache[K, V] {
	if maxSize <= 0 {
		maxSize = 1
	}
	cache := &Cache[K, V]{
		items:      make(map[K]*Item[V]),
		defaultTTL: defaultTTL,
		maxSize:    maxSize,
		now:        now,
		stopCh:     make(chan struct{}),
	}

	go cache.startCleanup()

	return cache
}

// Set stores a value until the cache's TTL passes
func (c *Cache[K, V]) Set(key K, value V) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxSize {
		c.evictLRU()
	}

	now := c.now()
	c.items[key] = &Item[V]{
		Value:     value,
		ExpiresAt: now.Add(c.defaultTTL),
		LastUsed:  now,
	}
}

// Get retrieves a value from the cache
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	var zero V
	item, exists := c.items[key]
	if !exists {
		return zero, false
	}

	now := c.now()
	if now.After(item.ExpiresAt) {
		delete(c.items, key)
		return zero, false
	}

	item.LastUsed = now
	return item.Value, true
}

// Size returns the number of items in the cache
func (c *Cache[K, V]) Size() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return len(c.items)
}

// Close stops the background sweeper
func (c *Cache[K, V]) Close() {
	c.closeOnce.Do(func() { close(c.stopCh) })
}

// evictLRU removes the least recently used item
func (c *Cache[K, V]) evictLRU() {
	var oldestKey K
	var oldestTime time.Time
	first := true

	for key, item := range c.items {
		if first || item.LastUsed.Before(oldestTime) {
			oldestKey = key
			oldestTime = item.LastUsed
			first = false
		}
	}

	if !first {
		delete(c.items, oldestKey)
	}
}

func (c *Cache[K, V]) startCleanup() {
	interval := c.defaultTTL / 2
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopCh:
			return
		}
	}
}

// cleanup removes expired items
func (c *Cache[K, V]) cleanup() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	for key, item := range c.items {
		if now.After(item.ExpiresAt) {
			delete(c.items, key)
		}
	}
}
