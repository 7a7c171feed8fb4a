package cache

import (
	"bytes"
	"context"
	"sync"
	"time"
)

// MemoryCache is a thread-safe in-process cache with a fixed capacity.
type MemoryCache struct {
	items    map[string]memoryItem
	capacity int
	mu       sync.RWMutex
}

type memoryItem struct {
	value    []byte
	expireAt time.Time
}

// NewMemoryCache creates a MemoryCache holding at most capacity entries.
func NewMemoryCache(capacity int) *MemoryCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryCache{
		items:    make(map[string]memoryItem),
		capacity: capacity,
	}
}

// Get implements Cache. The returned slice is a copy.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[key]
	if !exists || !time.Now().Before(item.expireAt) {
		return nil, false, nil
	}
	return bytes.Clone(item.value), true, nil
}

// Set implements Cache. When the cache is full, expired entries are dropped
// first and then the entry closest to expiry is evicted.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.capacity {
		c.evictLocked()
	}

	c.items[key] = memoryItem{
		value:    bytes.Clone(value),
		expireAt: time.Now().Add(ttl),
	}
	return nil
}

// Len returns the number of stored entries, including expired ones not yet evicted.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close implements Cache.
func (c *MemoryCache) Close() error {
	return nil
}

func (c *MemoryCache) evictLocked() {
	now := time.Now()
	var oldestKey string
	var oldest time.Time
	for k, item := range c.items {
		if !now.Before(item.expireAt) {
			delete(c.items, k)
			continue
		}
		if oldestKey == "" || item.expireAt.Before(oldest) {
			oldestKey, oldest = k, item.expireAt
		}
	}
	if len(c.items) >= c.capacity && oldestKey != "" {
		delete(c.items, oldestKey)
	}
}
