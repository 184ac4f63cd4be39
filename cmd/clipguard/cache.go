// cmd/clipguard/cache.go
package main

import (
	"sync"
	"time"
)

// cacheItem is a cached value with its expiry.
type cacheItem struct {
	value    interface{}
	expireAt time.Time
}

// Cache is a small in-memory TTL cache used to memoize search results
// within the process. Entries are evicted lazily on read and by a
// background sweep.
type Cache struct {
	items      map[string]cacheItem
	mutex      sync.RWMutex
	maxItems   int
	defaultTTL time.Duration
}

// NewCache creates a cache and starts its cleanup routine.
func NewCache(defaultTTL time.Duration, maxItems int) *Cache {
	c := &Cache{
		items:      make(map[string]cacheItem),
		maxItems:   maxItems,
		defaultTTL: defaultTTL,
	}
	go c.cleanupLoop()
	return c
}

// Set stores a value under key with the default TTL.
func (c *Cache) Set(key string, value interface{}) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if len(c.items) >= c.maxItems {
		c.evictOldestLocked()
	}
	c.items[key] = cacheItem{value: value, expireAt: time.Now().Add(c.defaultTTL)}
}

// Get returns the value for key if present and unexpired.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mutex.RLock()
	item, ok := c.items[key]
	c.mutex.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Now().After(item.expireAt) {
		c.mutex.Lock()
		delete(c.items, key)
		c.mutex.Unlock()
		return nil, false
	}
	return item.value, true
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.items)
}

// evictOldestLocked drops the entry closest to expiry. Caller holds the
// write lock.
func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	for key, item := range c.items {
		if oldestKey == "" || item.expireAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = item.expireAt
		}
	}
	if oldestKey != "" {
		delete(c.items, oldestKey)
	}
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(c.defaultTTL)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		c.mutex.Lock()
		for key, item := range c.items {
			if now.After(item.expireAt) {
				delete(c.items, key)
			}
		}
		c.mutex.Unlock()
	}
}
