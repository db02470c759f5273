package main

import (
	"sync"
	"time"
)

// statusCacheKeyWifi is the cache key of the global wifi status
const statusCacheKeyWifi = "wifi"

// statusCache provides thread-safe caching of on/off status reads with expiration
type statusCache struct {
	mu      sync.RWMutex            // Read-write mutex for concurrent access
	data    map[string]cachedStatus // Cache storage mapping band (or "wifi") to its status
	timeout time.Duration           // Duration after which a cached status is considered stale
	now     func() time.Time        // Clock, replaced in tests
}

// cachedStatus holds a status read and the time it was taken
type cachedStatus struct {
	enabled   bool      // Observed on/off state
	timestamp time.Time // Time when this status was cached for expiration calculation
}

// newStatusCache creates an empty cache whose entries live for timeout
func newStatusCache(timeout time.Duration) *statusCache {
	return &statusCache{
		data:    make(map[string]cachedStatus),
		timeout: timeout,
		now:     time.Now,
	}
}

// get retrieves a cached status if it exists and hasn't expired
func (c *statusCache) get(key string) (bool, bool) {
	c.mu.RLock()         // Acquire read lock for thread safety
	defer c.mu.RUnlock() // Ensure lock is released when function exits
	// Check if key exists in cache and data is still fresh
	cached, exists := c.data[key]
	if !exists || c.now().Sub(cached.timestamp) >= c.timeout {
		return false, false
	}
	return cached.enabled, true
}

// set stores a status with current timestamp
func (c *statusCache) set(key string, enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = cachedStatus{enabled, c.now()}
}

// clear removes the cached status for key
func (c *statusCache) clear(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// clearAll removes all cached statuses (complete cache flush)
func (c *statusCache) clearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]cachedStatus) // Reinitialize empty cache map
}
