package ingest

import (
	"sync"
	"time"
)

// cache is a TTL-bounded seen-set keyed by symbol+date. Expired entries are
// swept lazily on insert when the cache is at capacity.
type cache struct {
	mu       sync.Mutex
	entries  map[string]time.Time
	capacity int
	ttl      time.Duration
}

func newCache(capacity int, ttl time.Duration) *cache {
	if capacity <= 0 {
		capacity = 10000
	}
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return &cache{
		entries:  make(map[string]time.Time, capacity),
		capacity: capacity,
		ttl:      ttl,
	}
}

func (c *cache) seen(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	expires, ok := c.entries[key]
	if !ok {
		return false
	}
	if time.Now().After(expires) {
		delete(c.entries, key)
		return false
	}
	return true
}

func (c *cache) mark(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.capacity {
		now := time.Now()
		for k, expires := range c.entries {
			if now.After(expires) {
				delete(c.entries, k)
			}
		}
		// still at capacity after sweeping: drop arbitrary entries
		for k := range c.entries {
			if len(c.entries) < c.capacity {
				break
			}
			delete(c.entries, k)
		}
	}
	c.entries[key] = time.Now().Add(c.ttl)
}
