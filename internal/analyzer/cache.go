package analyzer

import (
	"sync"
	"time"
)

// Cache memoizes full analysis results by the literal payload string.
// Keys are case and whitespace sensitive: two different spellings of
// the same URL are distinct entries.
type Cache interface {
	// Get returns the cached result for payload, or false when absent
	// or stale
	Get(payload string) (*Result, bool)

	// Put stores the result for payload, last writer wins
	Put(payload string, result *Result)
}

// cacheEntry pairs a result with its write time
type cacheEntry struct {
	result    *Result
	createdAt time.Time
}

// MemoryCache is an in-process Cache with a fixed freshness window.
// Entries older than the window are treated as absent on read but are
// not proactively purged. Safe for concurrent use.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time // injectable for tests
}

// NewMemoryCache creates a MemoryCache with the given freshness window
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get implements Cache
func (c *MemoryCache) Get(payload string) (*Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[payload]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.createdAt) >= c.ttl {
		return nil, false
	}
	return entry.result, true
}

// Put implements Cache
func (c *MemoryCache) Put(payload string, result *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[payload] = cacheEntry{
		result:    result,
		createdAt: c.now(),
	}
}
