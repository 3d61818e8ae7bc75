package marketdata

import (
	"context"
	"sync"
	"time"

	"tradercore/internal/observability"
)

// entry pairs cached data with its insertion time for TTL eviction.
type entry struct {
	data      ProcessedData
	timestamp time.Time
}

// MemoryCache is an in-memory TTL cache, grounded on
// internal/cache/price_cache.go's Get/Set/cleanup-goroutine shape,
// generalized to cache ProcessedData keyed by window hash instead of a
// single price DTO keyed by symbol.
type MemoryCache struct {
	log     *observability.Logger
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
}

// NewMemoryCache constructs a MemoryCache with the given TTL and starts a
// background eviction sweep every 5 minutes.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	c := &MemoryCache{
		log:     observability.New("marketdata-cache"),
		entries: make(map[string]entry),
		ttl:     ttl,
	}
	go c.sweep()
	return c
}

func (c *MemoryCache) Get(ctx context.Context, key string) (ProcessedData, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || time.Since(e.timestamp) > c.ttl {
		return ProcessedData{}, false
	}
	return e.data, true
}

func (c *MemoryCache) Set(ctx context.Context, key string, data ProcessedData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{data: data, timestamp: time.Now()}
}

func (c *MemoryCache) Clear(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

func (c *MemoryCache) sweep() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		c.mu.Lock()
		for key, e := range c.entries {
			if time.Since(e.timestamp) > 24*time.Hour {
				delete(c.entries, key)
			}
		}
		c.mu.Unlock()
	}
}
