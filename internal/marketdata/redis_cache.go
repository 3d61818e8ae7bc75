package marketdata

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"tradercore/internal/observability"
)

// RedisCache is the distributed tier behind the same Cache interface as
// MemoryCache, so multiple trader processes can share a processed-data
// cache. Grounded on internal/cache/price_cache.go's own note that the
// in-memory cache "can be upgraded to Redis when Docker is available" —
// this module carries out that upgrade as an alternate Cache
// implementation rather than a fallback path bolted onto the same struct.
type RedisCache struct {
	log    *observability.Logger
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisCache constructs a RedisCache over an existing client.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		log:    observability.New("marketdata-redis-cache"),
		client: client,
		ttl:    ttl,
		prefix: "tradercore:marketdata:",
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) (ProcessedData, bool) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn(ctx, "redis get failed", map[string]any{"err": err.Error()})
		}
		return ProcessedData{}, false
	}
	var data ProcessedData
	if err := json.Unmarshal(raw, &data); err != nil {
		c.log.Warn(ctx, "redis cache entry decode failed", map[string]any{"err": err.Error()})
		return ProcessedData{}, false
	}
	return data, true
}

func (c *RedisCache) Set(ctx context.Context, key string, data ProcessedData) {
	raw, err := json.Marshal(data)
	if err != nil {
		c.log.Warn(ctx, "redis cache entry encode failed", map[string]any{"err": err.Error()})
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err(); err != nil {
		c.log.Warn(ctx, "redis set failed", map[string]any{"err": err.Error()})
	}
}

func (c *RedisCache) Clear(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		c.client.Del(ctx, iter.Val())
	}
}
