package rates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const cachePrefix = "rate:v1:"

// Cache memoizes conversion rates in Redis for a fixed TTL per currency pair.
// Concurrent misses for the same pair may both hit the upstream; the lookup
// is read-only so the stampede is harmless. Cache failures fall through to
// the upstream rather than failing the caller.
type Cache struct {
	next   Provider
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCache wraps the given provider with a Redis-backed cache.
func NewCache(next Provider, client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{next: next, client: client, ttl: ttl, logger: logger}
}

// Rate returns the cached rate for the pair or fetches and caches it.
func (c *Cache) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	key := fmt.Sprintf("%s%s:%s", cachePrefix, from, to)

	cached, err := c.client.Get(ctx, key).Result()
	if err == nil {
		rate, parseErr := decimal.NewFromString(cached)
		if parseErr == nil && rate.IsPositive() {
			return rate, nil
		}
		c.logger.Warn("discarding malformed cached rate", "key", key, "value", cached)
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("rate cache lookup failed", "key", key, "error", err)
	}

	rate, err := c.next.Rate(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}

	if err := c.client.Set(ctx, key, rate.String(), c.ttl).Err(); err != nil {
		c.logger.Warn("rate cache write failed", "key", key, "error", err)
	}
	return rate, nil
}
