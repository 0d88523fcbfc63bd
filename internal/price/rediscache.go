package price

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/smartwallet/tracker/internal/storage/cache"
)

// RedisCache adapts the shared Redis wrapper to the Resolver's Cache
// interface, keyed as "price:{chain}:{contract}" with a short TTL (§2.2, §4.1)
// so C7's periodic valuation pass does not refetch the same contract's price
// once per wallet holding it.
type RedisCache struct {
	redis *cache.Redis
}

func NewRedisCache(r *cache.Redis) *RedisCache {
	return &RedisCache{redis: r}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*float64, bool, error) {
	raw, err := c.redis.Get(key)
	if err != nil {
		if c.redis.IsNil(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading price cache: %w", err)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, false, fmt.Errorf("parsing cached price: %w", err)
	}
	return &v, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, price float64, ttl time.Duration) error {
	return c.redis.Set(key, strconv.FormatFloat(price, 'f', -1, 64), ttl)
}
