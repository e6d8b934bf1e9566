package dialogue

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dumblo/adventure-api/internal/errors"
	"github.com/dumblo/adventure-api/internal/redis"
)

// RedisCache stores generated dialogue lines in Redis with a TTL.
type RedisCache struct {
	client redis.Client
}

// NewRedisCache creates a Redis-backed dialogue cache.
func NewRedisCache(client redis.Client) (*RedisCache, error) {
	if client == nil {
		return nil, errors.InvalidArgument("redis client is required")
	}
	return &RedisCache{client: client}, nil
}

var _ Cache = (*RedisCache)(nil)

// Get returns the cached line for the key, reporting whether it was present.
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == goredis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "failed to read dialogue cache key %s", key)
	}
	return val, true, nil
}

// Set stores the line under the key for the given TTL.
func (c *RedisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return errors.Wrapf(err, "failed to write dialogue cache key %s", key)
	}
	return nil
}
