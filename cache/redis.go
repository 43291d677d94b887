// Package cache provides the Redis-backed implementation of the core's
// result cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	kreuzberg "github.com/kreuzberg/kreuzberg-go"
)

const defaultTTL = 24 * time.Hour

// RedisCache stores serialized extraction results in Redis with a TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	// TTL per entry; zero means 24h.
	TTL time.Duration
}

// New connects to Redis and verifies the connection with a ping.
func New(ctx context.Context, opts Options) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, kreuzberg.WrapError(kreuzberg.KindCache, err, "connect redis %s", opts.Addr)
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (*kreuzberg.ExtractionResult, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, kreuzberg.WrapError(kreuzberg.KindCache, err, "get %s", key)
	}
	var result kreuzberg.ExtractionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		// A corrupt entry is treated as a miss so extraction can
		// overwrite it.
		return nil, false, nil
	}
	return &result, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, result *kreuzberg.ExtractionResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return kreuzberg.WrapError(kreuzberg.KindSerialization, err, "marshal result")
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return kreuzberg.WrapError(kreuzberg.KindCache, err, "set %s", key)
	}
	return nil
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error { return c.client.Close() }
