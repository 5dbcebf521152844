package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gravitylab/gravita/pkg/errors"
)

// RedisCache is a Redis-backed cache for shared deployments where several
// API instances should see the same computed layouts.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// RedisOptions configures a RedisCache.
type RedisOptions struct {
	// Addr is the Redis host:port.
	Addr string

	// Password is optional.
	Password string

	// DB selects the Redis logical database.
	DB int

	// Prefix is prepended to every key, separating gravita entries from
	// other users of the same Redis instance. Defaults to "gravita".
	Prefix string
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, opts RedisOptions) (*RedisCache, error) {
	if opts.Addr == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "redis address must not be empty")
	}
	if opts.Prefix == "" {
		opts.Prefix = "gravita"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "connecting to redis")
	}
	return &RedisCache{client: client, prefix: opts.Prefix}, nil
}

// Get retrieves a value.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.prefixed(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "reading from redis")
	}
	return data, true, nil
}

// Set stores a value with the given TTL. A zero TTL means no expiry.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefixed(key), data, ttl).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "writing to redis")
	}
	return nil
}

// Delete removes a value.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefixed(key)).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "deleting from redis")
	}
	return nil
}

// Close closes the underlying Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) prefixed(key string) string {
	return c.prefix + ":" + key
}

// Ensure RedisCache implements Cache.
var _ Cache = (*RedisCache)(nil)
