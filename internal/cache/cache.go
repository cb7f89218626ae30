// Package cache wraps Redis for the short-lived state the service keeps out
// of Postgres: extraction job status mirrors, analysis results, and rate
// limit counters.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Cache is the caching surface used by handlers and the extraction
// pipeline. Implementations must be safe for concurrent use.
type Cache interface {
	// Generic byte-value operations.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error

	// Extraction job status mirror, read on the poll path so the database
	// is not hit for every status check.
	SetExtractionJobStatus(ctx context.Context, jobID uuid.UUID, status string, ttl time.Duration) error
	GetExtractionJobStatus(ctx context.Context, jobID uuid.UUID) (string, bool, error)

	// IncrWithExpiry increments key and refreshes its expiry atomically.
	IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error)
}

// RedisCache implements Cache on go-redis/v9.
type RedisCache struct {
	rdb *redis.Client
}

// NewRedisCache parses a redis:// URL and returns a client-backed cache.
// The connection is not verified here; call Ping for that.
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisCache{rdb: redis.NewClient(opts)}, nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// Get returns (nil, false, nil) on a miss; errors are reserved for
// transport failures.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

func (c *RedisCache) SetExtractionJobStatus(ctx context.Context, jobID uuid.UUID, status string, ttl time.Duration) error {
	return c.rdb.Set(ctx, ExtractionJobKey(jobID), status, ttl).Err()
}

func (c *RedisCache) GetExtractionJobStatus(ctx context.Context, jobID uuid.UUID) (string, bool, error) {
	val, err := c.rdb.Get(ctx, ExtractionJobKey(jobID)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "", false, nil
	case err != nil:
		return "", false, err
	}
	return val, true, nil
}

func (c *RedisCache) IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error) {
	pipe := c.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, expiry)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
