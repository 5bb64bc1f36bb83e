package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/naqi10/lab-price-sub001/internal/infrastructure/clients/redis"
	"github.com/naqi10/lab-price-sub001/internal/infrastructure/observability"
	goredis "github.com/redis/go-redis/v9"
)

// RedisAdapter implements the CacheProvider interface using Redis
type RedisAdapter struct {
	client  *redis.Client
	metrics *observability.Metrics
}

// NewRedisAdapter creates a new Redis cache adapter
func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{
		client: client,
	}
}

// SetMetrics enables cache hit/miss counters. A nil metrics disables them.
func (a *RedisAdapter) SetMetrics(metrics *observability.Metrics) {
	a.metrics = metrics
}

// Get retrieves a value from cache
func (a *RedisAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := a.client.Client().Get(ctx, key).Bytes()
	if err == goredis.Nil {
		if a.metrics != nil {
			observability.RecordCacheMiss(ctx, a.metrics, key)
		}
		return nil, fmt.Errorf("key not found: %s", key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get from cache: %w", err)
	}
	if a.metrics != nil {
		observability.RecordCacheHit(ctx, a.metrics, key)
	}
	return result, nil
}

// Set stores a value in cache with expiration
func (a *RedisAdapter) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	expiration := time.Duration(expirationSeconds) * time.Second
	if err := a.client.Client().Set(ctx, key, value, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set in cache: %w", err)
	}
	return nil
}

// Delete removes a value from cache
func (a *RedisAdapter) Delete(ctx context.Context, key string) error {
	if err := a.client.Client().Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete from cache: %w", err)
	}
	return nil
}

// Exists checks if a key exists in cache
func (a *RedisAdapter) Exists(ctx context.Context, key string) (bool, error) {
	result, err := a.client.Client().Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check existence in cache: %w", err)
	}
	return result > 0, nil
}
