package redis

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisInternal wraps the Redis client used by the per-IP rate limiter.
type RedisInternal struct {
	Redis *redis.Client

	mu sync.Mutex
}

// NewRedisInternal connects to Redis. REDIS_ADDR overrides the default
// localhost address; the caller decides whether a connection failure is
// fatal (the dashboard treats Redis as optional).
func NewRedisInternal() (*RedisInternal, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("connecting to Redis at %s: %w", addr, err)
	}

	return &RedisInternal{Redis: rdb}, nil
}

// Ping checks the connection, for the healthcheck.
func (r *RedisInternal) Ping(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Redis.Ping(ctx).Err()
}
