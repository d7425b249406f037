package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Get returns the value of a key
func (r *RedisInternal) Get(ctx context.Context, key string) *redis.StringCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Redis.Get(ctx, key)
}

// Set stores a key value pair with an expiration
func (r *RedisInternal) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Redis.Set(ctx, key, value, expiration)
}

// TTL returns the time to live of a key
func (r *RedisInternal) TTL(ctx context.Context, key string) *redis.DurationCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Redis.TTL(ctx, key)
}

// Incr increments a key
func (r *RedisInternal) Incr(ctx context.Context, key string) *redis.IntCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Redis.Incr(ctx, key)
}
