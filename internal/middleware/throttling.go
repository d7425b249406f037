package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/semaphore"

	"beacon/internal/config"
	"beacon/internal/models/dto"
	redisInternal "beacon/internal/repositories/redis"
)

const (
	defaultMaxRequests = 120
	rateLimitWindow    = 60 * time.Second
	rateLimitKeyPrefix = "beacon:ratelimit:"
)

// RateLimiter enforces a fixed request budget per client IP per window.
type RateLimiter struct {
	redis       *redisInternal.RedisInternal
	maxRequests int
	window      time.Duration
}

// NewRateLimiter builds a rate limiter backed by Redis.
func NewRateLimiter(redisClient *redisInternal.RedisInternal, maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		redis:       redisClient,
		maxRequests: maxRequests,
		window:      window,
	}
}

// setupRateLimit attaches per-IP throttling when Redis is available. Without
// Redis the board still works, just unthrottled.
func setupRateLimit(engine *gin.Engine, cfg *config.App) {
	if cfg.Redis == nil {
		return
	}

	maxRequests := int(getEnvAsInt64("MAX_REQUEST_COUNT_BY_IP", defaultMaxRequests))
	rateLimiter := NewRateLimiter(cfg.Redis, maxRequests, rateLimitWindow)
	engine.Use(rateLimiter.Middleware())
}

// Middleware returns the gin middleware enforcing the limit.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		allowed, retryAfter, err := rl.checkRateLimit(c.Request.Context(), ip)
		if err != nil {
			// Redis hiccups must not take the board down
			c.Next()
			return
		}

		if !allowed {
			c.Writer.Header().Set("Retry-After", retryAfter.String())
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				dto.NewRateLimitErrorResponse(c, retryAfter.String()))
			return
		}

		c.Next()
	}
}

// checkRateLimit counts this request against the IP's window.
func (rl *RateLimiter) checkRateLimit(ctx context.Context, ip string) (allowed bool, retryAfter time.Duration, err error) {
	key := rateLimitKeyPrefix + ip

	val, err := rl.redis.Get(ctx, key).Result()

	// first request in the window
	if err == redis.Nil {
		err = rl.redis.Set(ctx, key, 1, rl.window).Err()
		if err != nil {
			return false, 0, err
		}
		return true, 0, nil
	}
	if err != nil {
		return false, 0, err
	}

	requestCount, err := strconv.Atoi(val)
	if err != nil {
		return false, 0, err
	}

	if requestCount >= rl.maxRequests {
		ttl, err := rl.redis.TTL(ctx, key).Result()
		if err != nil {
			return false, 0, err
		}
		return false, ttl, nil
	}

	err = rl.redis.Incr(ctx, key).Err()
	if err != nil {
		return false, 0, err
	}

	return true, 0, nil
}

// setupSemaphore caps concurrent in-flight requests across all clients.
func setupSemaphore(engine *gin.Engine) {
	max := getEnvAsInt64("MAX_REQUEST_COUNT_GLOBAL", int64(64))
	sema := semaphore.NewWeighted(max)
	engine.Use(func(c *gin.Context) {
		if err := sema.Acquire(c.Request.Context(), 1); err != nil {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				dto.NewRateLimitErrorResponse(c, "1s"))
			return
		}
		defer sema.Release(1)
		c.Next()
	})
}
