package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitConfig defines configuration for rate limiting
type RateLimitConfig struct {
	// Window is the time window for rate limiting
	Window time.Duration
	// Limit is the maximum number of requests allowed in the window
	Limit int
	// Key prefix for Redis keys
	KeyPrefix string
}

// RateLimiter enforces a fixed-window counter per key in Redis.
type RateLimiter struct {
	redis  *redis.Client
	config RateLimitConfig
}

func NewRateLimiter(redisClient *redis.Client, config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		config: config,
	}
}

// NewLoginRateLimiter throttles login attempts per account (10 per minute).
func NewLoginRateLimiter(redisClient *redis.Client) *RateLimiter {
	return NewRateLimiter(redisClient, RateLimitConfig{
		Window:    time.Minute,
		Limit:     10,
		KeyPrefix: "rate_limit:login",
	})
}

// NewAssistantRateLimiter bounds assistant calls per user (20 per hour),
// since each live call costs inference money.
func NewAssistantRateLimiter(redisClient *redis.Client) *RateLimiter {
	return NewRateLimiter(redisClient, RateLimitConfig{
		Window:    time.Hour,
		Limit:     20,
		KeyPrefix: "rate_limit:assistant",
	})
}

// Allow counts one attempt against the key and reports whether it is
// within the window limit. Satisfies service.LoginLimiter.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	allowed, _, _, err := rl.isAllowed(ctx, key)
	return allowed, err
}

// Middleware returns a Gin handler that enforces the limit per
// authenticated user. Requires the auth middleware to have run first.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			c.Abort()
			return
		}

		allowed, remaining, resetTime, err := rl.isAllowed(c.Request.Context(), fmt.Sprintf("%v", userID))
		if err != nil {
			// Redis being down should degrade to unthrottled, not to 500s.
			c.Header("X-RateLimit-Error", "rate limit check failed")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.config.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"message":     fmt.Sprintf("You have exceeded the rate limit of %d requests per %v", rl.config.Limit, rl.config.Window),
				"retry_after": int(time.Until(resetTime).Seconds()),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) isAllowed(ctx context.Context, key string) (bool, int, time.Time, error) {
	now := time.Now()
	windowStart := now.Truncate(rl.config.Window)
	redisKey := fmt.Sprintf("%s:%s:%d", rl.config.KeyPrefix, key, windowStart.Unix())

	pipe := rl.redis.Pipeline()
	incrCmd := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.config.Window)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return false, 0, time.Time{}, err
	}

	count := int(incrCmd.Val())
	remaining := rl.config.Limit - count
	if remaining < 0 {
		remaining = 0
	}

	resetTime := windowStart.Add(rl.config.Window)
	return count <= rl.config.Limit, remaining, resetTime, nil
}
