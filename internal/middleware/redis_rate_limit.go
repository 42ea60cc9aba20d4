package middleware

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/idnofunny/backend/internal/cache"
	"github.com/idnofunny/backend/internal/logger"
)

// RedisRateLimitMiddleware creates a distributed fixed-window limiter keyed
// by client IP. Counters live in Redis so the window holds across
// instances; when Redis is missing or failing the request falls back to the
// per-process token bucket rather than passing unthrottled or erroring.
func RedisRateLimitMiddleware(maxRequests int, window time.Duration) gin.HandlerFunc {
	local := NewRateLimiter(maxRequests, window)
	return func(c *gin.Context) {
		key := fmt.Sprintf("rate_limit:%s", getClientIP(c.Request.RemoteAddr))
		allowRateLimited(c, key, maxRequests, window, local)
	}
}

// UserActionRateLimit throttles a named action per authenticated user, e.g.
// one meme upload per minute. Unauthenticated requests pass through; the
// auth middleware rejects them later anyway.
func UserActionRateLimit(action string, maxRequests int, window time.Duration) gin.HandlerFunc {
	local := NewRateLimiter(maxRequests, window)
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			c.Next()
			return
		}
		key := fmt.Sprintf("rate_limit:%s:%s", action, userID)
		allowRateLimited(c, key, maxRequests, window, local)
	}
}

// allowRateLimited runs the shared fixed-window check against Redis,
// degrading to the local limiter on any Redis trouble.
func allowRateLimited(c *gin.Context, key string, maxRequests int, window time.Duration, local *RateLimiter) {
	redisClient := cache.GetRedisClient()
	if redisClient == nil {
		allowLocal(c, key, local)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	val, err := redisClient.GetInt(ctx, key)
	if err != nil {
		logger.Log.Warn("rate limit read failed, using local limiter",
			zap.String("key", key), zap.Error(err))
		allowLocal(c, key, local)
		return
	}

	if val >= int64(maxRequests) {
		rejectRateLimited(c, key, int(window.Seconds()))
		return
	}

	newVal, err := redisClient.IncrBy(ctx, key, 1)
	if err != nil {
		logger.Log.Warn("rate limit increment failed, using local limiter",
			zap.String("key", key), zap.Error(err))
		allowLocal(c, key, local)
		return
	}

	// First request of the window owns the expiry
	if newVal == 1 {
		if err := redisClient.Expire(ctx, key, window); err != nil {
			logger.Log.Warn("failed to set rate limit expiration",
				zap.String("key", key), zap.Error(err))
		}
	}

	c.Next()
}

// allowLocal checks the per-process fallback bucket for key
func allowLocal(c *gin.Context, key string, local *RateLimiter) {
	if local.Allow(key) {
		c.Next()
		return
	}
	rejectRateLimited(c, key, local.RetryAfter(key))
}

func rejectRateLimited(c *gin.Context, key string, retryAfter int) {
	logger.Log.Warn("rate limit exceeded", zap.String("key", key))
	RecordRateLimitExceeded(c.FullPath(), c.Request.Method)
	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.AbortWithStatusJSON(429, gin.H{
		"error":       "rate limit exceeded",
		"retry_after": retryAfter,
	})
}

// getClientIP extracts the client IP from RemoteAddr
func getClientIP(remoteAddr string) string {
	if ip, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return ip
	}
	return remoteAddr
}
