package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/idnofunny/backend/internal/logger"
)

func init() {
	_ = logger.Initialize("error", "/tmp/idnofunny-middleware-test.log")
}

func TestRateLimiterBlocksAtLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("commenter-1"), "request %d should pass", i+1)
	}
	assert.False(t, rl.Allow("commenter-1"), "4th request should be limited")
	assert.Greater(t, rl.RetryAfter("commenter-1"), 0)
}

func TestRateLimiterRefills(t *testing.T) {
	rl := NewRateLimiter(1, time.Second)

	assert.True(t, rl.Allow("uploader"))
	assert.False(t, rl.Allow("uploader"))

	time.Sleep(1100 * time.Millisecond)
	assert.True(t, rl.Allow("uploader"), "bucket should refill after the window")
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	assert.True(t, rl.Allow("user-a"))
	assert.False(t, rl.Allow("user-a"))
	assert.True(t, rl.Allow("user-b"), "user-b has their own bucket")
}

// Without Redis the per-user action limiter must still throttle via the
// local bucket instead of passing everything through
func TestUserActionRateLimitFallsBackWithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/memes/:id/comments",
		func(c *gin.Context) { c.Set("user_id", c.GetHeader("X-Test-User")) },
		UserActionRateLimit("comment", 1, time.Minute),
		func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) },
	)

	do := func(user string) int {
		req := httptest.NewRequest(http.MethodPost, "/memes/m1/comments", nil)
		req.Header.Set("X-Test-User", user)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do("ana"))
	assert.Equal(t, http.StatusTooManyRequests, do("ana"), "second comment inside the window is rejected")
	assert.Equal(t, http.StatusOK, do("bruno"), "another user is not affected")
}

func TestUserActionRateLimitIgnoresAnonymous(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/memes",
		UserActionRateLimit("upload", 1, time.Minute),
		func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) },
	)

	// No user_id in context: the limiter steps aside and auth rejects later
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/memes", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRedisRateLimitMiddlewareFallsBackWithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RedisRateLimitMiddleware(2, time.Minute))
	router.POST("/auth/login", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "203.0.113.7:4242"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, do().Code)
	assert.Equal(t, http.StatusOK, do().Code)

	w := do()
	assert.Equal(t, http.StatusTooManyRequests, w.Code, "a Redis outage must degrade to local limits, not 5xx or unlimited")
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}
