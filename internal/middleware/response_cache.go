package middleware

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/idnofunny/backend/internal/cache"
	"github.com/idnofunny/backend/internal/logger"
)

// CacheResponse serves repeat GETs from Redis for ttl. The key covers path
// and query but deliberately not the viewer: only viewer-independent
// listings (the category index) may sit behind this middleware, since a
// shared body would leak one viewer's annotations to another. Without Redis
// it degrades to a pass-through.
func CacheResponse(ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		client := cache.GetRedisClient()
		if client == nil || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := responseCacheKey(c.Request.URL.Path, c.Request.URL.RawQuery)
		ctx := c.Request.Context()
		maxAge := fmt.Sprintf("public, max-age=%d", int(ttl.Seconds()))

		start := time.Now()
		body, err := client.Get(ctx, key)
		RecordCacheOperation("GET", "response_cache", time.Since(start))
		if err == nil {
			RecordCacheHit("response_cache")
			c.Header("X-Cache", "HIT")
			c.Header("Cache-Control", maxAge)
			c.Data(http.StatusOK, "application/json", []byte(body))
			c.Abort()
			return
		}
		RecordCacheMiss("response_cache")

		rec := &recordingWriter{ResponseWriter: c.Writer, status: http.StatusOK}
		c.Writer = rec
		c.Header("X-Cache", "MISS")
		c.Header("Cache-Control", maxAge)

		c.Next()

		// Only successful bodies are worth replaying
		if rec.status < 200 || rec.status >= 300 || rec.body.Len() == 0 {
			return
		}

		start = time.Now()
		if err := client.SetEx(ctx, key, rec.body.String(), ttl); err != nil {
			logger.Log.Debug("response cache write failed",
				zap.String("key", key), zap.Error(err))
			return
		}
		RecordCacheOperation("SET", "response_cache", time.Since(start))
	}
}

func responseCacheKey(path, query string) string {
	if query == "" {
		return "response:" + path
	}
	return "response:" + path + "?" + query
}

// recordingWriter tees the response body so a hitless request can populate
// the cache after the handler runs
type recordingWriter struct {
	gin.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *recordingWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *recordingWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
