package middleware

import (
	"sync"
	"time"
)

// tokenBucket refills continuously at rate tokens per second up to max
type tokenBucket struct {
	tokens     float64
	max        float64
	rate       float64
	lastRefill time.Time
}

func (tb *tokenBucket) allow(now time.Time) bool {
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.tokens = min(tb.max, tb.tokens+elapsed*tb.rate)
	tb.lastRefill = now

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

func (tb *tokenBucket) retryAfter() int {
	if tb.tokens >= 1 {
		return 0
	}
	return int((1-tb.tokens)/tb.rate) + 1
}

// RateLimiter is a per-process token-bucket limiter keyed by caller. It
// backs the Redis middleware when Redis is unreachable, so a cache outage
// degrades to per-instance limits instead of dropping protection or the
// route.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*tokenBucket
	limit   float64
	rate    float64
}

// NewRateLimiter allows limit requests per window per key
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*tokenBucket),
		limit:   float64(limit),
		rate:    float64(limit) / window.Seconds(),
	}
}

// Allow consumes a token for key, reporting whether the request may proceed
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	bucket, ok := rl.buckets[key]
	if !ok {
		bucket = &tokenBucket{
			tokens:     rl.limit,
			max:        rl.limit,
			rate:       rl.rate,
			lastRefill: time.Now(),
		}
		rl.buckets[key] = bucket
	}
	return bucket.allow(time.Now())
}

// RetryAfter returns the seconds until key earns its next token
func (rl *RateLimiter) RetryAfter(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	bucket, ok := rl.buckets[key]
	if !ok {
		return 1
	}
	return bucket.retryAfter()
}
