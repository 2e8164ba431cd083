// Package policy enforces per-admin request limits on the assistant
// endpoint.
package policy

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/corporate-insurance/insights/internal/auth"
)

var rateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "insights",
	Subsystem: "policy",
	Name:      "rate_limited_total",
	Help:      "Assistant requests rejected by the rate limiter.",
})

// Counter increments a windowed counter and returns the new value.
type Counter interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// RedisCounter is a Counter backed by INCR and EXPIRE.
type RedisCounter struct {
	client *redis.Client
}

// NewRedisCounter wraps a go-redis client.
func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

// Incr implements Counter.
func (c *RedisCounter) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// RateLimiter is a fixed-window limiter keyed by user. A nil limiter or one
// without a counter allows everything.
type RateLimiter struct {
	counter Counter
	limit   int
	window  time.Duration
	prefix  string
	logger  *zap.Logger
	now     func() time.Time
}

// NewRateLimiter allows perMinute requests per user per calendar minute.
func NewRateLimiter(counter Counter, perMinute int, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		counter: counter,
		limit:   perMinute,
		window:  time.Minute,
		prefix:  "ratelimit:assistant",
		logger:  logger.Named("ratelimit"),
		now:     time.Now,
	}
}

// Allow counts a request for userID. Counter errors fail open.
func (rl *RateLimiter) Allow(ctx context.Context, userID string) *RateLimitResult {
	if rl == nil || rl.counter == nil || rl.limit <= 0 {
		return &RateLimitResult{Allowed: true, Remaining: -1}
	}

	now := rl.now()
	start := now.Truncate(rl.window)
	resetAt := start.Add(rl.window)
	key := fmt.Sprintf("%s:%s:%d", rl.prefix, userID, start.Unix())

	count, err := rl.counter.Incr(ctx, key, rl.window)
	if err != nil {
		rl.logger.Warn("Rate limit check failed, allowing request", zap.Error(err), zap.String("user_id", userID))
		return &RateLimitResult{Allowed: true, Limit: rl.limit, Remaining: -1}
	}

	if int(count) > rl.limit {
		return &RateLimitResult{
			Allowed:    false,
			Limit:      rl.limit,
			ResetAt:    resetAt,
			RetryAfter: resetAt.Sub(now),
		}
	}
	return &RateLimitResult{
		Allowed:   true,
		Limit:     rl.limit,
		Remaining: rl.limit - int(count),
		ResetAt:   resetAt,
	}
}

// Middleware rejects over-limit requests with 429. It must run after the
// JWT middleware so the user id is known.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserID(r.Context())
		res := rl.Allow(r.Context(), userID)
		if res.Remaining >= 0 {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		}
		if !res.Allowed {
			rateLimitedTotal.Inc()
			rl.logger.Info("Rate limited", zap.String("user_id", userID))
			secs := int(res.RetryAfter.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
