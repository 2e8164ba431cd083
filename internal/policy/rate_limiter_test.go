package policy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/corporate-insurance/insights/internal/auth"
)

type memCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	keys   []string
}

func (m *memCounter) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = map[string]int64{}
	}
	if _, ok := m.counts[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.counts[key]++
	return m.counts[key], nil
}

func TestAllowFixedWindow(t *testing.T) {
	c := &memCounter{}
	rl := NewRateLimiter(c, 2, zaptest.NewLogger(t))
	clock := time.Date(2026, 6, 15, 10, 30, 10, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	ctx := context.Background()
	r := rl.Allow(ctx, "u1")
	assert.True(t, r.Allowed)
	assert.Equal(t, 1, r.Remaining)
	assert.True(t, rl.Allow(ctx, "u1").Allowed)

	denied := rl.Allow(ctx, "u1")
	assert.False(t, denied.Allowed)
	assert.Equal(t, 50*time.Second, denied.RetryAfter)

	// other users have their own bucket
	assert.True(t, rl.Allow(ctx, "u2").Allowed)

	// next minute resets
	clock = clock.Add(time.Minute)
	assert.True(t, rl.Allow(ctx, "u1").Allowed)
	assert.Contains(t, c.keys[0], "ratelimit:assistant:u1:")
}

func TestDisabledLimiterAllows(t *testing.T) {
	var rl *RateLimiter
	assert.True(t, rl.Allow(context.Background(), "u").Allowed)
	assert.True(t, NewRateLimiter(nil, 5, zaptest.NewLogger(t)).Allow(context.Background(), "u").Allowed)
}

func TestRedisErrorsFailOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })

	rl := NewRateLimiter(NewRedisCounter(client), 1, zaptest.NewLogger(t))
	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow(context.Background(), "u").Allowed)
	}
}

func TestMiddlewareRejectsWith429(t *testing.T) {
	rl := NewRateLimiter(&memCounter{}, 1, zaptest.NewLogger(t))
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/ai/admin", nil)
		req = req.WithContext(auth.WithPrincipal(req.Context(), auth.Principal{UserID: "u1", Role: auth.RoleAdmin, TenantID: "t"}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := do()
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", first.Header().Get("X-RateLimit-Remaining"))

	second := do()
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
}
