package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/csvcast/internal/logging"
)

func fakeClock(rl *RateLimiter) *time.Time {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return &now
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(2)
	now := fakeClock(rl)

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"), "third request within the minute")
	assert.True(t, rl.Allow("b"), "clients have separate buckets")

	*now = now.Add(30 * time.Second)
	assert.True(t, rl.Allow("a"), "one token refilled after 30s")
	assert.False(t, rl.Allow("a"))
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl := NewRateLimiter(10)
	now := fakeClock(rl)

	rl.Allow("old")
	*now = now.Add(5 * time.Minute)
	rl.Allow("new")

	assert.Equal(t, 1, rl.Sweep(time.Minute))
	assert.Len(t, rl.clients, 1)
	assert.Contains(t, rl.clients, "new")
}

func TestRateLimiter_Handler(t *testing.T) {
	rl := NewRateLimiter(1)
	fakeClock(rl)

	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/options", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Same IP on another port shares the bucket.
	req.RemoteAddr = "10.0.0.1:6666"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"rate limit exceeded","code":"RATE001"}`, rec.Body.String())
}

func TestClientIP(t *testing.T) {
	assert.Equal(t, "10.0.0.1", clientIP("10.0.0.1:80"))
	assert.Equal(t, "::1", clientIP("[::1]:80"))
	assert.Equal(t, "10.0.0.2", clientIP("10.0.0.2"))
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(logging.New(&buf, "debug", "text"))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/convert", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "status=400")
	assert.Contains(t, out, "path=/api/convert")
}
