package ratelimit_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/clinic-bookings/internal/ratelimit"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
}

func hit(h http.Handler, ip string) int {
	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	req.RemoteAddr = ip + ":1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestLocalLimiterPerIP(t *testing.T) {
	h := ratelimit.Middleware(ratelimit.NewLocalLimiter(3, time.Minute), "login")(okHandler())

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1"))
	}
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2"))
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("backend down")
}

func TestMiddlewareFailsOpen(t *testing.T) {
	h := ratelimit.Middleware(brokenLimiter{}, "login")(okHandler())
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, "192.0.2.1", ratelimit.ClientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", ratelimit.ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	assert.Equal(t, "203.0.113.5", ratelimit.ClientIP(req))
}

func TestRedisLimiter(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()
	client, err := ratelimit.NewRedisClient(ctx, url)
	require.NoError(t, err)
	defer client.Close()

	l := ratelimit.NewRedisLimiter(client, 2, time.Minute)
	key := uuid.NewString()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := l.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}
