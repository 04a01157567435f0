// Package ratelimit throttles requests per client IP over a fixed window.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/diagnosis/clinic-bookings/internal/http/response"
	"github.com/diagnosis/clinic-bookings/pkg/logger"
)

// Limiter reports whether one more request under key fits the current window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Middleware limits requests per client IP. scope separates counters of
// different routes. Backend errors let the request through.
func Middleware(l Limiter, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := hashKey(scope + ":" + ClientIP(r))

			ok, err := l.Allow(r.Context(), key)
			if err != nil {
				logger.WarnContext(r.Context(), "Rate limiter unavailable, allowing request", "error", err, "scope", scope)
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				response.RateLimit(w, "Too many requests. Try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// hashKey keeps raw IPs out of the backing store.
func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", sum)
}

// ClientIP extracts the real client IP from the request
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
