package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type client struct {
	lim  *rate.Limiter
	seen time.Time
}

// LocalLimiter is an in-process token bucket per key, used when no Redis is configured.
// A bucket holds requests tokens and refills one every window/requests.
type LocalLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	r       rate.Limit
	burst   int
	ttl     time.Duration
}

func NewLocalLimiter(requests int, window time.Duration) *LocalLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &LocalLimiter{
		clients: make(map[string]*client),
		r:       rate.Every(window / time.Duration(requests)),
		burst:   requests,
		ttl:     3 * window,
	}
}

// Run drops idle buckets until ctx is done.
func (l *LocalLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.cleanup()
		}
	}
}

func (l *LocalLimiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, c := range l.clients {
		if time.Since(c.seen) > l.ttl {
			delete(l.clients, key)
		}
	}
}

func (l *LocalLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok := l.clients[key]; ok {
		c.seen = time.Now()
		return c.lim
	}
	lim := rate.NewLimiter(l.r, l.burst)
	l.clients[key] = &client{lim: lim, seen: time.Now()}
	return lim
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	return l.get(key).Allow(), nil
}
