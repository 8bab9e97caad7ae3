// Package ratelimit bounds request rates on the permissionless registry
// surface with an in-memory sliding window per caller.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"attestry/internal/platform/config"
	"attestry/pkg/requestcontext"
)

// slidingWindow tracks request timestamps for one key.
type slidingWindow struct {
	timestamps []time.Time
}

// Limiter is an in-memory sliding-window rate limiter. Single-process only;
// a shared deployment would move this to Redis.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*slidingWindow
	limit   int
	window  time.Duration
}

// New creates a Limiter with the given per-window request budget.
func New(cfg config.RateLimitConfig) *Limiter {
	return &Limiter{
		buckets: make(map[string]*slidingWindow),
		limit:   cfg.Limit,
		window:  cfg.Window,
	}
}

// Allow records one request for key and reports whether it is within budget,
// together with the remaining budget.
func (l *Limiter) Allow(key string, now time.Time) (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	sw := l.buckets[key]
	if sw == nil {
		sw = &slidingWindow{}
		l.buckets[key] = sw
	}
	sw.cleanup(now, l.window)

	if len(sw.timestamps) >= l.limit {
		return false, 0
	}
	sw.timestamps = append(sw.timestamps, now)
	return true, l.limit - len(sw.timestamps)
}

func (sw *slidingWindow) cleanup(now time.Time, window time.Duration) {
	cutoff := now.Add(-window)
	i := 0
	for ; i < len(sw.timestamps); i++ {
		if sw.timestamps[i].After(cutoff) {
			break
		}
	}
	sw.timestamps = sw.timestamps[i:]
}

// Middleware enforces the limit per caller principal, falling back to client
// IP for requests that carry no caller identity.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := requestcontext.CallerID(ctx).String()
		if caller := requestcontext.CallerID(ctx); caller.IsZero() {
			key = "ip:" + requestcontext.ClientIP(ctx)
		}

		allowed, remaining := l.Allow(key, time.Now())
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
