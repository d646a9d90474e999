package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/Dino-is-real/vmeet-v2/internal/metrics"
)

// RateLimiter implements a per-IP fixed window limit for mutating requests.
// Counters live in process memory and expire with their window.
type RateLimiter struct {
	mu       sync.Mutex
	counters *cache.Cache
	limit    int
	window   time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewRateLimiter allows limit mutating requests per IP per window.
func NewRateLimiter(limit int, window time.Duration, logger zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		counters: cache.New(2*window, window),
		limit:    limit,
		window:   window,
		logger:   logger,
		now:      time.Now,
	}
}

// CheckAndIncrement counts a request for key.
// Returns (allowed, remaining, resetAt).
func (rl *RateLimiter) CheckAndIncrement(key string) (bool, int, time.Time) {
	now := rl.now()
	bucket := now.Truncate(rl.window)
	resetAt := bucket.Add(rl.window)
	windowKey := key + ":" + strconv.FormatInt(bucket.Unix(), 10)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	count := 0
	if v, ok := rl.counters.Get(windowKey); ok {
		count = v.(int)
	}
	count++
	rl.counters.Set(windowKey, count, cache.DefaultExpiration)

	remaining := rl.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= rl.limit, remaining, resetAt
}

// Middleware returns the rate limiting middleware. Reads and the event
// stream are not limited; the lobby polls every few seconds.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodOptions || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}

		ip := RealIP(r)
		allowed, remaining, resetAt := rl.CheckAndIncrement("ip:" + ip)

		// Set rate limit headers
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if !allowed {
			retry := int(resetAt.Sub(rl.now()).Seconds())
			if retry < 1 {
				retry = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))

			metrics.RateLimitHits.WithLabelValues(normalizePath(r.URL.Path)).Inc()
			rl.logger.Warn().
				Str("event", "rate_limit_exceeded").
				Str("ip", ip).
				Str("endpoint", r.URL.Path).
				Msg("rate limit exceeded")

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate limit exceeded"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RealIP extracts the real client IP from headers or connection.
func RealIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	// Fallback to RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
