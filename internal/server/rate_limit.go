package server

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiterConfig holds configuration for the rate limiter.
type RateLimiterConfig struct {
	// RequestsPerMinute is the sustained request rate allowed per client.
	RequestsPerMinute int
	// Burst is the bucket capacity. Defaults to RequestsPerMinute.
	Burst int
	// IdleTTL is how long an idle client's bucket is kept.
	IdleTTL time.Duration
}

// DefaultRateLimiterConfig returns the default rate limiter configuration.
// Pi requests are expensive, so the sustained rate is low.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerMinute: 30,
		Burst:             10,
		IdleTTL:           10 * time.Minute,
	}
}

// bucket is one client's token bucket.
type bucket struct {
	tokens float64
	last   time.Time
}

// RateLimiter is a per-client token bucket limiter. Buckets refill
// continuously at the configured rate up to the burst capacity. Idle buckets
// are evicted lazily on access.
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	perSecond float64
	burst     float64
	idleTTL   time.Duration
	now       func() time.Time
	lastSweep time.Time
}

// NewRateLimiter creates a rate limiter, replacing non-positive settings
// with the defaults.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	return newRateLimiterAt(config, time.Now)
}

func newRateLimiterAt(config RateLimiterConfig, now func() time.Time) *RateLimiter {
	def := DefaultRateLimiterConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = def.RequestsPerMinute
	}
	if config.Burst <= 0 {
		config.Burst = config.RequestsPerMinute
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = def.IdleTTL
	}
	return &RateLimiter{
		buckets:   make(map[string]*bucket),
		perSecond: float64(config.RequestsPerMinute) / 60,
		burst:     float64(config.Burst),
		idleTTL:   config.IdleTTL,
		now:       now,
		lastSweep: now(),
	}
}

// Allow takes one token from the client's bucket.
//
// Returns:
//   - bool: true if the request is allowed.
//   - time.Duration: when denied, the wait until a token is available.
func (rl *RateLimiter) Allow(clientIP string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweep(now)

	b, ok := rl.buckets[clientIP]
	if !ok {
		b = &bucket{tokens: rl.burst, last: now}
		rl.buckets[clientIP] = b
	}
	b.tokens = min(rl.burst, b.tokens+now.Sub(b.last).Seconds()*rl.perSecond)
	b.last = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	wait := time.Duration((1 - b.tokens) / rl.perSecond * float64(time.Second))
	return false, wait
}

// sweep drops idle buckets at most once per idleTTL. Caller holds mu.
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.idleTTL {
		return
	}
	for ip, b := range rl.buckets {
		if now.Sub(b.last) > rl.idleTTL {
			delete(rl.buckets, ip)
		}
	}
	rl.lastSweep = now
}

// clients returns the number of tracked buckets.
func (rl *RateLimiter) clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// RateLimitMiddleware rejects requests over the client's rate with 429 and
// a Retry-After header.
func RateLimitMiddleware(rl *RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ok, wait := rl.Allow(getClientIP(r)); !ok {
			retry := max(1, int(wait.Round(time.Second)/time.Second))
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"Too Many Requests","message":"Rate limit exceeded. Please try again later."}`))
			return
		}
		next(w, r)
	}
}

// getClientIP identifies the client: the first X-Forwarded-For entry, then
// X-Real-IP, then the connection's remote address.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.Trim(r.RemoteAddr, "[]")
	}
	return host
}

// WithRateLimiter sets a custom rate limiter for the server.
func WithRateLimiter(rl *RateLimiter) Option {
	return func(s *Server) {
		s.rateLimiter = rl
	}
}
