package middleware

import (
	"net/http"
	"sync"
	"time"
)

const (
	sweepInterval = 5 * time.Minute
	staleAfter    = 10 * time.Minute
)

// RateLimiter throttles clients with per-key token buckets. The chat
// endpoint fronts a paid language-model API, so anonymous traffic is
// capped before a request ever reaches the model.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*tokenBucket
	perSecond float64
	burst     float64
	lastSweep time.Time
	now       func() time.Time
}

type tokenBucket struct {
	tokens float64
	seen   time.Time
}

// NewRateLimiter allows perSecond requests per client with the given
// burst allowance.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		clients:   make(map[string]*tokenBucket),
		perSecond: perSecond,
		burst:     float64(burst),
		now:       time.Now,
	}
	rl.lastSweep = rl.now()
	return rl
}

// Allow reports whether the client identified by key may proceed, and
// charges one token when it may.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweepLocked(now)

	tb, ok := rl.clients[key]
	if !ok {
		tb = &tokenBucket{tokens: rl.burst}
		rl.clients[key] = tb
	} else {
		tb.tokens += now.Sub(tb.seen).Seconds() * rl.perSecond
		if tb.tokens > rl.burst {
			tb.tokens = rl.burst
		}
	}
	tb.seen = now

	if tb.tokens < 1 {
		return false
	}
	tb.tokens--
	return true
}

// sweepLocked drops buckets idle long enough to have fully refilled
// anyway. Sweeping inline keeps the limiter free of background
// goroutines.
func (rl *RateLimiter) sweepLocked(now time.Time) {
	if now.Sub(rl.lastSweep) < sweepInterval {
		return
	}
	rl.lastSweep = now
	for key, tb := range rl.clients {
		if now.Sub(tb.seen) > staleAfter {
			delete(rl.clients, key)
		}
	}
}

// RateLimit rejects clients exceeding the configured rate with 429 and
// a JSON body matching the API's error envelope.
func RateLimit(perSecond float64, burst int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(perSecond, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.RemoteAddr
			// Prefer X-Real-Ip set by chi's RealIP middleware.
			if xri := r.Header.Get("X-Real-Ip"); xri != "" {
				key = xri
			}
			if !limiter.Allow(key) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"success":false,"message":"Too many requests. Please slow down."}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
