package api

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter enforces a per-client request rate, keyed by caller IP.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex

	limit rate.Limit
	burst int
}

// NewRateLimiter creates a rate limiter allowing rps requests per second per
// client, with a burst of 10.
func NewRateLimiter(rps int) *RateLimiter {
	if rps <= 0 {
		rps = 20
	}
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(rps),
		burst:    10,
	}
}

// limiterFor returns the limiter for one client, creating it on first use.
func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	rl.mu.RLock()
	limiter, exists := rl.limiters[key]
	rl.mu.RUnlock()

	if exists {
		return limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, exists := rl.limiters[key]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(rl.limit, rl.burst)
	rl.limiters[key] = limiter
	return limiter
}

// RateLimitMiddleware creates a middleware that enforces rate limiting.
func RateLimitMiddleware(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiter := rl.limiterFor(clientIP(r))
			if !limiter.Allow() {
				respondError(w, http.StatusTooManyRequests, ErrCodeRateLimitExceeded, "Rate limit exceeded. Please try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
