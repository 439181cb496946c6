package middleware

import (
	"net/http"
	"strconv"
	"sync"

	"golang.org/x/time/rate"

	"github.com/sakif/social-pulse/internal/auth"
)

// RateLimiter throttles requests per authenticated user, falling back to
// the remote address for anonymous requests. Each key gets its own token
// bucket.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	r        rate.Limit
	b        int
}

func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		r:        rate.Limit(requestsPerSecond),
		b:        burst,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.limiters[key]
	if !ok {
		l = rate.NewLimiter(rl.r, rl.b)
		rl.limiters[key] = l
	}
	return l
}

// Limit must run after auth.RequireAuth for the per-user key to apply.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "ip:" + r.RemoteAddr
		if id, ok := auth.UserIDFromContext(r.Context()); ok {
			key = "user:" + strconv.FormatInt(id, 10)
		}

		if !rl.limiter(key).Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate_limited","message":"too many requests, try again later"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
