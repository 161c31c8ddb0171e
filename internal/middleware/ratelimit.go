package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/imagebin/service/internal/response"
)

// RateLimiter keeps one token bucket per client IP with simple expiry.
type RateLimiter struct {
	limit  rate.Limit
	burst  int
	mu     sync.Mutex
	store  map[string]*limiterEntry
	maxAge time.Duration
}

type limiterEntry struct {
	limiter *rate.Limiter
	updated time.Time
}

// NewRateLimiter creates a limiter allowing reqPerSec sustained requests per
// client with the given burst.
func NewRateLimiter(reqPerSec float64, burst int) *RateLimiter {
	return &RateLimiter{
		limit:  rate.Limit(reqPerSec),
		burst:  burst,
		store:  make(map[string]*limiterEntry),
		maxAge: 10 * time.Minute,
	}
}

func (rl *RateLimiter) get(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if entry, ok := rl.store[key]; ok {
		entry.updated = time.Now()
		return entry.limiter
	}

	lim := rate.NewLimiter(rl.limit, rl.burst)
	rl.store[key] = &limiterEntry{limiter: lim, updated: time.Now()}

	for k, entry := range rl.store {
		if time.Since(entry.updated) > rl.maxAge {
			delete(rl.store, k)
		}
	}

	return lim
}

// Limit rejects requests exceeding the per-IP budget with a 429. RemoteAddr
// is the key, so this should run after chi's RealIP middleware.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.get(r.RemoteAddr).Allow() {
			w.Header().Set("Retry-After", "1")
			response.TooManyRequests(w, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
