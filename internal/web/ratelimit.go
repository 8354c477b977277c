package web

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/JonMunkholm/eleitores/internal/web/middleware"
)

// rateLimiter gives each client IP a budget of requests per fixed window.
// Windows are aligned to the clock, and the counters are dropped wholesale
// when a window ends, so memory is bounded by the clients seen in one window
// and no background sweeper is needed.
type rateLimiter struct {
	budget int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	started time.Time
	used    map[string]int
}

func newRateLimiter(budget int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		budget: budget,
		window: window,
		now:    time.Now,
		used:   make(map[string]int),
	}
}

// allow spends one request from ip's budget and reports whether one was
// left.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if start := rl.now().Truncate(rl.window); start.After(rl.started) {
		rl.started = start
		clear(rl.used)
	}
	if rl.used[ip] >= rl.budget {
		return false
	}
	rl.used[ip]++
	return true
}

// retryAfter is the number of whole seconds until the current window ends.
func (rl *rateLimiter) retryAfter() int {
	rl.mu.Lock()
	end := rl.started.Add(rl.window)
	rl.mu.Unlock()
	return int(math.Ceil(end.Sub(rl.now()).Seconds()))
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(middleware.ClientIP(r)) {
			w.Header().Set("Retry-After", strconv.Itoa(max(rl.retryAfter(), 1)))
			respondErrorJSON(w, rateLimitMessage, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
