package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"

	apierrors "qrforge/internal/pkg/errors"
)

type bucket struct {
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
	lastAccess time.Time
}

// RateLimiter is a per-client token bucket. Buckets refill continuously at
// limit/minute and idle buckets are dropped by a background sweep.
type RateLimiter struct {
	buckets sync.Map // client key -> *bucket
	limit   int
}

func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	rl := &RateLimiter{limit: perMinute}
	go rl.sweep()
	return rl
}

func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		rl.buckets.Range(func(key, value any) bool {
			b := value.(*bucket)
			b.mu.Lock()
			idle := now.Sub(b.lastAccess) > 10*time.Minute
			b.mu.Unlock()
			if idle {
				rl.buckets.Delete(key)
			}
			return true
		})
	}
}

func (rl *RateLimiter) Allow(key string) bool {
	now := time.Now()
	val, _ := rl.buckets.LoadOrStore(key, &bucket{
		tokens:     float64(rl.limit),
		lastRefill: now,
		lastAccess: now,
	})

	b := val.(*bucket)
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastAccess = now
	refill := now.Sub(b.lastRefill).Seconds() * float64(rl.limit) / 60.0
	if refill > 0 {
		b.tokens += refill
		if b.tokens > float64(rl.limit) {
			b.tokens = float64(rl.limit)
		}
		b.lastRefill = now
	}

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// RateLimit rejects requests beyond the limiter's budget with 429, keyed by
// client IP.
func RateLimit(rl *RateLimiter) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			if !rl.Allow(clientKey(r)) {
				w.Header().Set("Retry-After", "60")
				apierrors.WriteError(w, http.StatusTooManyRequests, apierrors.ErrCodeRateLimited, "Rate limit exceeded", nil)
				return
			}
			next(w, r, ps)
		}
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
