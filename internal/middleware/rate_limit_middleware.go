package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const minLimiterIdle = time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware keeps one token bucket per client IP. Buckets idle long
// enough to have refilled are evicted, since a fresh bucket behaves the same.
type RateLimitMiddleware struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	rps       rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimitMiddleware creates a new rate limiting handler.
func NewRateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	return newRateLimitMiddleware(rps, burst, time.Now).Handler()
}

func newRateLimitMiddleware(rps float64, burst int, now func() time.Time) *RateLimitMiddleware {
	idle := minLimiterIdle
	if rps > 0 {
		refill := time.Duration(float64(burst) / rps * float64(time.Second))
		if refill > idle {
			idle = refill
		}
	}

	return &RateLimitMiddleware{
		limiters:  make(map[string]*limiterEntry),
		rps:       rate.Limit(rps),
		burst:     burst,
		idle:      idle,
		lastSweep: now(),
		now:       now,
	}
}

func (i *RateLimitMiddleware) limiter(key string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := i.now()
	if now.Sub(i.lastSweep) >= i.idle {
		i.sweep(now)
	}

	entry, exists := i.limiters[key]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(i.rps, i.burst)}
		i.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// sweep drops buckets unused for longer than the idle window. Callers hold mu.
func (i *RateLimitMiddleware) sweep(now time.Time) {
	for key, entry := range i.limiters {
		if now.Sub(entry.lastSeen) >= i.idle {
			delete(i.limiters, key)
		}
	}
	i.lastSweep = now
}

// Handler returns a gin handler that rejects requests over the limit with 429.
func (i *RateLimitMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !i.limiter(c.ClientIP()).Allow() {
			AbortWithError(c, status.Errorf(codes.ResourceExhausted, "too many requests"))
			return
		}
		c.Next()
	}
}
