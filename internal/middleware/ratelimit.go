package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huangang/modsentry/backend/pkg/response"
	"golang.org/x/time/rate"
)

const (
	limiterCleanupInterval = 3 * time.Minute
	limiterIdleTTL         = 5 * time.Minute
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits requests per client IP
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiter
	rps      rate.Limit
	burst    int
}

// NewRateLimiter allows rps requests per second per IP with the given burst.
// Stale entries are dropped until ctx is cancelled.
func NewRateLimiter(ctx context.Context, rps float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*ipLimiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
	go rl.cleanupLoop(ctx)
	return rl
}

func (rl *RateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.limiters[ip]
	if !exists {
		limiter := rate.NewLimiter(rl.rps, rl.burst)
		rl.limiters[ip] = &ipLimiter{limiter: limiter, lastSeen: time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func (rl *RateLimiter) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.cleanup(time.Now())
		}
	}
}

// cleanup removes IPs not seen for limiterIdleTTL
func (rl *RateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, v := range rl.limiters {
		if now.Sub(v.lastSeen) > limiterIdleTTL {
			delete(rl.limiters, ip)
		}
	}
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.getLimiter(c.ClientIP()).Allow() {
			response.TooManyRequests(c, "too many requests, please try again later")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RateLimit creates a RateLimiter and returns its middleware
func RateLimit(ctx context.Context, rps float64, burst int) gin.HandlerFunc {
	return NewRateLimiter(ctx, rps, burst).Middleware()
}
