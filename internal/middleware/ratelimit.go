// Package middleware provides HTTP middleware for the sync daemon.
package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	// maxClients bounds the tracked-IP table so an address scan cannot
	// exhaust memory.
	maxClients = 100_000

	evictInterval = 5 * time.Minute
	staleAfter    = 10 * time.Minute
)

// clientBucket tracks remaining tokens for one source IP.
type clientBucket struct {
	tokens   float64
	lastSeen time.Time
}

// RateLimiter is a token-bucket limiter keyed by client IP.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientBucket
	rate    float64
	burst   float64
}

// NewRateLimiter creates a limiter allowing ratePerSec sustained requests
// with the given burst per IP. A background goroutine evicts idle entries
// until ctx is cancelled.
func NewRateLimiter(ctx context.Context, ratePerSec, burst int) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*clientBucket),
		rate:    float64(ratePerSec),
		burst:   float64(burst),
	}
	go rl.evictLoop(ctx)

	return rl
}

func (rl *RateLimiter) evictLoop(ctx context.Context) {
	ticker := time.NewTicker(evictInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for ip, b := range rl.clients {
				if now.Sub(b.lastSeen) > staleAfter {
					delete(rl.clients, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// allow refills the bucket for elapsed time and takes one token.
// Caller holds rl.mu.
func (rl *RateLimiter) allow(ip string, now time.Time) (bool, bool) {
	b, ok := rl.clients[ip]
	if !ok {
		if len(rl.clients) >= maxClients {
			return false, true
		}

		rl.clients[ip] = &clientBucket{tokens: rl.burst - 1, lastSeen: now}

		return true, false
	}

	b.tokens += now.Sub(b.lastSeen).Seconds() * rl.rate
	if b.tokens > rl.burst {
		b.tokens = rl.burst
	}

	b.lastSeen = now

	if b.tokens < 1 {
		return false, false
	}

	b.tokens--

	return true, false
}

// Handler returns gin middleware enforcing the per-IP limit.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// c.ClientIP() cannot be spoofed via X-Forwarded-For because the
		// router runs with SetTrustedProxies(nil).
		ip := c.ClientIP()

		rl.mu.Lock()
		allowed, tableFull := rl.allow(ip, time.Now())
		rl.mu.Unlock()

		if tableFull {
			respondError(c, http.StatusTooManyRequests, "rate_limited", "too many clients")

			return
		}

		if !allowed {
			respondError(c, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")

			return
		}

		c.Next()
	}
}
