package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func rateLimitedRouter(rl *RateLimiter) http.Handler {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(rl.Handler())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	return r
}

func hit(t *testing.T, h http.Handler, ip string) int {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = ip + ":40000"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	return w.Code
}

func TestRateLimiterAllowsBurst(t *testing.T) {
	rl := NewRateLimiter(context.Background(), 1, 3)
	h := rateLimitedRouter(rl)

	for i := 0; i < 3; i++ {
		if code := hit(t, h, "10.0.0.1"); code != http.StatusOK {
			t.Fatalf("request %d: got %d, want 200", i, code)
		}
	}

	if code := hit(t, h, "10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("burst exceeded: got %d, want 429", code)
	}
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	rl := NewRateLimiter(context.Background(), 1, 1)
	h := rateLimitedRouter(rl)

	if code := hit(t, h, "10.0.0.1"); code != http.StatusOK {
		t.Fatalf("first client: got %d, want 200", code)
	}

	if code := hit(t, h, "10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("first client second hit: got %d, want 429", code)
	}

	if code := hit(t, h, "10.0.0.2"); code != http.StatusOK {
		t.Fatalf("second client: got %d, want 200", code)
	}
}

func TestRateLimiterRefills(t *testing.T) {
	rl := NewRateLimiter(context.Background(), 1000, 1)

	now := time.Now()
	if ok, _ := lockedAllow(rl, "10.0.0.9", now); !ok {
		t.Fatal("first token should be granted")
	}

	if ok, _ := lockedAllow(rl, "10.0.0.9", now); ok {
		t.Fatal("bucket should be empty immediately after the burst")
	}

	if ok, _ := lockedAllow(rl, "10.0.0.9", now.Add(10*time.Millisecond)); !ok {
		t.Fatal("bucket should refill after elapsed time")
	}
}

func TestRateLimiterTableFull(t *testing.T) {
	rl := NewRateLimiter(context.Background(), 1, 1)

	now := time.Now()
	rl.mu.Lock()
	for i := 0; i < maxClients; i++ {
		rl.clients[fmt.Sprintf("192.0.2.%d", i)] = &clientBucket{tokens: 1, lastSeen: now}
	}
	rl.mu.Unlock()

	_, full := lockedAllow(rl, "198.51.100.7", now)
	if !full {
		t.Fatal("expected table-full rejection for a new client")
	}
}

func lockedAllow(rl *RateLimiter, ip string, now time.Time) (bool, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return rl.allow(ip, now)
}
