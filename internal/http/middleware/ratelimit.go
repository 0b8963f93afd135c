package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Limiter counts hits of key inside a fixed window and returns the count
// including this hit.
type Limiter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

type clientInfo struct {
	start time.Time
	count int64
}

// MemoryLimiter is a per-process fixed-window limiter, used when Redis is
// not configured.
type MemoryLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientInfo
	now     func() time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{clients: make(map[string]*clientInfo), now: time.Now}
}

func (l *MemoryLimiter) Hit(_ context.Context, key string, window time.Duration) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	ci, ok := l.clients[key]
	if !ok || now.Sub(ci.start) > window {
		ci = &clientInfo{start: now}
		l.clients[key] = ci
		if len(l.clients) > 10000 {
			l.sweep(now, window)
		}
	}
	ci.count++
	return ci.count, nil
}

// sweep drops expired windows, called with mu held
func (l *MemoryLimiter) sweep(now time.Time, window time.Duration) {
	for k, ci := range l.clients {
		if now.Sub(ci.start) > window {
			delete(l.clients, k)
		}
	}
}

// RateLimit blocks clients (by IP) that send more than maxRequests per
// window. A nil limiter lets everything through.
func RateLimit(l Limiter, maxRequests int, window time.Duration) gin.HandlerFunc {
	return limit(l, "rl", maxRequests, window, func(c *gin.Context) (string, bool) {
		return c.ClientIP(), true
	})
}

// PlayerRateLimit limits per player instead of per IP. Requires JWT to run
// before it.
func PlayerRateLimit(l Limiter, name string, maxRequests int, window time.Duration) gin.HandlerFunc {
	return limit(l, "player_rl:"+name, maxRequests, window, PlayerID)
}

func limit(l Limiter, prefix string, maxRequests int, window time.Duration, ident func(*gin.Context) (string, bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || maxRequests <= 0 {
			c.Next()
			return
		}

		id, ok := ident(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		key := prefix + ":" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + id
		val, err := l.Hit(c.Request.Context(), key, window)
		if err != nil {
			// fail-open
			c.Header("X-RateLimit-Error", "limiter-error")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(maxRequests)-val), 10))

		if val > int64(maxRequests) {
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": int(window.Seconds()),
			})
			return
		}

		RLRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}
