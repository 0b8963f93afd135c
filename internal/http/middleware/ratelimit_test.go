package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func do(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMemoryLimiterWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	l := NewMemoryLimiter()
	l.now = func() time.Time { return now }

	ctx := context.Background()
	for want := int64(1); want <= 3; want++ {
		got, _ := l.Hit(ctx, "k", time.Minute)
		if got != want {
			t.Fatalf("hit %d: got %d", want, got)
		}
	}

	now = now.Add(2 * time.Minute)
	if got, _ := l.Hit(ctx, "k", time.Minute); got != 1 {
		t.Fatalf("after window: got %d, want 1", got)
	}
	if got, _ := l.Hit(ctx, "other", time.Minute); got != 1 {
		t.Fatalf("other key: got %d, want 1", got)
	}
}

func TestRateLimitBlocks(t *testing.T) {
	r := gin.New()
	r.GET("/x", RateLimit(NewMemoryLimiter(), 2, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		if w := do(r, httptest.NewRequest(http.MethodGet, "/x", nil)); w.Code != http.StatusOK {
			t.Fatalf("request %d: got %d", i, w.Code)
		}
	}
	w := do(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("got %d, want 429", w.Code)
	}
	if w.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("remaining = %q", w.Header().Get("X-RateLimit-Remaining"))
	}
}

type brokenLimiter struct{}

func (brokenLimiter) Hit(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("redis down")
}

func TestRateLimitFailsOpen(t *testing.T) {
	for name, l := range map[string]Limiter{"nil": nil, "error": brokenLimiter{}} {
		r := gin.New()
		r.GET("/x", RateLimit(l, 1, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })
		for i := 0; i < 3; i++ {
			if w := do(r, httptest.NewRequest(http.MethodGet, "/x", nil)); w.Code != http.StatusOK {
				t.Fatalf("%s: got %d", name, w.Code)
			}
		}
	}
}

func TestPlayerRateLimitNeedsPlayer(t *testing.T) {
	r := gin.New()
	r.POST("/submit", PlayerRateLimit(NewMemoryLimiter(), "submit", 1, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	if w := do(r, httptest.NewRequest(http.MethodPost, "/submit", nil)); w.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401", w.Code)
	}
}

func TestPlayerRateLimitPerPlayer(t *testing.T) {
	tokens := staticTokens{"a": "p1", "b": "p2"}
	r := gin.New()
	r.POST("/submit", JWT(tokens), PlayerRateLimit(NewMemoryLimiter(), "submit", 1, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := func(tok string) int {
		rq := httptest.NewRequest(http.MethodPost, "/submit", nil)
		rq.Header.Set("Authorization", "Bearer "+tok)
		return do(r, rq).Code
	}
	if got := req("a"); got != http.StatusOK {
		t.Fatalf("p1 first: %d", got)
	}
	if got := req("a"); got != http.StatusTooManyRequests {
		t.Fatalf("p1 second: %d", got)
	}
	if got := req("b"); got != http.StatusOK {
		t.Fatalf("p2 first: %d", got)
	}
}
