package middlewares_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/profilehub/profilehub/internal/http/middlewares"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestWindowLimiterAllowsUpToLimit(t *testing.T) {
	rl := middlewares.NewWindowLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		allowed, err := rl.Allow(context.Background(), "1.2.3.4")

		if err != nil || !allowed {
			t.Fatalf("attempt %d: allowed=%v err=%v", i+1, allowed, err)
		}
	}

	allowed, err := rl.Allow(context.Background(), "1.2.3.4")

	if err != nil || allowed {
		t.Fatalf("fourth attempt should be blocked, allowed=%v err=%v", allowed, err)
	}

	// an unrelated key has its own bucket
	allowed, _ = rl.Allow(context.Background(), "5.6.7.8")

	if !allowed {
		t.Fatal("separate identifier should not share the bucket")
	}
}

func TestWindowLimiterResetsAfterWindow(t *testing.T) {
	rl := middlewares.NewWindowLimiter(1, 10*time.Millisecond)

	if allowed, _ := rl.Allow(context.Background(), "k"); !allowed {
		t.Fatal("first attempt should pass")
	}

	if allowed, _ := rl.Allow(context.Background(), "k"); allowed {
		t.Fatal("second attempt inside the window should be blocked")
	}

	time.Sleep(15 * time.Millisecond)

	if allowed, _ := rl.Allow(context.Background(), "k"); !allowed {
		t.Fatal("attempt after the window should pass again")
	}
}

type stubLimiter struct {
	allowed bool
	err     error
}

func (s *stubLimiter) Allow(ctx context.Context, identifier string) (bool, error) {
	return s.allowed, s.err
}

func limitedRouter(l middlewares.AttemptLimiter) *gin.Engine {
	r := gin.New()
	r.POST("/login", middlewares.RateLimit(l, middlewares.KeyByIP), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	return r
}

func TestRateLimitMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		limiter    *stubLimiter
		wantStatus int
	}{
		{name: "allowed", limiter: &stubLimiter{allowed: true}, wantStatus: http.StatusOK},
		{name: "blocked", limiter: &stubLimiter{allowed: false}, wantStatus: http.StatusTooManyRequests},
		// limiter outage must not lock everyone out
		{name: "fails_open", limiter: &stubLimiter{err: errors.New("redis down")}, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			r := limitedRouter(tt.limiter)

			req := httptest.NewRequest(http.MethodPost, "/login", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}

			if tt.wantStatus == http.StatusTooManyRequests && w.Header().Get("Retry-After") == "" {
				t.Fatal("blocked response should carry Retry-After")
			}
		})
	}
}
