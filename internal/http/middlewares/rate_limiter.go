package middlewares

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// AttemptLimiter decides whether a keyed caller may proceed. The in-process
// WindowLimiter below and the redis sliding-window limiter both satisfy it.
type AttemptLimiter interface {
	Allow(ctx context.Context, identifier string) (bool, error)
}

type WindowLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	limit   int
	clients map[string]*clientBucket
}

type clientBucket struct {
	count     int
	windowEnd time.Time
}

func NewWindowLimiter(limit int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{
		limit:   limit,
		window:  window,
		clients: make(map[string]*clientBucket),
	}
}

func (rl *WindowLimiter) Allow(_ context.Context, identifier string) (bool, error) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.clients[identifier]

	if !ok || now.After(b.windowEnd) {
		rl.clients[identifier] = &clientBucket{
			count:     1,
			windowEnd: now.Add(rl.window),
		}

		return true, nil
	}

	if b.count >= rl.limit {
		return false, nil
	}

	b.count++

	return true, nil
}

// RateLimit enforces the limiter for a derived key. Limiter errors (e.g.
// redis unreachable) fail open with a warning rather than locking everyone
// out of login.
func RateLimit(limiter AttemptLimiter, keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			key = clientIP(c)
		}

		allowed, err := limiter.Allow(c.Request.Context(), key)

		if err != nil {
			slog.Default().WarnContext(c.Request.Context(), "rate_limiter_unavailable", "error", err)
			c.Next()
			return
		}

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(time.Minute.Seconds())))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "rate_limited",
					"message": "Too many requests. Please try again shortly.",
				},
			})

			return
		}

		c.Next()
	}
}

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}
