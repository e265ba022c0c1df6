package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SlidingWindowLimiter tracks attempts per identifier in a redis sorted set
// scored by timestamp, so the window slides instead of resetting on a
// boundary. Used to throttle credential guessing on the login endpoint.
type SlidingWindowLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewSlidingWindowLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *SlidingWindowLimiter {
	if limit <= 0 {
		limit = 10
	}

	if window <= 0 {
		window = time.Minute
	}

	return &SlidingWindowLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

// Allow records the attempt and reports whether the identifier is still under
// the limit for the current window.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, identifier string) (bool, error) {
	key := l.key(identifier)
	now := time.Now()
	threshold := fmt.Sprintf("%d", now.Add(-l.window).UnixNano())

	err := l.client.ZRemRangeByScore(ctx, key, "-inf", threshold).Err()

	if err != nil {
		return false, fmt.Errorf("redis zremrangebyscore: %w", err)
	}

	count, err := l.client.ZCard(ctx, key).Result()

	if err != nil {
		return false, fmt.Errorf("redis zcard: %w", err)
	}

	if int(count) >= l.limit {
		return false, nil
	}

	member := redis.Z{Score: float64(now.UnixNano()), Member: now.UnixNano()}

	err = l.client.ZAdd(ctx, key, member).Err()

	if err != nil {
		return false, fmt.Errorf("redis zadd: %w", err)
	}

	err = l.client.Expire(ctx, key, l.window).Err()

	if err != nil {
		return false, fmt.Errorf("redis expire: %w", err)
	}

	return true, nil
}

func (l *SlidingWindowLimiter) key(identifier string) string {
	if l.prefix == "" {
		return identifier
	}

	return l.prefix + ":" + identifier
}
