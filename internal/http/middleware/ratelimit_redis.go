package middleware

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window limiter shared by all instances, using
// INCR/EXPIRE. Keys look like rl:<window_seconds>:<identifier>.
type RedisLimiter struct {
	client redis.UniversalClient
}

func NewRedisLimiter(client redis.UniversalClient) *RedisLimiter {
	return &RedisLimiter{client: client}
}

func (l *RedisLimiter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	val, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if val == 1 {
		// first increment, set expiry
		l.client.Expire(ctx, key, window)
	}
	return val, nil
}
