package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/olimpiarestoration/leadbridge/pkg/logging"
)

// RedisLimiter is a fixed-window counter shared across instances. Each window
// is one Redis key that expires when the window closes (INCR + EXPIRE on first
// hit), so counts survive process restarts and rolling deploys.
type RedisLimiter struct {
	client *redis.Client
	logger *logging.Logger
	prefix string
}

// NewRedisLimiter wraps a Redis client for rate limiting.
func NewRedisLimiter(client *redis.Client, logger *logging.Logger) *RedisLimiter {
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisLimiter{
		client: client,
		logger: logger,
		prefix: "ratelimit",
	}
}

// Allow increments the key's window counter and compares against limit.
// Redis errors fail open: a degraded cache must not block lead capture.
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) bool {
	redisKey := fmt.Sprintf("%s:%s", l.prefix, key)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		l.logger.Warn("rate limit check failed, allowing request", "error", err, "key", key)
		return true
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, window).Err(); err != nil {
			l.logger.Warn("rate limit expire failed", "error", err, "key", key)
		}
	}
	return count <= int64(limit)
}
