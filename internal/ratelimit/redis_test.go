package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/olimpiarestoration/leadbridge/pkg/logging"
)

func newTestRedisLimiter(t *testing.T) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisLimiter(client, logging.Default()), mr
}

func TestRedisLimiter_Window(t *testing.T) {
	limiter, mr := newTestRedisLimiter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if !limiter.Allow(ctx, "ip1", 3, time.Second) {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if limiter.Allow(ctx, "ip1", 3, time.Second) {
		t.Fatal("fourth request inside window should be denied")
	}

	mr.FastForward(1100 * time.Millisecond)

	if !limiter.Allow(ctx, "ip1", 3, time.Second) {
		t.Fatal("request after window expiry should be allowed")
	}
}

func TestRedisLimiter_KeysIndependent(t *testing.T) {
	limiter, _ := newTestRedisLimiter(t)
	ctx := context.Background()

	if !limiter.Allow(ctx, "ip1", 1, time.Minute) {
		t.Fatal("ip1 first request should pass")
	}
	if limiter.Allow(ctx, "ip1", 1, time.Minute) {
		t.Fatal("ip1 second request should be denied")
	}
	if !limiter.Allow(ctx, "ip2", 1, time.Minute) {
		t.Fatal("ip2 should have its own counter")
	}
}

func TestRedisLimiter_FailsOpen(t *testing.T) {
	limiter, mr := newTestRedisLimiter(t)
	ctx := context.Background()

	mr.Close()

	if !limiter.Allow(ctx, "ip1", 1, time.Minute) {
		t.Fatal("limiter should allow when redis is unreachable")
	}
}
