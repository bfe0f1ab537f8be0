package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter throttles how often a given client key may hit an endpoint.
// Implementations never fail a request on their own error paths: abuse damping
// is best-effort and must not take lead capture down with it.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) bool
}

type windowRecord struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is a fixed-window counter keyed by caller-supplied identifier
// (client IP in practice). State is per-process and lost on restart, which is
// acceptable for coarse abuse damping behind a single instance.
type MemoryLimiter struct {
	mu      sync.Mutex
	records map[string]*windowRecord
	now     func() time.Time
}

// NewMemoryLimiter creates an in-memory limiter and starts background eviction
// of expired windows.
func NewMemoryLimiter() *MemoryLimiter {
	l := &MemoryLimiter{
		records: make(map[string]*windowRecord),
		now:     time.Now,
	}
	go l.cleanup()
	return l
}

// newMemoryLimiterForTest skips the eviction goroutine and accepts a clock.
func newMemoryLimiterForTest(now func() time.Time) *MemoryLimiter {
	return &MemoryLimiter{
		records: make(map[string]*windowRecord),
		now:     now,
	}
}

// Allow reports whether the key may proceed. A fresh or elapsed window resets
// the count to 1; inside a window the count increments up to limit and further
// requests are denied without incrementing.
func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	rec, ok := l.records[key]
	if !ok || now.After(rec.resetAt) {
		l.records[key] = &windowRecord{count: 1, resetAt: now.Add(window)}
		return true
	}

	if rec.count >= limit {
		return false
	}
	rec.count++
	return true
}

func (l *MemoryLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		l.mu.Lock()
		now := l.now()
		for key, rec := range l.records {
			if now.After(rec.resetAt) {
				delete(l.records, key)
			}
		}
		l.mu.Unlock()
	}
}
