package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrRateLimitExceeded  = errors.New("rate limit exceeded")
	ErrLimiterUnavailable = errors.New("rate limiter unavailable")
)

// CounterStore is a fixed-window counter keyed by string. Incr atomically
// increments the counter for key, starting a new window of the given length
// when none is running, and returns the count within the current window.
// The increment-and-count must be atomic per key: concurrent bursts must not
// observe a count below the true number of attempts.
type CounterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// FixedWindowLimiter gates an operation class at max attempts per window per
// key. Rejection happens on overflow of the atomic increment, not on a
// separate read-then-write, so races cannot let extra attempts through.
type FixedWindowLimiter struct {
	store  CounterStore
	prefix string
	max    int64
	window time.Duration
}

func NewFixedWindowLimiter(store CounterStore, prefix string, max int, window time.Duration) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		store:  store,
		prefix: prefix,
		max:    int64(max),
		window: window,
	}
}

// Allow records one attempt for key and returns ErrRateLimitExceeded when
// the window ceiling is passed. Counter-store failures surface as
// ErrLimiterUnavailable; callers decide whether to fail the request.
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) error {
	count, err := l.store.Incr(ctx, l.prefix+":"+key, l.window)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}
	if count > l.max {
		return ErrRateLimitExceeded
	}
	return nil
}

type windowCounter struct {
	count   int64
	resetAt time.Time
}

// MemoryCounterStore is the in-process CounterStore for single-instance
// deployments. A background goroutine prunes rolled-over windows so idle
// keys do not accumulate.
type MemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]*windowCounter
}

func NewMemoryCounterStore() *MemoryCounterStore {
	store := &MemoryCounterStore{
		counters: make(map[string]*windowCounter),
	}
	go store.startCleanup()
	return store
}

func (m *MemoryCounterStore) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	c, ok := m.counters[key]
	if !ok || now.After(c.resetAt) {
		m.counters[key] = &windowCounter{count: 1, resetAt: now.Add(window)}
		return 1, nil
	}
	c.count++
	return c.count, nil
}

// startCleanup removes expired windows every minute.
func (m *MemoryCounterStore) startCleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		m.mu.Lock()
		for key, c := range m.counters {
			if now.After(c.resetAt) {
				delete(m.counters, key)
			}
		}
		m.mu.Unlock()
	}
}

// RedisCounterStore externalizes the counters for multi-instance
// deployments: INCR is atomic server-side, and the key expires a window
// length after its first increment.
type RedisCounterStore struct {
	client *redis.Client
}

func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{client: client}
}

func (r *RedisCounterStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, err
		}
	}
	return count, nil
}
