package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Incognitol07/event-management-system-sub001/internal/domain"
	"github.com/Incognitol07/event-management-system-sub001/pkg/telemetry"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

//go:embed scripts/release_lock.lua
var releaseLockScript string

const releaseLockScriptName = "release_lock"

// Unlock releases a lock obtained from Locker.Acquire
type Unlock func(ctx context.Context) error

// Locker serializes admission decisions that share a key across processes
type Locker interface {
	// Acquire blocks until key is held, ctx is done or the wait budget runs out.
	// The lock expires on its own after ttl.
	Acquire(ctx context.Context, key string, ttl time.Duration) (Unlock, error)
}

// EventLockKey guards RSVP admission for one event
func EventLockKey(eventID string) string {
	return "lock:event:" + eventID
}

// ResourceLockKey guards the pool of one resource on one date
func ResourceLockKey(resourceID string, date time.Time) string {
	return fmt.Sprintf("lock:resource:%s:%s", resourceID, domain.FormatDate(date))
}

// LockerConfig tunes how long Acquire waits
type LockerConfig struct {
	WaitTimeout  time.Duration
	PollInterval time.Duration
}

// DefaultLockerConfig returns default locker configuration
func DefaultLockerConfig() *LockerConfig {
	return &LockerConfig{
		WaitTimeout:  2 * time.Second,
		PollInterval: 10 * time.Millisecond,
	}
}

// lockClient is the subset of the redis wrapper the locker needs
type lockClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	EvalWithFallback(ctx context.Context, name, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisLocker implements Locker with SET NX PX and an owner-checked release
type RedisLocker struct {
	client lockClient
	config *LockerConfig
}

// NewRedisLocker creates a new RedisLocker
func NewRedisLocker(client lockClient, cfg *LockerConfig) *RedisLocker {
	if cfg == nil {
		cfg = DefaultLockerConfig()
	}
	return &RedisLocker{client: client, config: cfg}
}

// Acquire polls SET NX until the key is free
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Unlock, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.lock.acquire")
	defer span.End()

	span.SetAttributes(attribute.String("key", key))

	token := uuid.New().String()
	deadline := time.Now().Add(l.config.WaitTimeout)
	attempts := 0

	for {
		attempts++
		ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			fail(span, err)
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			span.SetAttributes(attribute.Int("attempts", attempts))
			span.SetStatus(codes.Ok, "")
			return l.release(key, token), nil
		}

		if time.Now().After(deadline) {
			span.SetStatus(codes.Error, "lock wait timeout")
			return nil, domain.ErrLockNotAcquired
		}

		select {
		case <-ctx.Done():
			span.SetStatus(codes.Error, "context done")
			return nil, fmt.Errorf("%w: %w", domain.ErrLockNotAcquired, ctx.Err())
		case <-time.After(l.config.PollInterval):
		}
	}
}

func (l *RedisLocker) release(key, token string) Unlock {
	return func(ctx context.Context) error {
		err := l.client.EvalWithFallback(ctx, releaseLockScriptName, releaseLockScript, []string{key}, token).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to release lock %s: %w", key, err)
		}
		return nil
	}
}

// MemoryLocker implements Locker for a single process
type MemoryLocker struct {
	mu     sync.Mutex
	held   map[string]chan struct{}
	config *LockerConfig
}

// NewMemoryLocker creates a new MemoryLocker
func NewMemoryLocker(cfg *LockerConfig) *MemoryLocker {
	if cfg == nil {
		cfg = DefaultLockerConfig()
	}
	return &MemoryLocker{held: make(map[string]chan struct{}), config: cfg}
}

// Acquire waits for the holder of key to release it. ttl is not enforced.
func (l *MemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Unlock, error) {
	timer := time.NewTimer(l.config.WaitTimeout)
	defer timer.Stop()

	for {
		l.mu.Lock()
		ch, busy := l.held[key]
		if !busy {
			done := make(chan struct{})
			l.held[key] = done
			l.mu.Unlock()
			return l.release(key, done), nil
		}
		l.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", domain.ErrLockNotAcquired, ctx.Err())
		case <-timer.C:
			return nil, domain.ErrLockNotAcquired
		}
	}
}

func (l *MemoryLocker) release(key string, done chan struct{}) Unlock {
	var once sync.Once
	return func(ctx context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			if l.held[key] == done {
				delete(l.held, key)
			}
			l.mu.Unlock()
			close(done)
		})
		return nil
	}
}

// NopLocker never blocks. Use it when row locks alone serialize admissions.
type NopLocker struct{}

func (NopLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Unlock, error) {
	return func(context.Context) error { return nil }, nil
}
