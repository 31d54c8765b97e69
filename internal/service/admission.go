package service

import (
	"context"
	"errors"
	"time"

	"github.com/Incognitol07/event-management-system-sub001/internal/domain"
	"github.com/Incognitol07/event-management-system-sub001/internal/metrics"
	"github.com/Incognitol07/event-management-system-sub001/internal/repository"
	"github.com/Incognitol07/event-management-system-sub001/pkg/database"
	"github.com/Incognitol07/event-management-system-sub001/pkg/logger"
	"github.com/Incognitol07/event-management-system-sub001/pkg/retry"
	"go.uber.org/zap"
)

// AdmissionConfig tunes the serialized read-decide-write path
type AdmissionConfig struct {
	LockTTL time.Duration
	Retry   *retry.Config
}

// DefaultAdmissionConfig returns default admission configuration
func DefaultAdmissionConfig() *AdmissionConfig {
	return &AdmissionConfig{
		LockTTL: 5 * time.Second,
		Retry:   retry.DefaultConfig(),
	}
}

// admission runs one decision under a lock and a transaction, retrying
// transient failures with backoff
type admission struct {
	store   repository.Store
	locker  repository.Locker
	retrier *retry.Retrier
	lockTTL time.Duration
}

func newAdmission(store repository.Store, locker repository.Locker, cfg *AdmissionConfig) *admission {
	if cfg == nil {
		cfg = DefaultAdmissionConfig()
	}
	if locker == nil {
		locker = repository.NopLocker{}
	}
	retryCfg := retry.DefaultConfig()
	if cfg.Retry != nil {
		c := *cfg.Retry
		retryCfg = &c
	}
	retryCfg.ShouldRetry = shouldRetryAdmission

	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &admission{
		store:   store,
		locker:  locker,
		retrier: retry.New(retryCfg),
		lockTTL: ttl,
	}
}

// shouldRetryAdmission retries serialization failures, deadlocks, lock
// timeouts and lost insert races. The next attempt re-reads everything.
func shouldRetryAdmission(err error) bool {
	return database.IsTransient(err) ||
		errors.Is(err, domain.ErrLockNotAcquired) ||
		errors.Is(err, domain.ErrAlreadyExists)
}

func (a *admission) run(ctx context.Context, kind, lockKey string, fn repository.TxFunc) error {
	start := time.Now()
	defer func() {
		metrics.ObserveAdmission(kind, time.Since(start))
	}()

	result := a.retrier.DoWithCallback(ctx, func(ctx context.Context) error {
		waitStart := time.Now()
		unlock, err := a.locker.Acquire(ctx, lockKey, a.lockTTL)
		metrics.ObserveLockWait(time.Since(waitStart))
		if err != nil {
			return err
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				logger.Get().Warn("Failed to release admission lock",
					zap.String("key", lockKey),
					zap.Error(err),
				)
			}
		}()

		return a.store.WithinTx(ctx, fn)
	}, func(attempt int, err error, next time.Duration) {
		metrics.RecordRetry(kind)
		logger.Get().WithContext(ctx).Debug("Retrying admission",
			zap.String("kind", kind),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", next),
			zap.Error(err),
		)
	})

	return result.Err
}
