package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	appinv "github.com/shopfront/backend/internal/application/inventory"
	"github.com/shopfront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const allocationLockPrefix = "lock:allocation:"

// LockOptions tunes how long a lock is held and how long callers wait for it
type LockOptions struct {
	TTL           time.Duration
	WaitTimeout   time.Duration
	RetryInterval time.Duration
}

func (o LockOptions) withDefaults() LockOptions {
	if o.TTL <= 0 {
		o.TTL = 10 * time.Second
	}
	if o.WaitTimeout <= 0 {
		o.WaitTimeout = 5 * time.Second
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = 50 * time.Millisecond
	}
	return o
}

func lockTimeout(key string) error {
	return &shared.DomainError{
		Code:    shared.CodeConcurrencyConflict,
		Message: fmt.Sprintf("stock %s is being allocated by another request", key),
	}
}

// lockAborted reports a wait cut short by the caller's context; the cause stays
// reachable so errors.Is(err, context.Canceled) still holds.
func lockAborted(key string, cause error) error {
	return &shared.DomainError{
		Code:    shared.CodeConcurrencyConflict,
		Message: fmt.Sprintf("gave up waiting for the allocation lock on %s", key),
		Cause:   cause,
	}
}

// RedisAllocationLocker serializes allocations across instances with redislock.
type RedisAllocationLocker struct {
	locker *redislock.Client
	opts   LockOptions
	logger *zap.Logger
}

// NewRedisAllocationLocker creates a locker on an existing Redis client
func NewRedisAllocationLocker(client *redis.Client, opts LockOptions, logger *zap.Logger) *RedisAllocationLocker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisAllocationLocker{
		locker: redislock.New(client),
		opts:   opts.withDefaults(),
		logger: logger,
	}
}

// Lock obtains the lock for key, retrying until the wait timeout.
// ErrConcurrencyConflict is returned when another holder keeps it.
func (l *RedisAllocationLocker) Lock(ctx context.Context, key string) (func(), error) {
	attempts := max(int(l.opts.WaitTimeout/l.opts.RetryInterval), 1)
	lock, err := l.locker.Obtain(ctx, allocationLockPrefix+key, l.opts.TTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.opts.RetryInterval), attempts),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, lockTimeout(key)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, lockAborted(key, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain allocation lock: %w", err)
	}

	return func() {
		// Release on a fresh context: the request context may already be cancelled.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := lock.Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn("failed to release allocation lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

// LocalAllocationLocker is an in-process keyed mutex with a bounded wait.
// It only protects a single instance; multi-instance deployments need Redis.
type LocalAllocationLocker struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
	wait  time.Duration
}

type lockSlot struct {
	ch   chan struct{}
	refs int
}

// NewLocalAllocationLocker creates a local locker; wait bounds how long Lock blocks
func NewLocalAllocationLocker(wait time.Duration) *LocalAllocationLocker {
	if wait <= 0 {
		wait = LockOptions{}.withDefaults().WaitTimeout
	}
	return &LocalAllocationLocker{slots: make(map[string]*lockSlot), wait: wait}
}

// Lock blocks until key is free, the wait elapses or ctx is done
func (l *LocalAllocationLocker) Lock(ctx context.Context, key string) (func(), error) {
	slot := l.acquireSlot(key)

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case slot.ch <- struct{}{}:
	case <-timer.C:
		l.releaseSlot(key)
		return nil, lockTimeout(key)
	case <-ctx.Done():
		l.releaseSlot(key)
		return nil, lockAborted(key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-slot.ch
			l.releaseSlot(key)
		})
	}, nil
}

func (l *LocalAllocationLocker) acquireSlot(key string) *lockSlot {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.slots[key]
	if !ok {
		slot = &lockSlot{ch: make(chan struct{}, 1)}
		l.slots[key] = slot
	}
	slot.refs++
	return slot
}

func (l *LocalAllocationLocker) releaseSlot(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot := l.slots[key]
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, key)
	}
}

var (
	_ appinv.AllocationLocker = (*RedisAllocationLocker)(nil)
	_ appinv.AllocationLocker = (*LocalAllocationLocker)(nil)
)
