package cache

import (
	"github.com/redis/go-redis/v9"
	appinv "github.com/shopfront/backend/internal/application/inventory"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewIdempotencyStore picks the Redis store when a client is given, the in-memory one otherwise.
func NewIdempotencyStore(client *redis.Client, cfg config.IdempotencyConfig, logger *zap.Logger) shared.IdempotencyStore {
	if client != nil {
		logger.Info("Using Redis idempotency store")
		return NewRedisIdempotencyStore(client, cfg.KeyPrefix)
	}
	logger.Warn("Redis not configured, using in-memory idempotency store; keys are not shared between instances")
	return NewInMemoryIdempotencyStore()
}

// NewAllocationLocker picks the Redis locker when a client is given, the local one otherwise.
func NewAllocationLocker(client *redis.Client, cfg config.InventoryConfig, logger *zap.Logger) appinv.AllocationLocker {
	opts := LockOptions{
		TTL:           cfg.AllocationLockTTL,
		WaitTimeout:   cfg.LockWaitTimeout,
		RetryInterval: cfg.LockRetryInterval,
	}
	if client != nil {
		logger.Info("Using Redis allocation lock")
		return NewRedisAllocationLocker(client, opts, logger)
	}
	logger.Warn("Redis not configured, allocation lock is process local")
	return NewLocalAllocationLocker(opts.withDefaults().WaitTimeout)
}
