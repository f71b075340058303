package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/gearsync/backend/internal/domain/reconcile"
	"github.com/gearsync/backend/internal/infrastructure/config"
)

// GroupLockFactory creates group locks based on configuration
type GroupLockFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// GroupLockFactoryOption is a functional option for configuring the factory
type GroupLockFactoryOption func(*GroupLockFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) GroupLockFactoryOption {
	return func(f *GroupLockFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory lock
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) GroupLockFactoryOption {
	return func(f *GroupLockFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewGroupLockFactory creates a new factory
func NewGroupLockFactory(cfg config.RedisConfig, opts ...GroupLockFactoryOption) *GroupLockFactory {
	f := &GroupLockFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisLock creates a Redis-based group lock
func (f *GroupLockFactory) CreateRedisLock() (reconcile.GroupLocker, error) {
	lock, err := NewRedisGroupLock(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis group lock: %w", err)
	}

	return lock, nil
}

// CreateInMemoryLock creates an in-memory group lock.
// WARNING: in-memory locks do not coordinate across process instances,
// which can break per-group ordering in distributed deployments.
func (f *GroupLockFactory) CreateInMemoryLock() reconcile.GroupLocker {
	return NewInMemoryGroupLock()
}

// CreateLock creates a group lock based on whether Redis is available.
// It tries Redis first and falls back to in-memory if Redis is not
// reachable and the fallback is allowed.
func (f *GroupLockFactory) CreateLock() (reconcile.GroupLocker, error) {
	lock, err := f.CreateRedisLock()
	if err == nil {
		f.logger.Info("using Redis group lock")
		return lock, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for group locking but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory group lock. "+
		"Per-group ordering is not guaranteed across instances.",
		zap.Error(err),
	)
	return f.CreateInMemoryLock(), nil
}
