package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	appreconcile "github.com/gearsync/backend/internal/application/reconcile"
	"github.com/gearsync/backend/internal/domain/reconcile"
)

// ResolutionSchedulerConfig holds configuration for the resolution scheduler
type ResolutionSchedulerConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

// DefaultResolutionSchedulerConfig returns default configuration
func DefaultResolutionSchedulerConfig() ResolutionSchedulerConfig {
	return ResolutionSchedulerConfig{
		PollInterval: time.Minute,
		BatchSize:    10,
	}
}

// ResolutionScheduler periodically sweeps due pending resolutions and runs
// the resolver against them. One sweep handles entries sequentially; each
// resolution downloads a platform snapshot, so parallelism here would only
// hammer the marketplaces.
type ResolutionScheduler struct {
	resolutions reconcile.ResolutionRepository
	resolver    *appreconcile.Resolver
	config      ResolutionSchedulerConfig
	logger      *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewResolutionScheduler creates a new resolution scheduler
func NewResolutionScheduler(
	resolutions reconcile.ResolutionRepository,
	resolver *appreconcile.Resolver,
	config ResolutionSchedulerConfig,
	logger *zap.Logger,
) *ResolutionScheduler {
	if config.PollInterval <= 0 {
		config.PollInterval = time.Minute
	}
	if config.BatchSize < 1 {
		config.BatchSize = 1
	}
	return &ResolutionScheduler{
		resolutions: resolutions,
		resolver:    resolver,
		config:      config,
		logger:      logger,
	}
}

// Start starts the background sweep loop
func (s *ResolutionScheduler) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.sweepLoop(ctx)

	s.logger.Info("resolution scheduler started",
		zap.Duration("poll_interval", s.config.PollInterval),
		zap.Int("batch_size", s.config.BatchSize),
	)
	return nil
}

// Stop gracefully stops the scheduler
func (s *ResolutionScheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("resolution scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ResolutionScheduler) sweepLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one pass over due resolutions. Exposed so the manual trigger
// endpoint can force a sweep outside the poll cadence.
func (s *ResolutionScheduler) Sweep(ctx context.Context) {
	due, err := s.resolutions.FindDue(ctx, time.Now(), s.config.BatchSize)
	if err != nil {
		s.logger.Error("failed to find due resolutions", zap.Error(err))
		return
	}

	for i := range due {
		if ctx.Err() != nil {
			return
		}
		pending := &due[i]
		if err := s.resolver.Resolve(ctx, pending); err != nil {
			s.logger.Error("resolution attempt failed",
				zap.String("resolution_id", pending.ID.String()),
				zap.String("platform", string(pending.Platform)),
				zap.Error(err))
		}
	}
}
