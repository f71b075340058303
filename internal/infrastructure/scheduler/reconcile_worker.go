package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	appreconcile "github.com/gearsync/backend/internal/application/reconcile"
	"github.com/gearsync/backend/internal/domain/reconcile"
)

// ReconcileWorkerConfig holds configuration for the reconcile worker pool
type ReconcileWorkerConfig struct {
	Workers      int
	BatchSize    int
	PollInterval time.Duration
	ClaimLockTTL time.Duration
}

// DefaultReconcileWorkerConfig returns default configuration
func DefaultReconcileWorkerConfig() ReconcileWorkerConfig {
	return ReconcileWorkerConfig{
		Workers:      4,
		BatchSize:    50,
		PollInterval: 5 * time.Second,
		ClaimLockTTL: 2 * time.Minute,
	}
}

// ReconcileWorker drains the change event queue in the background. Each poll
// claims a batch, partitions it by group key and fans the groups out over a
// bounded worker pool. Events inside one group run strictly in detection
// order; distinct groups run in parallel. A distributed group lock keeps two
// instances from working the same group at once.
type ReconcileWorker struct {
	events    reconcile.EventRepository
	processor *appreconcile.Processor
	locks     reconcile.GroupLocker
	config    ReconcileWorkerConfig
	logger    *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewReconcileWorker creates a new reconcile worker pool
func NewReconcileWorker(
	events reconcile.EventRepository,
	processor *appreconcile.Processor,
	locks reconcile.GroupLocker,
	config ReconcileWorkerConfig,
	logger *zap.Logger,
) *ReconcileWorker {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.BatchSize < 1 {
		config.BatchSize = 1
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.ClaimLockTTL <= 0 {
		config.ClaimLockTTL = 2 * time.Minute
	}
	return &ReconcileWorker{
		events:    events,
		processor: processor,
		locks:     locks,
		config:    config,
		logger:    logger,
	}
}

// Start starts the background polling loop
func (w *ReconcileWorker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go w.pollLoop(ctx)

	w.logger.Info("reconcile worker started",
		zap.Int("workers", w.config.Workers),
		zap.Int("batch_size", w.config.BatchSize),
		zap.Duration("poll_interval", w.config.PollInterval),
	)
	return nil
}

// Stop gracefully stops the worker, waiting for in-flight groups to finish
func (w *ReconcileWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("reconcile worker stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *ReconcileWorker) pollLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processBatch(ctx)
		}
	}
}

// processBatch claims one batch and works it to completion before the next
// poll tick is honored
func (w *ReconcileWorker) processBatch(ctx context.Context) {
	claimed, err := w.events.ClaimPending(ctx, w.config.BatchSize)
	if err != nil {
		w.logger.Error("failed to claim pending events", zap.Error(err))
		return
	}
	if len(claimed) == 0 {
		return
	}

	groups := groupEvents(claimed)

	jobs := make(chan []reconcile.ChangeEvent)
	var workers sync.WaitGroup
	for i := 0; i < w.config.Workers; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for group := range jobs {
				w.processGroup(ctx, group)
			}
		}()
	}

	for _, group := range groups {
		jobs <- group
	}
	close(jobs)
	workers.Wait()
}

// processGroup applies one group's events in detection order under the
// group lock. When the lock is contended the whole group returns to pending
// untouched; detection order would break if later events ran first.
func (w *ReconcileWorker) processGroup(ctx context.Context, group []reconcile.ChangeEvent) {
	if len(group) == 0 {
		return
	}
	key := group[0].GroupKey()

	acquired, err := w.locks.Acquire(ctx, key, w.config.ClaimLockTTL)
	if err != nil {
		w.logger.Error("group lock acquire failed",
			zap.String("group", key), zap.Error(err))
		w.releaseEvents(ctx, group)
		return
	}
	if !acquired {
		w.logger.Debug("group locked by another worker", zap.String("group", key))
		w.releaseEvents(ctx, group)
		return
	}
	defer func() {
		if err := w.locks.Release(ctx, key); err != nil {
			w.logger.Warn("group lock release failed",
				zap.String("group", key), zap.Error(err))
		}
	}()

	for i := range group {
		event := &group[i]

		if ctx.Err() != nil {
			w.releaseEvents(ctx, group[i:])
			return
		}

		if err := w.processor.Process(ctx, event); err != nil {
			w.logger.Error("event processing failed",
				zap.String("event_id", event.ID.String()),
				zap.String("group", key),
				zap.Error(err))
			// Later events in the group must not overtake this one
			w.releaseEvents(ctx, group[i+1:])
			return
		}
	}
}

// releaseEvents returns claimed events to pending so another poll can pick
// them up. Runs detached from the worker context so shutdown still writes
// the releases.
func (w *ReconcileWorker) releaseEvents(ctx context.Context, events []reconcile.ChangeEvent) {
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	for i := range events {
		event := &events[i]
		if err := event.Release(); err != nil {
			continue
		}
		if err := w.events.Save(saveCtx, event); err != nil {
			w.logger.Error("failed to return event to pending",
				zap.String("event_id", event.ID.String()),
				zap.Error(err))
		}
	}
}

// groupEvents partitions a claimed batch by group key, preserving the
// claim's detection order inside each group
func groupEvents(events []reconcile.ChangeEvent) [][]reconcile.ChangeEvent {
	index := make(map[string]int)
	groups := make([][]reconcile.ChangeEvent, 0)

	for _, event := range events {
		key := event.GroupKey()
		if i, ok := index[key]; ok {
			groups[i] = append(groups[i], event)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, []reconcile.ChangeEvent{event})
	}
	return groups
}
