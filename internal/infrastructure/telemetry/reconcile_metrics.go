// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ReconcileMetrics provides business metrics for the reconciliation engine.
// It tracks detected changes, processed events, and gateway call health.
type ReconcileMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	changeDetectedTotal *Counter
	eventProcessedTotal *Counter
	gatewayCallTotal    *Counter

	// Histogram metrics
	gatewayCallDuration *Histogram

	// Gauge metrics (point-in-time values)
	eventBacklog       *Gauge
	pendingResolutions *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data provider for periodic collection
	backlogProvider BacklogProvider
}

// BacklogProvider provides queue depth data for periodic metrics collection.
// This interface allows the telemetry layer to query reconciliation state
// without depending on the reconcile domain directly.
type BacklogProvider interface {
	// GetEventCountsByStatus returns the number of change events per status
	GetEventCountsByStatus(ctx context.Context) (map[string]int64, error)

	// GetPendingResolutionCount returns the number of unresolved placeholder links
	GetPendingResolutionCount(ctx context.Context) (int64, error)
}

// ReconcileMetricsConfig holds configuration for reconciliation metrics.
type ReconcileMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 1 minute
	BacklogProvider BacklogProvider
}

// NewReconcileMetrics creates a new ReconcileMetrics instance.
func NewReconcileMetrics(cfg ReconcileMetricsConfig) (*ReconcileMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	rm := &ReconcileMetrics{
		meter:           cfg.Meter,
		logger:          logger,
		stopChan:        make(chan struct{}),
		backlogProvider: cfg.BacklogProvider,
	}

	var err error

	rm.changeDetectedTotal, err = NewCounter(
		cfg.Meter,
		"gearsync_change_detected_total",
		"Total number of marketplace changes detected",
		"{changes}",
	)
	if err != nil {
		return nil, err
	}

	rm.eventProcessedTotal, err = NewCounter(
		cfg.Meter,
		"gearsync_event_processed_total",
		"Total number of change events processed, by terminal status",
		"{events}",
	)
	if err != nil {
		return nil, err
	}

	rm.gatewayCallTotal, err = NewCounter(
		cfg.Meter,
		"gearsync_gateway_call_total",
		"Total number of marketplace gateway calls",
		"{calls}",
	)
	if err != nil {
		return nil, err
	}

	rm.gatewayCallDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "gearsync_gateway_call_duration_seconds",
		Description: "Marketplace gateway call duration",
		Unit:        "s",
		Boundaries:  HTTPDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	rm.eventBacklog, err = NewGauge(
		cfg.Meter,
		"gearsync_event_backlog",
		"Current number of change events per status",
		"{events}",
	)
	if err != nil {
		return nil, err
	}

	rm.pendingResolutions, err = NewGauge(
		cfg.Meter,
		"gearsync_pending_resolutions",
		"Current number of unresolved placeholder links",
		"{resolutions}",
	)
	if err != nil {
		return nil, err
	}

	return rm, nil
}

// =============================================================================
// Change Event Metrics
// =============================================================================

// RecordChangeDetected records a change detected during a platform sweep.
func (rm *ReconcileMetrics) RecordChangeDetected(ctx context.Context, platform, changeType string) {
	rm.changeDetectedTotal.Inc(ctx,
		AttrPlatform.String(platform),
		AttrChangeType.String(changeType),
	)
}

// RecordEventProcessed records a change event reaching a terminal status.
func (rm *ReconcileMetrics) RecordEventProcessed(ctx context.Context, platform, status string) {
	rm.eventProcessedTotal.Inc(ctx,
		AttrPlatform.String(platform),
		AttrEventStatus.String(status),
	)
}

// =============================================================================
// Gateway Metrics
// =============================================================================

// GatewayOutcome represents the result of a gateway call for metrics labeling.
type GatewayOutcome string

const (
	GatewayOutcomeSuccess GatewayOutcome = "success"
	GatewayOutcomeError   GatewayOutcome = "error"
)

// RecordGatewayCall records a single marketplace gateway call with its duration.
func (rm *ReconcileMetrics) RecordGatewayCall(ctx context.Context, platform, operation string, duration time.Duration, err error) {
	outcome := GatewayOutcomeSuccess
	if err != nil {
		outcome = GatewayOutcomeError
	}

	attrs := []attribute.KeyValue{
		AttrPlatform.String(platform),
		AttrGatewayOperation.String(operation),
		AttrGatewayOutcome.String(string(outcome)),
	}

	rm.gatewayCallTotal.Inc(ctx, attrs...)
	rm.gatewayCallDuration.RecordDuration(ctx, duration, attrs...)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of gauge metrics.
// This is non-blocking. Use Stop() to stop collection.
func (rm *ReconcileMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	rm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = time.Minute
		}

		go rm.runPeriodicCollection(ctx, interval)
	})
}

func (rm *ReconcileMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	rm.collectBacklog(ctx)

	for {
		select {
		case <-rm.stopChan:
			rm.logger.Info("Stopping periodic reconcile metrics collection")
			return
		case <-ctx.Done():
			rm.logger.Info("Context cancelled, stopping periodic reconcile metrics collection")
			return
		case <-ticker.C:
			rm.collectBacklog(ctx)
		}
	}
}

func (rm *ReconcileMetrics) collectBacklog(ctx context.Context) {
	if rm.backlogProvider == nil {
		rm.logger.Debug("No backlog provider configured, skipping backlog metrics collection")
		return
	}

	counts, err := rm.backlogProvider.GetEventCountsByStatus(ctx)
	if err != nil {
		rm.logger.Warn("Failed to get event backlog counts", zap.Error(err))
	} else {
		for status, count := range counts {
			rm.eventBacklog.Record(ctx, count, AttrEventStatus.String(status))
		}
	}

	pending, err := rm.backlogProvider.GetPendingResolutionCount(ctx)
	if err != nil {
		rm.logger.Warn("Failed to get pending resolution count", zap.Error(err))
	} else {
		rm.pendingResolutions.Record(ctx, pending)
	}
}

// Stop stops the periodic collection.
func (rm *ReconcileMetrics) Stop() {
	rm.stopOnce.Do(func() {
		close(rm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewReconcileMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
