package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/gearsync/backend/internal/domain/reconcile"
)

// ChangeHandler propagates one kind of detected change. Handlers return an
// error only for faults that invalidate the whole event; per-platform push
// failures belong in the HandlerResult instead.
type ChangeHandler interface {
	Handle(ctx context.Context, event *reconcile.ChangeEvent, payload reconcile.Payload) (*HandlerResult, error)
}

// Processor owns the change event lifecycle: it decodes the payload,
// dispatches to the handler for the change type and settles the event's
// final status from the handler's verdict. The caller must already hold the
// claim (event in processing state); the worker pool and the manual
// reprocess path both go through here.
type Processor struct {
	events   reconcile.EventRepository
	handlers map[reconcile.ChangeType]ChangeHandler
	logger   *zap.Logger
}

// NewProcessor creates a processor with no handlers registered
func NewProcessor(events reconcile.EventRepository, logger *zap.Logger) *Processor {
	return &Processor{
		events:   events,
		handlers: make(map[reconcile.ChangeType]ChangeHandler),
		logger:   logger,
	}
}

// Register installs the handler for a change type
func (p *Processor) Register(changeType reconcile.ChangeType, handler ChangeHandler) {
	p.handlers[changeType] = handler
}

// Process settles one claimed event. It always returns the event to a
// terminal state; the returned error reports only persistence failures.
func (p *Processor) Process(ctx context.Context, event *reconcile.ChangeEvent) error {
	if event.Status != reconcile.EventStatusProcessing {
		return reconcile.ErrEventNotProcessing
	}

	log := p.logger.With(
		zap.String("event_id", event.ID.String()),
		zap.String("platform", string(event.Platform)),
		zap.String("change_type", event.ChangeType.String()),
	)

	payload, err := event.DecodePayload()
	if err != nil {
		log.Warn("undecodable change payload", zap.Error(err))
		return p.settle(ctx, event, event.MarkError(fmt.Sprintf("undecodable payload: %v", err)))
	}

	handler, ok := p.handlers[event.ChangeType]
	if !ok {
		log.Error("no handler registered for change type")
		return p.settle(ctx, event, event.MarkError(fmt.Sprintf("no handler for change type %s", event.ChangeType)))
	}

	result, err := p.dispatch(ctx, handler, event, payload)
	switch {
	case err != nil:
		log.Error("change handler failed", zap.Error(err))
		return p.settle(ctx, event, event.MarkError(err.Error()))
	case result.Skip:
		log.Info("change skipped", zap.String("reason", result.Note))
		return p.settle(ctx, event, event.MarkSkipped(result.Summary()))
	case len(result.Failed) == 0:
		log.Info("change processed",
			zap.Int("platforms_ok", len(result.Succeeded)))
		return p.settle(ctx, event, event.MarkProcessed(result.Summary()))
	case len(result.Succeeded) > 0:
		log.Warn("change partially propagated",
			zap.Int("platforms_ok", len(result.Succeeded)),
			zap.Int("platforms_failed", len(result.Failed)))
		return p.settle(ctx, event, event.MarkPartial(result.Summary()))
	default:
		log.Error("change failed on every platform",
			zap.Int("platforms_failed", len(result.Failed)))
		return p.settle(ctx, event, event.MarkError(result.Summary()))
	}
}

// dispatch invokes the handler with panic isolation. A panicking handler
// downgrades to an event-level error; it must never take the worker down.
func (p *Processor) dispatch(ctx context.Context, handler ChangeHandler, event *reconcile.ChangeEvent, payload reconcile.Payload) (result *HandlerResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("change handler panicked",
				zap.String("event_id", event.ID.String()),
				zap.Any("panic", r))
			result = nil
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler.Handle(ctx, event, payload)
}

// settle persists the event after its terminal transition
func (p *Processor) settle(ctx context.Context, event *reconcile.ChangeEvent, transitionErr error) error {
	if transitionErr != nil {
		return transitionErr
	}
	return p.events.Save(ctx, event)
}
