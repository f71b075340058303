package event

import (
	"context"

	"go.uber.org/zap"

	"github.com/gearsync/backend/internal/domain/catalog"
	"github.com/gearsync/backend/internal/domain/shared"
)

// AuditSubscriber writes a structured audit log entry for every item
// lifecycle event. It is the default subscriber on the in-process bus
// and gives operators a searchable trail of catalog mutations without
// touching the database.
type AuditSubscriber struct {
	logger *zap.Logger
}

// NewAuditSubscriber creates a new AuditSubscriber
func NewAuditSubscriber(logger *zap.Logger) *AuditSubscriber {
	return &AuditSubscriber{logger: logger.Named("audit")}
}

// EventTypes returns the item lifecycle events this subscriber records
func (s *AuditSubscriber) EventTypes() []string {
	return []string{
		catalog.EventTypeItemCreated,
		catalog.EventTypeItemSold,
		catalog.EventTypeItemRelisted,
		catalog.EventTypeItemPriceChanged,
		catalog.EventTypeItemQuantityChanged,
	}
}

// Handle logs the event with type-specific detail fields
func (s *AuditSubscriber) Handle(_ context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
		zap.String("item_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	}

	switch e := event.(type) {
	case *catalog.ItemCreatedEvent:
		fields = append(fields,
			zap.String("sku", e.SKU),
			zap.String("brand", e.Brand),
			zap.String("model", e.Model),
		)
	case *catalog.ItemSoldEvent:
		fields = append(fields, zap.String("sku", e.SKU))
	case *catalog.ItemRelistedEvent:
		fields = append(fields,
			zap.String("sku", e.SKU),
			zap.Int("quantity", e.Quantity),
		)
	case *catalog.ItemPriceChangedEvent:
		fields = append(fields,
			zap.String("sku", e.SKU),
			zap.String("old_price", e.OldPrice.String()),
			zap.String("new_price", e.NewPrice.String()),
		)
	case *catalog.ItemQuantityChangedEvent:
		fields = append(fields,
			zap.String("sku", e.SKU),
			zap.Int("old_quantity", e.OldQuantity),
			zap.Int("new_quantity", e.NewQuantity),
		)
	}

	s.logger.Info("item event", fields...)
	return nil
}

var _ shared.EventHandler = (*AuditSubscriber)(nil)
