package reconcile

import (
	"context"

	"github.com/gearsync/backend/internal/domain/catalog"
	"github.com/gearsync/backend/internal/domain/shared"
)

// publishItemEvents fans an item's collected domain events out to the bus
// after its save committed. A nil publisher drops them; bus delivery errors
// are logged by the bus, not propagated.
func publishItemEvents(ctx context.Context, publisher shared.EventPublisher, item *catalog.Item) {
	if publisher == nil {
		return
	}
	events := item.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = publisher.Publish(ctx, events...)
	item.ClearDomainEvents()
}
