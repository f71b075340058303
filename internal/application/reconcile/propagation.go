package reconcile

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gearsync/backend/internal/domain/listing"
)

// propagateStatus sends a canonical status to every resolved link of an item
// except the excluded one, recording per-platform outcomes on the result.
// Unresolved links are left alone; the resolver hands them the item's current
// state once their identifiers are known. A failure to load the links at all
// is returned to the caller: no downstream was touched and the event has to
// stay retryable rather than settle as processed.
func propagateStatus(
	ctx context.Context,
	links listing.LinkRepository,
	gateways listing.GatewayRegistry,
	logger *zap.Logger,
	itemID uuid.UUID,
	exclude uuid.UUID,
	status listing.Status,
	result *HandlerResult,
) error {
	all, err := links.FindByItem(ctx, itemID)
	if err != nil {
		return fmt.Errorf("load links for status push: %w", err)
	}

	for i := range all {
		link := &all[i]
		if link.ID == exclude || !link.IsResolved() {
			continue
		}
		if link.Status == status {
			continue
		}

		gateway, err := gateways.Gateway(link.Platform)
		if err == nil {
			err = gateway.UpdateStatus(ctx, link.NativeID, status)
		}
		if err != nil {
			link.RecordSyncFailure()
			result.AddFailure(link.Platform, err)
		} else {
			link.SetStatus(status)
			link.RecordSyncSuccess()
			result.AddSuccess(link.Platform)
		}
		if err := links.Save(ctx, link); err != nil {
			logger.Error("save link after status push",
				zap.String("platform", string(link.Platform)),
				zap.Error(err))
		}
	}
	return nil
}
