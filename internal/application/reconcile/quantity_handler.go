package reconcile

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/gearsync/backend/internal/domain/catalog"
	"github.com/gearsync/backend/internal/domain/listing"
	"github.com/gearsync/backend/internal/domain/reconcile"
	"github.com/gearsync/backend/internal/domain/shared"
)

// QuantityHandler propagates stock level changes. Quantity is where blind
// pushes hurt the most, so the downstream write is reconciled against the
// platform's actual remote value first: platforms already at the target are
// left untouched.
type QuantityHandler struct {
	items     catalog.ItemRepository
	links     listing.LinkRepository
	gateways  listing.GatewayRegistry
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewQuantityHandler creates the handler for quantity_change events
func NewQuantityHandler(
	items catalog.ItemRepository,
	links listing.LinkRepository,
	gateways listing.GatewayRegistry,
	logger *zap.Logger,
) *QuantityHandler {
	return &QuantityHandler{items: items, links: links, gateways: gateways, logger: logger}
}

// WithEventPublisher installs the bus that receives item lifecycle events
func (h *QuantityHandler) WithEventPublisher(publisher shared.EventPublisher) *QuantityHandler {
	h.publisher = publisher
	return h
}

// Handle processes one quantity_change event
func (h *QuantityHandler) Handle(ctx context.Context, event *reconcile.ChangeEvent, payload reconcile.Payload) (*HandlerResult, error) {
	p, ok := payload.(reconcile.QuantityChangePayload)
	if !ok {
		return nil, fmt.Errorf("quantity handler: unexpected payload %T", payload)
	}
	if p.NewQuantity < 0 {
		return nil, fmt.Errorf("negative quantity %d in change data", p.NewQuantity)
	}

	link, err := h.links.FindByNativeID(ctx, event.Platform, event.ExternalID)
	if err != nil {
		if errors.Is(err, listing.ErrLinkNotFound) {
			return SkipResult("no local link for this listing; nothing to propagate"), nil
		}
		return nil, err
	}

	item, err := h.items.FindByID(ctx, link.ItemID)
	if err != nil {
		return nil, err
	}
	event.AttachItem(item.ID)

	if item.Quantity == p.NewQuantity {
		return SkipResult(fmt.Sprintf("quantity already %d", p.NewQuantity)), nil
	}

	wasSold := item.IsSold()
	if err := item.SetQuantity(p.NewQuantity); err != nil {
		return nil, err
	}
	if err := h.items.Save(ctx, item); err != nil {
		return nil, err
	}
	publishItemEvents(ctx, h.publisher, item)

	result := NewHandlerResult()
	switch {
	case item.IsSold():
		result.Note = fmt.Sprintf("quantity 0, item %s marked sold", item.SKU)
		link.End()
	case wasSold:
		result.Note = fmt.Sprintf("quantity %d, item %s back in stock", p.NewQuantity, item.SKU)
		link.SetStatus(listing.StatusActive)
	default:
		result.Note = fmt.Sprintf("quantity %d on item %s", p.NewQuantity, item.SKU)
	}
	if err := h.links.Save(ctx, link); err != nil {
		return nil, err
	}

	links, err := h.links.FindByItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	for i := range links {
		other := &links[i]
		if other.ID == link.ID || !other.IsResolved() {
			continue
		}
		if err := h.pushQuantity(ctx, other, p.NewQuantity); err != nil {
			other.RecordSyncFailure()
			result.AddFailure(other.Platform, err)
		} else {
			// Local link status follows the stock verdict: a sold-out
			// item must not keep claiming active listings.
			switch {
			case item.IsSold():
				other.End()
			case wasSold:
				other.SetStatus(listing.StatusActive)
			}
			other.RecordSyncSuccess()
			result.AddSuccess(other.Platform)
		}
		if err := h.links.Save(ctx, other); err != nil {
			h.logger.Error("save link after quantity push",
				zap.String("platform", string(other.Platform)),
				zap.Error(err))
		}
	}

	return result, nil
}

// pushQuantity writes the target quantity, reading the remote value first
func (h *QuantityHandler) pushQuantity(ctx context.Context, link *listing.PlatformLink, quantity int) error {
	gateway, err := h.gateways.Gateway(link.Platform)
	if err != nil {
		return err
	}

	remote, err := gateway.FetchQuantity(ctx, link.NativeID)
	if err != nil {
		return fmt.Errorf("read remote quantity: %w", err)
	}
	if remote == quantity {
		h.logger.Debug("remote quantity already correct",
			zap.String("platform", string(link.Platform)),
			zap.Int("quantity", quantity))
		return nil
	}

	return gateway.UpdateQuantity(ctx, link.NativeID, quantity)
}
