package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/gearsync/backend/internal/domain/catalog"
	"github.com/gearsync/backend/internal/domain/listing"
	"github.com/gearsync/backend/internal/domain/reconcile"
	"github.com/gearsync/backend/internal/domain/shared"
)

// PriceHandler propagates a price edit made on one marketplace to the
// canonical record and from there to every other marketplace.
type PriceHandler struct {
	items     catalog.ItemRepository
	links     listing.LinkRepository
	gateways  listing.GatewayRegistry
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewPriceHandler creates the handler for price_change events
func NewPriceHandler(
	items catalog.ItemRepository,
	links listing.LinkRepository,
	gateways listing.GatewayRegistry,
	logger *zap.Logger,
) *PriceHandler {
	return &PriceHandler{items: items, links: links, gateways: gateways, logger: logger}
}

// WithEventPublisher installs the bus that receives item lifecycle events
func (h *PriceHandler) WithEventPublisher(publisher shared.EventPublisher) *PriceHandler {
	h.publisher = publisher
	return h
}

// Handle processes one price_change event
func (h *PriceHandler) Handle(ctx context.Context, event *reconcile.ChangeEvent, payload reconcile.Payload) (*HandlerResult, error) {
	p, ok := payload.(reconcile.PriceChangePayload)
	if !ok {
		return nil, fmt.Errorf("price handler: unexpected payload %T", payload)
	}

	newPrice, err := decimal.NewFromString(p.NewPrice.String())
	if err != nil {
		return nil, fmt.Errorf("unreadable new price %q: %w", p.NewPrice, err)
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

	if item.BasePrice.Equal(newPrice) {
		return SkipResult(fmt.Sprintf("price already %s", newPrice)), nil
	}

	oldPrice := item.BasePrice
	if err := item.SetPrice(newPrice); err != nil {
		return nil, err
	}
	if err := h.items.Save(ctx, item); err != nil {
		return nil, err
	}
	publishItemEvents(ctx, h.publisher, item)

	result := NewHandlerResult()
	result.Note = fmt.Sprintf("price %s -> %s on item %s", oldPrice, newPrice, item.SKU)

	links, err := h.links.FindByItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	for i := range links {
		other := &links[i]
		if other.ID == link.ID || !other.IsResolved() {
			continue
		}
		if err := h.pushPrice(ctx, other, newPrice); err != nil {
			other.RecordSyncFailure()
			result.AddFailure(other.Platform, err)
		} else {
			other.RecordSyncSuccess()
			result.AddSuccess(other.Platform)
		}
		if err := h.links.Save(ctx, other); err != nil {
			h.logger.Error("save link after price push",
				zap.String("platform", string(other.Platform)),
				zap.Error(err))
		}
	}

	return result, nil
}

func (h *PriceHandler) pushPrice(ctx context.Context, link *listing.PlatformLink, price decimal.Decimal) error {
	gateway, err := h.gateways.Gateway(link.Platform)
	if err != nil {
		return err
	}
	return gateway.UpdatePrice(ctx, link.NativeID, price)
}
