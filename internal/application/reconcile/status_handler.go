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

// StatusHandler propagates status transitions and listing removals. A sale
// or ending on one marketplace must take the item off every other
// marketplace before somebody buys it twice; a relist puts it back on.
type StatusHandler struct {
	items     catalog.ItemRepository
	links     listing.LinkRepository
	gateways  listing.GatewayRegistry
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewStatusHandler creates the handler for status_change and removed_listing
// events
func NewStatusHandler(
	items catalog.ItemRepository,
	links listing.LinkRepository,
	gateways listing.GatewayRegistry,
	logger *zap.Logger,
) *StatusHandler {
	return &StatusHandler{items: items, links: links, gateways: gateways, logger: logger}
}

// WithEventPublisher installs the bus that receives item lifecycle events
func (h *StatusHandler) WithEventPublisher(publisher shared.EventPublisher) *StatusHandler {
	h.publisher = publisher
	return h
}

// Handle processes one status_change or removed_listing event
func (h *StatusHandler) Handle(ctx context.Context, event *reconcile.ChangeEvent, payload reconcile.Payload) (*HandlerResult, error) {
	var raw string
	removed := false
	switch p := payload.(type) {
	case reconcile.StatusChangePayload:
		raw = p.NewStatus
	case reconcile.RemovedListingPayload:
		raw = p.LastStatus
		removed = true
	default:
		return nil, fmt.Errorf("status handler: unexpected payload %T", payload)
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

	canonical := listing.Canonicalize(event.Platform, raw)

	switch {
	case removed || canonical.IsEndState():
		// A vanished listing is treated as ended whatever its last status
		// was; the operator can relist if the removal was accidental.
		return h.propagateEnd(ctx, event, item, link, removed)
	case canonical == listing.StatusActive && item.IsSold():
		return h.propagateRelist(ctx, event, item, link)
	case canonical == listing.StatusActive, canonical == listing.StatusDraft:
		link.SetStatus(canonical)
		if err := h.links.Save(ctx, link); err != nil {
			return nil, err
		}
		return SkipResult(fmt.Sprintf("status %s recorded, no cross-platform consequence", canonical)), nil
	default:
		return SkipResult(fmt.Sprintf("unmapped status %q (platform %s); recorded nothing", raw, event.Platform)), nil
	}
}

// propagateEnd marks the item sold and ends its listings everywhere else
func (h *StatusHandler) propagateEnd(ctx context.Context, event *reconcile.ChangeEvent, item *catalog.Item, source *listing.PlatformLink, removed bool) (*HandlerResult, error) {
	if err := item.MarkSold(); err != nil {
		return nil, err
	}
	if err := h.items.Save(ctx, item); err != nil {
		return nil, err
	}
	publishItemEvents(ctx, h.publisher, item)

	if removed {
		source.End()
	} else {
		source.SetStatus(listing.StatusSold)
	}
	if err := h.links.Save(ctx, source); err != nil {
		return nil, err
	}

	result := NewHandlerResult()
	result.Note = fmt.Sprintf("item %s marked sold", item.SKU)
	if err := propagateStatus(ctx, h.links, h.gateways, h.logger, item.ID, source.ID, listing.StatusEnded, result); err != nil {
		return nil, err
	}
	return result, nil
}

// propagateRelist reactivates a sold item and its downstream listings
func (h *StatusHandler) propagateRelist(ctx context.Context, event *reconcile.ChangeEvent, item *catalog.Item, source *listing.PlatformLink) (*HandlerResult, error) {
	// A unique item's quantity mirrors sold/active, so the platform showing
	// it live implies one in stock. A stocked item's count is unknowable
	// from the status alone; the operator has to restock first.
	if item.Quantity == 0 && !item.IsStocked {
		if err := item.SetQuantity(1); err != nil {
			return nil, err
		}
	}
	if err := item.Relist(); err != nil {
		if errors.Is(err, catalog.ErrItemRelistNeedsQuantity) {
			return SkipResult("platform shows the listing active but the item has no quantity; relist manually"), nil
		}
		return nil, err
	}
	if err := h.items.Save(ctx, item); err != nil {
		return nil, err
	}
	publishItemEvents(ctx, h.publisher, item)

	source.SetStatus(listing.StatusActive)
	if err := h.links.Save(ctx, source); err != nil {
		return nil, err
	}

	result := NewHandlerResult()
	result.Note = fmt.Sprintf("item %s relisted", item.SKU)
	if err := propagateStatus(ctx, h.links, h.gateways, h.logger, item.ID, source.ID, listing.StatusActive, result); err != nil {
		return nil, err
	}
	return result, nil
}
