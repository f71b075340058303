package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gearsync/backend/internal/domain/catalog"
	"github.com/gearsync/backend/internal/domain/listing"
	"github.com/gearsync/backend/internal/domain/reconcile"
	"github.com/gearsync/backend/internal/domain/shared"
)

// ManualService carries the operator's override paths: everything the
// automated pipeline deliberately refuses to decide ends up here.
type ManualService struct {
	events      reconcile.EventRepository
	items       catalog.ItemRepository
	links       listing.LinkRepository
	gateways    listing.GatewayRegistry
	resolutions reconcile.ResolutionRepository
	resolver    *Resolver
	publisher   shared.EventPublisher
	logger      *zap.Logger
}

// NewManualService creates the operator override service
func NewManualService(
	events reconcile.EventRepository,
	items catalog.ItemRepository,
	links listing.LinkRepository,
	gateways listing.GatewayRegistry,
	resolutions reconcile.ResolutionRepository,
	resolver *Resolver,
	logger *zap.Logger,
) *ManualService {
	return &ManualService{
		events:      events,
		items:       items,
		links:       links,
		gateways:    gateways,
		resolutions: resolutions,
		resolver:    resolver,
		logger:      logger,
	}
}

// WithEventPublisher installs the bus that receives item lifecycle events
func (s *ManualService) WithEventPublisher(publisher shared.EventPublisher) *ManualService {
	s.publisher = publisher
	return s
}

// ---------------------------------------------------------------------------
// Event queries
// ---------------------------------------------------------------------------

// ListEvents lists change events with filtering and pagination
func (s *ManualService) ListEvents(ctx context.Context, filter reconcile.EventFilter) ([]reconcile.ChangeEvent, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	return s.events.FindAll(ctx, filter)
}

// GetEvent retrieves one change event
func (s *ManualService) GetEvent(ctx context.Context, id uuid.UUID) (*reconcile.ChangeEvent, error) {
	return s.events.FindByID(ctx, id)
}

// ---------------------------------------------------------------------------
// Event overrides
// ---------------------------------------------------------------------------

// SkipEvent closes a pending event without any propagation
func (s *ManualService) SkipEvent(ctx context.Context, id uuid.UUID, reason string) (*reconcile.ChangeEvent, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := event.MarkSkipped(fmt.Sprintf("skipped by operator: %s", reason)); err != nil {
		return nil, err
	}
	if err := s.events.Save(ctx, event); err != nil {
		return nil, err
	}
	s.logger.Info("event skipped by operator",
		zap.String("event_id", id.String()),
		zap.String("reason", reason))
	return event, nil
}

// ForceMatch binds an event's listing to the item with the given SKU,
// overriding whatever the matcher concluded, and queues a fresh attempt so
// the pipeline propagates with the corrected identity.
func (s *ManualService) ForceMatch(ctx context.Context, eventID uuid.UUID, sku string) (*reconcile.ChangeEvent, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	item, err := s.items.FindBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}

	// Link the listing to the item unless it already is.
	_, err = s.links.FindByNativeID(ctx, event.Platform, event.ExternalID)
	if errors.Is(err, listing.ErrLinkNotFound) {
		link, linkErr := listing.NewPlatformLink(item.ID, event.Platform, event.ExternalID)
		if linkErr != nil {
			return nil, linkErr
		}
		link.RecordSyncSuccess()
		if linkErr := s.links.Save(ctx, link); linkErr != nil {
			return nil, linkErr
		}
	} else if err != nil {
		return nil, err
	}

	event.AttachItem(item.ID)
	event.AppendNote(fmt.Sprintf("operator force-matched to item %s (%s)", item.ID, item.SKU))
	if err := s.events.Save(ctx, event); err != nil {
		return nil, err
	}

	if !event.Status.IsTerminal() {
		// Still queued; the worker will pick it up with the identity set.
		return event, nil
	}
	return s.Reprocess(ctx, eventID)
}

// Reprocess queues a fresh attempt of a terminal event. The original keeps
// its outcome; the new attempt goes through the normal worker pipeline.
func (s *ManualService) Reprocess(ctx context.Context, eventID uuid.UUID) (*reconcile.ChangeEvent, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	attempt, err := event.NewAttempt()
	if err != nil {
		return nil, err
	}
	if err := s.events.Save(ctx, attempt); err != nil {
		return nil, err
	}
	s.logger.Info("event queued for reprocessing",
		zap.String("event_id", eventID.String()),
		zap.String("attempt_id", attempt.ID.String()))
	return attempt, nil
}

// ActivateLocal creates the canonical item and source link for a new-listing
// event without touching any other marketplace. Used when the operator wants
// the record on file but the cross-listing handled by hand.
func (s *ManualService) ActivateLocal(ctx context.Context, eventID uuid.UUID) (*catalog.Item, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.ChangeType != reconcile.ChangeTypeNewListing {
		return nil, shared.NewDomainError("NOT_NEW_LISTING", "Only new-listing events can be activated locally")
	}

	payload, err := event.DecodePayload()
	if err != nil {
		return nil, err
	}
	p, ok := payload.(reconcile.NewListingPayload)
	if !ok {
		return nil, reconcile.ErrEventInvalidType
	}

	if existing, err := s.links.FindByNativeID(ctx, event.Platform, event.ExternalID); err == nil {
		return nil, shared.NewDomainError("ALREADY_LINKED",
			fmt.Sprintf("Listing is already linked to item %s", existing.ItemID))
	} else if !errors.Is(err, listing.ErrLinkNotFound) {
		return nil, err
	}

	fields := reconcile.ExtractListingFields(event.Platform, p.Listing)
	item, err := deriveItem(event, fields)
	if err != nil {
		return nil, err
	}
	if err := s.items.Save(ctx, item); err != nil {
		return nil, err
	}
	publishItemEvents(ctx, s.publisher, item)

	link, err := listing.NewPlatformLink(item.ID, event.Platform, event.ExternalID)
	if err != nil {
		return nil, err
	}
	if fields.URL != "" {
		link.URL = fields.URL
	}
	link.SetStatus(listing.StatusActive)
	link.RecordSyncSuccess()
	if err := s.links.Save(ctx, link); err != nil {
		return nil, err
	}

	event.AttachItem(item.ID)
	event.AppendNote(fmt.Sprintf("operator activated locally as item %s (%s)", item.ID, item.SKU))
	if !event.Status.IsTerminal() {
		if err := event.Claim(); err != nil {
			return nil, err
		}
		if err := event.MarkProcessed("activated locally, no cross-platform propagation"); err != nil {
			return nil, err
		}
	}
	if err := s.events.Save(ctx, event); err != nil {
		return nil, err
	}
	return item, nil
}

// ---------------------------------------------------------------------------
// Item overrides
// ---------------------------------------------------------------------------

// RelistItem puts a sold item back on sale and reactivates its listings on
// every platform. A unique item with quantity 0 gets quantity 1 back.
func (s *ManualService) RelistItem(ctx context.Context, itemID uuid.UUID) (*HandlerResult, error) {
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Quantity == 0 && !item.IsStocked {
		if err := item.SetQuantity(1); err != nil {
			return nil, err
		}
	}
	if err := item.Relist(); err != nil {
		return nil, err
	}
	if err := s.items.Save(ctx, item); err != nil {
		return nil, err
	}
	publishItemEvents(ctx, s.publisher, item)

	result := NewHandlerResult()
	result.Note = fmt.Sprintf("item %s relisted by operator", item.SKU)
	if err := propagateStatus(ctx, s.links, s.gateways, s.logger, item.ID, uuid.Nil, listing.StatusActive, result); err != nil {
		return nil, err
	}
	return result, nil
}

// ForceEnd marks an item sold and ends its listings on every platform
func (s *ManualService) ForceEnd(ctx context.Context, itemID uuid.UUID) (*HandlerResult, error) {
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := item.MarkSold(); err != nil {
		return nil, err
	}
	if err := s.items.Save(ctx, item); err != nil {
		return nil, err
	}
	publishItemEvents(ctx, s.publisher, item)

	result := NewHandlerResult()
	result.Note = fmt.Sprintf("item %s force-ended by operator", item.SKU)
	if err := propagateStatus(ctx, s.links, s.gateways, s.logger, item.ID, uuid.Nil, listing.StatusEnded, result); err != nil {
		return nil, err
	}
	return result, nil
}

// ---------------------------------------------------------------------------
// Identifier resolutions
// ---------------------------------------------------------------------------

// ListResolutions lists pending identifier resolutions
func (s *ManualService) ListResolutions(ctx context.Context, filter shared.Filter) ([]reconcile.PendingResolution, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	return s.resolutions.FindAll(ctx, filter)
}

// TriggerResolution runs one resolution attempt immediately, reviving dead
// entries first.
func (s *ManualService) TriggerResolution(ctx context.Context, id uuid.UUID) (*reconcile.PendingResolution, error) {
	pending, err := s.resolutions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if pending.Status == reconcile.ResolutionStatusDead {
		if err := pending.Revive(); err != nil {
			return nil, err
		}
	}
	if err := s.resolver.Resolve(ctx, pending); err != nil {
		return nil, err
	}
	return pending, nil
}
