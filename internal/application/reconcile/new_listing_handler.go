package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/gearsync/backend/internal/domain/catalog"
	"github.com/gearsync/backend/internal/domain/listing"
	"github.com/gearsync/backend/internal/domain/reconcile"
	"github.com/gearsync/backend/internal/domain/shared"
)

// NewListingHandler reacts to a listing the canonical store has never seen.
// Depending on what the matcher says it either adopts the listing onto an
// existing item, parks the event for manual confirmation, or creates a new
// item and fans the listing out to every other configured marketplace.
type NewListingHandler struct {
	items       catalog.ItemRepository
	links       listing.LinkRepository
	matcher     *reconcile.Matcher
	gateways    listing.GatewayRegistry
	resolutions reconcile.ResolutionRepository
	publisher   shared.EventPublisher
	logger      *zap.Logger
}

// NewNewListingHandler creates the handler for new_listing events
func NewNewListingHandler(
	items catalog.ItemRepository,
	links listing.LinkRepository,
	matcher *reconcile.Matcher,
	gateways listing.GatewayRegistry,
	resolutions reconcile.ResolutionRepository,
	logger *zap.Logger,
) *NewListingHandler {
	return &NewListingHandler{
		items:       items,
		links:       links,
		matcher:     matcher,
		gateways:    gateways,
		resolutions: resolutions,
		logger:      logger,
	}
}

// WithEventPublisher installs the bus that receives item lifecycle events
func (h *NewListingHandler) WithEventPublisher(publisher shared.EventPublisher) *NewListingHandler {
	h.publisher = publisher
	return h
}

// Handle processes one new_listing event
func (h *NewListingHandler) Handle(ctx context.Context, event *reconcile.ChangeEvent, payload reconcile.Payload) (*HandlerResult, error) {
	p, ok := payload.(reconcile.NewListingPayload)
	if !ok {
		return nil, fmt.Errorf("new listing handler: unexpected payload %T", payload)
	}

	// The detector may fire again for a listing that was linked in the
	// meantime, e.g. after a manual force-match.
	if existing, err := h.links.FindByNativeID(ctx, event.Platform, event.ExternalID); err == nil {
		event.AttachItem(existing.ItemID)
		return SkipResult(fmt.Sprintf("listing already linked to item %s", existing.ItemID)), nil
	} else if !errors.Is(err, listing.ErrLinkNotFound) {
		return nil, err
	}

	suggestion, err := h.matcher.Suggest(ctx, event.Platform, p.Listing)
	if err != nil {
		return nil, fmt.Errorf("match new listing: %w", err)
	}

	fields := reconcile.ExtractListingFields(event.Platform, p.Listing)

	switch {
	case suggestion != nil && suggestion.IsExact():
		return h.adopt(ctx, event, suggestion.Item, fields)
	case suggestion != nil:
		// A probable but uncertain match must never silently merge two
		// physical items; leave the decision to the operator.
		return SkipResult(fmt.Sprintf(
			"probable match: item %s (%s %s) confidence %.2f [%s]; confirm via force-match or create manually",
			suggestion.Item.ID, suggestion.Item.Brand, suggestion.Item.Model,
			suggestion.Confidence, suggestion.Justification)), nil
	default:
		return h.createAndFanOut(ctx, event, fields, p.Listing)
	}
}

// adopt links the inbound listing onto an already-known item
func (h *NewListingHandler) adopt(ctx context.Context, event *reconcile.ChangeEvent, item *catalog.Item, fields reconcile.ListingFields) (*HandlerResult, error) {
	link, err := listing.NewPlatformLink(item.ID, event.Platform, event.ExternalID)
	if err != nil {
		return nil, err
	}
	if fields.RawStatus != "" {
		link.SetStatus(listing.Canonicalize(event.Platform, fields.RawStatus))
	}
	if fields.URL != "" {
		link.URL = fields.URL
	}
	link.RecordSyncSuccess()
	if err := h.links.Save(ctx, link); err != nil {
		return nil, err
	}

	event.AttachItem(item.ID)
	result := NewHandlerResult()
	result.Note = fmt.Sprintf("adopted onto existing item %s (%s)", item.ID, item.SKU)
	return result, nil
}

// createAndFanOut creates the canonical item, links the source listing and
// pushes the new listing to every other configured marketplace. The source
// side is committed before the fan-out starts and is never rolled back by a
// downstream failure.
func (h *NewListingHandler) createAndFanOut(ctx context.Context, event *reconcile.ChangeEvent, fields reconcile.ListingFields, source map[string]any) (*HandlerResult, error) {
	item, err := deriveItem(event, fields)
	if err != nil {
		if errors.Is(err, errUnderivableItem) {
			return SkipResult("listing document has no usable brand or title; create the item manually and force-match"), nil
		}
		return nil, err
	}
	if err := h.items.Save(ctx, item); err != nil {
		return nil, fmt.Errorf("save new item: %w", err)
	}
	publishItemEvents(ctx, h.publisher, item)
	event.AttachItem(item.ID)

	sourceLink, err := listing.NewPlatformLink(item.ID, event.Platform, event.ExternalID)
	if err != nil {
		return nil, err
	}
	if fields.URL != "" {
		sourceLink.URL = fields.URL
	}
	sourceLink.SetStatus(listing.StatusActive)
	sourceLink.RecordSyncSuccess()
	if err := h.links.Save(ctx, sourceLink); err != nil {
		return nil, fmt.Errorf("save source link: %w", err)
	}

	// The verdict counts downstream platforms only; the source side is
	// already committed and stays committed whatever the fan-out does.
	result := NewHandlerResult()
	result.Note = fmt.Sprintf("created item %s (%s), source %s committed", item.ID, item.SKU, event.Platform)

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, platform := range h.gateways.Platforms() {
		if platform == event.Platform {
			continue
		}
		wg.Add(1)
		go func(platform listing.Platform) {
			defer wg.Done()
			err := h.listOn(ctx, platform, item, source)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.AddFailure(platform, err)
			} else {
				result.AddSuccess(platform)
			}
		}(platform)
	}
	wg.Wait()

	return result, nil
}

// listOn creates the listing on one downstream platform and records the link
func (h *NewListingHandler) listOn(ctx context.Context, platform listing.Platform, item *catalog.Item, source map[string]any) error {
	gateway, err := h.gateways.Gateway(platform)
	if err != nil {
		return err
	}

	created, err := gateway.CreateListing(ctx, item, source)
	if err != nil {
		return err
	}

	link, err := listing.NewPlatformLink(item.ID, platform, created.NativeID)
	if err != nil {
		return err
	}
	link.URL = created.URL
	link.SetStatus(listing.StatusActive)
	link.RecordSyncSuccess()
	if err := h.links.Save(ctx, link); err != nil {
		return err
	}

	// Platforms that assign identifiers asynchronously come back without a
	// native ID; park the link for the resolver's inventory sweeps.
	if created.NativeID == "" {
		pending := reconcile.NewPendingResolution(link.ID, item.ID, platform)
		if err := h.resolutions.Save(ctx, pending); err != nil {
			return fmt.Errorf("enqueue identifier resolution: %w", err)
		}
		h.logger.Info("native identifier deferred",
			zap.String("platform", string(platform)),
			zap.String("item_id", item.ID.String()))
	}
	return nil
}

var errUnderivableItem = errors.New("cannot derive item from listing document")

// deriveItem derives a canonical item from the extracted listing fields
func deriveItem(event *reconcile.ChangeEvent, fields reconcile.ListingFields) (*catalog.Item, error) {
	brand := fields.Brand
	model := fields.Model
	if brand == "" {
		// Fall back to reading "Brand Model ..." off the title.
		words := strings.Fields(fields.Title)
		if len(words) == 0 {
			return nil, errUnderivableItem
		}
		brand = words[0]
		if model == "" && len(words) > 1 {
			model = strings.Join(words[1:], " ")
		}
	}

	sku := fmt.Sprintf("%s-%s", event.Platform, event.ExternalID)
	if len(fields.SKUs) > 0 {
		sku = fields.SKUs[0]
	}

	var item *catalog.Item
	var err error
	if fields.Quantity != nil && *fields.Quantity > 1 {
		item, err = catalog.NewStockedItem(sku, brand, model, *fields.Quantity)
	} else {
		item, err = catalog.NewItem(sku, brand, model)
	}
	if err != nil {
		return nil, err
	}

	item.Description = fields.Description
	item.Year = fields.Year
	if fields.Year != nil {
		decade := *fields.Year / 10 * 10
		item.Decade = &decade
	}
	if fields.Price.IsPositive() {
		if err := item.SetPrice(fields.Price); err != nil {
			return nil, err
		}
	}
	return item, nil
}
