package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/gearsync/backend/internal/domain/catalog"
	"github.com/gearsync/backend/internal/domain/listing"
	"github.com/gearsync/backend/internal/domain/reconcile"
)

// Resolution scoring, out of 100 points. Brand agreement is mandatory;
// model and price narrow down between similar listings of the same brand.
const (
	resolverBrandPoints    = 40
	resolverModelStrong    = 35
	resolverModelWeak      = 20
	resolverPriceTight     = 25
	resolverPriceLoose     = 15
	resolverAcceptScore    = 60
	defaultSnapshotTimeout = 45 * time.Second
)

// Resolver performs the second phase of identifier resolution: it sweeps a
// platform's live inventory looking for the listing that corresponds to a
// link created without a native ID, and claims the ID onto the link exactly
// once. Links that already carry a native ID are never overwritten.
type Resolver struct {
	items           catalog.ItemReader
	links           listing.LinkRepository
	gateways        listing.GatewayRegistry
	resolutions     reconcile.ResolutionRepository
	snapshotTimeout time.Duration
	logger          *zap.Logger
}

// NewResolver creates a resolver. A zero snapshotTimeout falls back to the
// default.
func NewResolver(
	items catalog.ItemReader,
	links listing.LinkRepository,
	gateways listing.GatewayRegistry,
	resolutions reconcile.ResolutionRepository,
	snapshotTimeout time.Duration,
	logger *zap.Logger,
) *Resolver {
	if snapshotTimeout <= 0 {
		snapshotTimeout = defaultSnapshotTimeout
	}
	return &Resolver{
		items:           items,
		links:           links,
		gateways:        gateways,
		resolutions:     resolutions,
		snapshotTimeout: snapshotTimeout,
		logger:          logger,
	}
}

// Resolve attempts one pending resolution. Inconclusive outcomes (snapshot
// timeout, no confident candidate) defer the entry with backoff rather than
// failing it; the returned error reports only persistence faults.
func (r *Resolver) Resolve(ctx context.Context, pending *reconcile.PendingResolution) error {
	log := r.logger.With(
		zap.String("resolution_id", pending.ID.String()),
		zap.String("platform", string(pending.Platform)),
		zap.String("link_id", pending.LinkID.String()))

	link, err := r.links.FindByID(ctx, pending.LinkID)
	if err != nil {
		if errors.Is(err, listing.ErrLinkNotFound) {
			// Link got deleted; nothing left to resolve.
			pending.MarkResolved()
			return r.resolutions.Save(ctx, pending)
		}
		return err
	}
	if link.IsResolved() {
		log.Info("link already resolved")
		pending.MarkResolved()
		return r.resolutions.Save(ctx, pending)
	}

	item, err := r.items.FindByID(ctx, pending.ItemID)
	if err != nil {
		return err
	}

	candidate, score, err := r.findCandidate(ctx, pending.Platform, item)
	if err != nil {
		log.Warn("inventory sweep failed", zap.Error(err))
		pending.Defer(err.Error())
		return r.resolutions.Save(ctx, pending)
	}
	if candidate == nil {
		log.Info("no confident candidate in inventory snapshot")
		pending.Defer("no confident candidate")
		return r.resolutions.Save(ctx, pending)
	}

	if err := link.ResolveNativeID(candidate.NativeID, candidate.URL); err != nil {
		return err
	}
	link.SetStatus(listing.Canonicalize(pending.Platform, candidate.RawStatus))
	link.RecordSyncSuccess()
	if err := r.links.Save(ctx, link); err != nil {
		return err
	}

	pending.MarkResolved()
	if err := r.resolutions.Save(ctx, pending); err != nil {
		return err
	}

	log.Info("native identifier resolved",
		zap.String("native_id", candidate.NativeID),
		zap.Int("score", score))
	return nil
}

// findCandidate snapshots the platform inventory and scores the entries not
// yet linked to any item.
func (r *Resolver) findCandidate(ctx context.Context, platform listing.Platform, item *catalog.Item) (*listing.RawListing, int, error) {
	gateway, err := r.gateways.Gateway(platform)
	if err != nil {
		return nil, 0, err
	}

	snapCtx, cancel := context.WithTimeout(ctx, r.snapshotTimeout)
	defer cancel()
	snapshot, err := gateway.FetchInventorySnapshot(snapCtx)
	if err != nil {
		return nil, 0, fmt.Errorf("inventory snapshot: %w", err)
	}

	known, err := r.links.NativeIDsForPlatform(ctx, platform)
	if err != nil {
		return nil, 0, err
	}
	linked := make(map[string]struct{}, len(known))
	for _, id := range known {
		linked[id] = struct{}{}
	}

	var best *listing.RawListing
	bestScore := 0
	for i := range snapshot {
		entry := &snapshot[i]
		if entry.NativeID == "" {
			continue
		}
		if _, taken := linked[entry.NativeID]; taken {
			continue
		}
		score := scoreCandidate(item, entry)
		if score > bestScore {
			best = entry
			bestScore = score
		}
	}

	if best == nil || bestScore < resolverAcceptScore {
		return nil, bestScore, nil
	}
	return best, bestScore, nil
}

// scoreCandidate rates one snapshot entry against the item. No brand
// agreement means no candidacy at all, whatever the rest looks like.
func scoreCandidate(item *catalog.Item, entry *listing.RawListing) int {
	brand := entry.Brand
	model := entry.Model
	if brand == "" && entry.Title != "" {
		// Some platforms only return a composed title.
		brand = entry.Title
		model = entry.Title
	}

	if reconcile.Similarity(brand, item.Brand) <= 0.65 &&
		reconcile.Similarity(brand, item.Brand+" "+item.Model) <= 0.65 {
		return 0
	}
	score := resolverBrandPoints

	if sim := reconcile.Similarity(model, item.Model); sim > 0.85 {
		score += resolverModelStrong
	} else if sim > 0.65 {
		score += resolverModelWeak
	}

	if entry.Price.IsPositive() && item.BasePrice.IsPositive() {
		ratio := entry.Price.Sub(item.BasePrice).Abs().Div(item.BasePrice)
		if ratio.LessThanOrEqual(decimal.NewFromFloat(0.10)) {
			score += resolverPriceTight
		} else if ratio.LessThanOrEqual(decimal.NewFromFloat(0.20)) {
			score += resolverPriceLoose
		}
	}

	return score
}
