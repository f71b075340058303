package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gearsync/backend/internal/domain/catalog"
	"github.com/gearsync/backend/internal/domain/listing"
)

// MatcherWeights holds the empirically chosen similarity bands and signal
// weights. They are configuration, not law: expose them for calibration
// against a labeled dataset rather than hard-coding.
type MatcherWeights struct {
	StrongBand float64
	WeakBand   float64

	BrandStrong float64
	BrandWeak   float64
	ModelStrong float64
	ModelWeak   float64
	TitleStrong float64
	TitleWeak   float64

	YearClose  float64
	YearDecade float64

	PriceTight float64
	PriceLoose float64

	Description float64

	// AcceptThreshold is the minimum confidence to return a suggestion at
	// all; anything below forces manual resolution.
	AcceptThreshold float64
	// Cap bounds fuzzy scores; only an exact stock-key match reaches 1.0.
	Cap float64
}

// DefaultMatcherWeights returns the production defaults
func DefaultMatcherWeights() MatcherWeights {
	return MatcherWeights{
		StrongBand:      0.85,
		WeakBand:        0.65,
		BrandStrong:     0.35,
		BrandWeak:       0.20,
		ModelStrong:     0.35,
		ModelWeak:       0.20,
		TitleStrong:     0.20,
		TitleWeak:       0.10,
		YearClose:       0.10,
		YearDecade:      0.05,
		PriceTight:      0.10,
		PriceLoose:      0.05,
		Description:     0.05,
		AcceptThreshold: 0.45,
		Cap:             0.95,
	}
}

// Validate checks the weights are coherent
func (w *MatcherWeights) Validate() error {
	if w.StrongBand <= w.WeakBand {
		return fmt.Errorf("matcher: strong band %.2f must exceed weak band %.2f", w.StrongBand, w.WeakBand)
	}
	if w.AcceptThreshold <= 0 || w.AcceptThreshold >= 1 {
		return fmt.Errorf("matcher: accept threshold %.2f must be in (0,1)", w.AcceptThreshold)
	}
	if w.Cap >= 1 {
		return fmt.Errorf("matcher: fuzzy cap %.2f must stay below 1.0", w.Cap)
	}
	return nil
}

// matcherCatalog is the slice of the item repository the matcher needs
type matcherCatalog interface {
	catalog.ItemReader
	catalog.ItemSearcher
}

// Matcher resolves inbound listing payloads to existing canonical items.
// It is the engine's primary defense against double-listing the same
// physical item across marketplaces that share no common identifier.
type Matcher struct {
	items   matcherCatalog
	links   listing.LinkReader
	weights MatcherWeights
}

// NewMatcher creates a new entity matcher
func NewMatcher(items matcherCatalog, links listing.LinkReader, weights MatcherWeights) (*Matcher, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &Matcher{items: items, links: links, weights: weights}, nil
}

// Suggest produces the best match candidate for the payload, or nil when no
// candidate clears the acceptance threshold. An exact stock-key hit returns
// immediately with confidence 1.0 regardless of other field similarity.
func (m *Matcher) Suggest(ctx context.Context, platform listing.Platform, payload map[string]any) (*MatchSuggestion, error) {
	// Exact-key pass.
	for _, sku := range extractSKUCandidates(payload) {
		item, err := m.items.FindBySKU(ctx, sku)
		if err != nil {
			if errors.Is(err, catalog.ErrItemNotFound) {
				continue
			}
			return nil, err
		}
		return m.buildSuggestion(ctx, item, 1.0, fmt.Sprintf("exact SKU match on %q", sku))
	}

	// Attribute pass.
	brand, model := extractBrandModel(platform, payload)
	title := extractString(payload, titlePaths)

	var candidates []catalog.Item
	var err error
	if brand != "" {
		candidates, err = m.items.SearchByBrandModel(ctx, brand, model)
		if err != nil {
			return nil, err
		}
	}
	if len(candidates) == 0 {
		keywords := titleKeywords(title)
		if len(keywords) == 0 {
			return nil, nil
		}
		candidates, err = m.items.SearchByKeywords(ctx, keywords)
		if err != nil {
			return nil, err
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	// Scoring pass.
	price := extractPrice(payload)
	year := extractYear(payload)
	description := extractString(payload, descriptionPaths)

	var best *catalog.Item
	var bestScore float64
	var bestWhy string
	for i := range candidates {
		score, why := m.score(&candidates[i], brand, model, title, description, price, year)
		if score > bestScore {
			best = &candidates[i]
			bestScore = score
			bestWhy = why
		}
	}

	if best == nil || bestScore < m.weights.AcceptThreshold {
		return nil, nil
	}
	return m.buildSuggestion(ctx, best, bestScore, bestWhy)
}

// score accumulates the weighted independent signals for one candidate and
// returns the capped confidence plus a human-readable justification.
func (m *Matcher) score(item *catalog.Item, brand, model, title, description string, price decimal.Decimal, year *int) (float64, string) {
	w := m.weights
	var score float64
	var reasons []string

	if sim := Similarity(brand, item.Brand); sim > w.StrongBand {
		score += w.BrandStrong
		reasons = append(reasons, fmt.Sprintf("brand %.2f", sim))
	} else if sim > w.WeakBand {
		score += w.BrandWeak
		reasons = append(reasons, fmt.Sprintf("brand ~%.2f", sim))
	}

	if sim := Similarity(model, item.Model); sim > w.StrongBand {
		score += w.ModelStrong
		reasons = append(reasons, fmt.Sprintf("model %.2f", sim))
	} else if sim > w.WeakBand {
		score += w.ModelWeak
		reasons = append(reasons, fmt.Sprintf("model ~%.2f", sim))
	}

	itemTitle := strings.TrimSpace(item.Brand + " " + item.Model)
	if sim := Similarity(title, itemTitle); sim > w.StrongBand {
		score += w.TitleStrong
		reasons = append(reasons, fmt.Sprintf("title %.2f", sim))
	} else if sim > w.WeakBand {
		score += w.TitleWeak
		reasons = append(reasons, fmt.Sprintf("title ~%.2f", sim))
	}

	if year != nil {
		if item.Year != nil {
			diff := *year - *item.Year
			if diff < 0 {
				diff = -diff
			}
			if diff <= 1 {
				score += w.YearClose
				reasons = append(reasons, fmt.Sprintf("year %d", *year))
			} else if *year/10 == *item.Year/10 {
				score += w.YearDecade
				reasons = append(reasons, "same decade")
			}
		} else if item.Decade != nil && *year/10*10 == *item.Decade {
			score += w.YearDecade
			reasons = append(reasons, "same decade")
		}
	}

	if price.IsPositive() && item.BasePrice.IsPositive() {
		ratio := price.Sub(item.BasePrice).Abs().Div(item.BasePrice)
		if ratio.LessThanOrEqual(decimal.NewFromFloat(0.10)) {
			score += w.PriceTight
			reasons = append(reasons, "price within 10%")
		} else if ratio.LessThanOrEqual(decimal.NewFromFloat(0.20)) {
			score += w.PriceLoose
			reasons = append(reasons, "price within 20%")
		}
	}

	if sim := Similarity(description, item.Description); sim > w.WeakBand {
		score += w.Description
		reasons = append(reasons, "description")
	}

	if score > w.Cap {
		score = w.Cap
	}
	return score, strings.Join(reasons, ", ")
}

// buildSuggestion assembles the suggestion with the candidate's existing
// platform links.
func (m *Matcher) buildSuggestion(ctx context.Context, item *catalog.Item, confidence float64, justification string) (*MatchSuggestion, error) {
	links, err := m.links.FindByItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	platforms := make([]listing.Platform, 0, len(links))
	for _, link := range links {
		platforms = append(platforms, link.Platform)
	}
	return &MatchSuggestion{
		Item:            item,
		Confidence:      confidence,
		Justification:   justification,
		LinkedPlatforms: platforms,
	}, nil
}
