package reconcile

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/gearsync/backend/internal/domain/listing"
)

// quantityPaths are the fields a stock quantity may appear under
var quantityPaths = []string{"quantity", "inventory", "inventory_quantity", "qty", "stock"}

// ListingFields is the normalized view of a raw inbound listing document,
// extracted with the platform's own field paths. Zero values mean the field
// was absent or unreadable.
type ListingFields struct {
	SKUs        []string
	Brand       string
	Model       string
	Title       string
	Description string
	Price       decimal.Decimal
	Year        *int
	Quantity    *int
	RawStatus   string
	URL         string
}

// ExtractListingFields normalizes a raw listing document for item creation
// and matching. Extraction is best effort and never fails; downstream code
// decides what to do with missing fields.
func ExtractListingFields(platform listing.Platform, payload map[string]any) ListingFields {
	brand, model := extractBrandModel(platform, payload)
	fields := ListingFields{
		SKUs:        extractSKUCandidates(payload),
		Brand:       brand,
		Model:       model,
		Title:       extractString(payload, titlePaths),
		Description: extractString(payload, descriptionPaths),
		Price:       extractPrice(payload),
		Year:        extractYear(payload),
		RawStatus:   extractString(payload, []string{"status", "state", "listing_status"}),
		URL:         extractString(payload, []string{"url", "link", "_links_web", "view_item_url"}),
	}
	for _, path := range quantityPaths {
		v, ok := payload[path]
		if !ok {
			continue
		}
		if qty, ok := coerceQuantity(v); ok {
			fields.Quantity = &qty
			break
		}
	}
	return fields
}

func coerceQuantity(v any) (int, bool) {
	switch val := v.(type) {
	case float64:
		return int(val), true
	case int:
		return val, true
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return int(n), true
		}
	}
	return 0, false
}
