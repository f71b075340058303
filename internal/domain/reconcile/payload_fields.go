package reconcile

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gearsync/backend/internal/domain/listing"
)

// Per-platform field paths for the attribute pass. Platforms name the same
// concept differently; the first path with a non-empty value wins.
var (
	brandPaths = map[listing.Platform][]string{
		listing.PlatformEbay:           {"brand", "Brand"},
		listing.PlatformReverb:         {"make", "brand"},
		listing.PlatformVintageAndRare: {"brand_name", "brand"},
		listing.PlatformShopify:        {"vendor", "brand"},
	}
	modelPaths = map[listing.Platform][]string{
		listing.PlatformEbay:           {"model", "Model"},
		listing.PlatformReverb:         {"model"},
		listing.PlatformVintageAndRare: {"model_name", "model"},
		listing.PlatformShopify:        {"model", "product_type"},
	}
	titlePaths       = []string{"title", "Title", "name", "product_name"}
	descriptionPaths = []string{"description", "body_html", "notes"}
	pricePaths       = []string{"price", "base_price", "amount", "buy_it_now_price"}
	yearPaths        = []string{"year", "Year"}
)

// skuFieldNames are the explicit key fields a stock-keeping key may hide in
var skuFieldNames = []string{"sku", "seller_sku", "custom_label", "custom_sku", "inventory_number", "stock_number"}

// extractSKUCandidates pulls every plausible stock-keeping key out of an
// inbound payload: explicit key fields, variant keys, and item-specifics
// key/value pairs whose name mentions a SKU.
func extractSKUCandidates(payload map[string]any) []string {
	seen := make(map[string]struct{})
	var out []string

	add := func(v any) {
		s, ok := v.(string)
		if !ok {
			return
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		key := strings.ToUpper(s)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}

	for _, name := range skuFieldNames {
		for k, v := range payload {
			if strings.EqualFold(k, name) {
				add(v)
			}
		}
	}

	if variants, ok := payload["variants"].([]any); ok {
		for _, raw := range variants {
			if variant, ok := raw.(map[string]any); ok {
				for _, name := range skuFieldNames {
					if v, ok := variant[name]; ok {
						add(v)
					}
				}
			}
		}
	}

	switch specifics := payload["item_specifics"].(type) {
	case map[string]any:
		for name, v := range specifics {
			if strings.Contains(strings.ToLower(name), "sku") {
				add(v)
			}
		}
	case []any:
		for _, raw := range specifics {
			pair, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			name, _ := pair["name"].(string)
			if strings.Contains(strings.ToLower(name), "sku") {
				add(pair["value"])
			}
		}
	}

	return out
}

// extractString returns the first non-empty string found at the given paths
func extractString(payload map[string]any, paths []string) string {
	for _, path := range paths {
		if v, ok := payload[path]; ok {
			if s, ok := v.(string); ok {
				s = strings.TrimSpace(s)
				if s != "" {
					return s
				}
			}
		}
	}
	return ""
}

// extractBrandModel resolves brand and model using the platform's field paths
func extractBrandModel(platform listing.Platform, payload map[string]any) (string, string) {
	brand := extractString(payload, brandPaths[platform])
	model := extractString(payload, modelPaths[platform])
	return brand, model
}

// extractPrice digs a price out of the payload, tolerating numbers, numeric
// strings and Reverb-style {"amount": "..."} documents.
func extractPrice(payload map[string]any) decimal.Decimal {
	for _, path := range pricePaths {
		v, ok := payload[path]
		if !ok {
			continue
		}
		if price, ok := coercePrice(v); ok {
			return price
		}
	}
	return decimal.Zero
}

func coercePrice(v any) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val), true
	case int:
		return decimal.NewFromInt(int64(val)), true
	case json.Number:
		if d, err := decimal.NewFromString(val.String()); err == nil {
			return d, true
		}
	case string:
		cleaned := strings.TrimSpace(strings.TrimPrefix(val, "$"))
		cleaned = strings.ReplaceAll(cleaned, ",", "")
		if cleaned == "" {
			return decimal.Zero, false
		}
		if d, err := decimal.NewFromString(cleaned); err == nil {
			return d, true
		}
	case map[string]any:
		if amount, ok := val["amount"]; ok {
			return coercePrice(amount)
		}
	}
	return decimal.Zero, false
}

// extractYear parses a year from the payload; "1959" and 1959.0 both work,
// and decade strings like "1950s" yield the decade's first year.
func extractYear(payload map[string]any) *int {
	for _, path := range yearPaths {
		v, ok := payload[path]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case float64:
			year := int(val)
			if plausibleYear(year) {
				return &year
			}
		case string:
			s := strings.TrimSuffix(strings.TrimSpace(strings.ToLower(val)), "s")
			if year, err := strconv.Atoi(s); err == nil && plausibleYear(year) {
				return &year
			}
		}
	}
	return nil
}

func plausibleYear(year int) bool {
	return year >= 1800 && year <= 2100
}

// titleKeywords returns the first three keywords of length > 2 from a title,
// used for the fallback candidate search.
func titleKeywords(title string) []string {
	var keywords []string
	for _, word := range strings.Fields(strings.ToLower(title)) {
		word = strings.Trim(word, ".,!?:;\"'()")
		if len(word) > 2 {
			keywords = append(keywords, word)
			if len(keywords) == 3 {
				break
			}
		}
	}
	return keywords
}
