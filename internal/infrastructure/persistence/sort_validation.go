package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// ItemSortFields contains allowed sort fields for catalog items
var ItemSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"sku":        true,
	"brand":      true,
	"model":      true,
	"year":       true,
	"base_price": true,
	"status":     true,
	"quantity":   true,
}

// EventSortFields contains allowed sort fields for change events
var EventSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"detected_at":  true,
	"processed_at": true,
	"platform":     true,
	"change_type":  true,
	"status":       true,
}

// ResolutionSortFields contains allowed sort fields for pending resolutions
var ResolutionSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"platform":        true,
	"status":          true,
	"attempts":        true,
	"next_attempt_at": true,
	"resolved_at":     true,
}
