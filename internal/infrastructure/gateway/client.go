package gateway

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gearsync/backend/internal/domain/catalog"
	"github.com/gearsync/backend/internal/domain/listing"
)

// maxResponseSize is the maximum allowed response size from a marketplace API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// readBody drains at most maxResponseSize bytes of a response body
func readBody(resp *http.Response) ([]byte, error) {
	return io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
}

// mapHTTPStatus converts a marketplace HTTP status into the shared gateway
// error vocabulary. Statuses below 400 map to nil.
func mapHTTPStatus(platform listing.Platform, status int, body []byte) error {
	switch {
	case status < 400:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s HTTP %d", listing.ErrGatewayAuthFailed, platform, status)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s HTTP %d", listing.ErrGatewayRateLimited, platform, status)
	case status >= 500:
		return fmt.Errorf("%w: %s HTTP %d", listing.ErrGatewayUnavailable, platform, status)
	default:
		return fmt.Errorf("%s: HTTP %d: %s", strings.ToLower(string(platform)), status, truncate(body, 256))
	}
}

func truncate(body []byte, n int) string {
	s := strings.TrimSpace(string(body))
	if len(s) > n {
		return s[:n]
	}
	return s
}

// listingTitle builds a human-facing title from the canonical record, the
// same shape the merchant uses on every marketplace
func listingTitle(item *catalog.Item) string {
	parts := make([]string, 0, 4)
	if item.Year != nil {
		parts = append(parts, strconv.Itoa(*item.Year))
	} else if item.Decade != nil {
		parts = append(parts, fmt.Sprintf("%ds", *item.Decade))
	}
	parts = append(parts, item.Brand, item.Model)
	if item.Finish != "" {
		parts = append(parts, item.Finish)
	}
	return strings.Join(parts, " ")
}

// listingQuantity returns the quantity to publish for an item. Unique items
// always list as a single unit.
func listingQuantity(item *catalog.Item) int {
	if !item.IsStocked {
		return 1
	}
	return item.Quantity
}
