package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gearsync/backend/internal/domain/catalog"
	"github.com/gearsync/backend/internal/domain/listing"
	"github.com/gearsync/backend/internal/infrastructure/config"
)

// EbayGateway talks to the eBay sell API using an OAuth user token. Structured
// item attributes travel as item specifics, which the snapshot read maps back
// into RawListing fields.
type EbayGateway struct {
	config     config.GatewayConfig
	httpClient *http.Client
}

// NewEbayGateway creates an eBay gateway from the configured credentials
func NewEbayGateway(cfg config.GatewayConfig) *EbayGateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &EbayGateway{
		config:     cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Platform returns the platform code this gateway handles
func (g *EbayGateway) Platform() listing.Platform {
	return listing.PlatformEbay
}

type ebayPrice struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type ebayListing struct {
	ListingID     string            `json:"listingId"`
	Title         string            `json:"title"`
	Description   string            `json:"description,omitempty"`
	SKU           string            `json:"sku,omitempty"`
	Price         ebayPrice         `json:"price"`
	Quantity      int               `json:"quantity"`
	ListingStatus string            `json:"listingStatus,omitempty"`
	ListingURL    string            `json:"listingUrl,omitempty"`
	ItemSpecifics map[string]string `json:"itemSpecifics,omitempty"`
	ImageURLs     []string          `json:"imageUrls,omitempty"`
}

type ebayListingsPage struct {
	Listings []ebayListing `json:"listings"`
	Total    int           `json:"total"`
	Offset   int           `json:"offset"`
	Limit    int           `json:"limit"`
}

// CreateListing publishes the item as a new eBay listing
func (g *EbayGateway) CreateListing(ctx context.Context, item *catalog.Item, source map[string]any) (*listing.CreateListingResult, error) {
	specifics := map[string]string{
		"Brand": item.Brand,
		"Model": item.Model,
	}
	if item.Year != nil {
		specifics["Year"] = fmt.Sprintf("%d", *item.Year)
	}
	if item.Finish != "" {
		specifics["Finish"] = item.Finish
	}

	payload := ebayListing{
		Title:       listingTitle(item),
		Description: item.Description,
		SKU:         item.SKU,
		Price: ebayPrice{
			Value:    item.BasePrice.StringFixed(2),
			Currency: "USD",
		},
		Quantity:      listingQuantity(item),
		ItemSpecifics: specifics,
		ImageURLs:     item.ImageURLs,
	}

	body, err := g.doRequest(ctx, http.MethodPost, "/sell/listing", payload)
	if err != nil {
		return nil, err
	}

	var created ebayListing
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("ebay: failed to parse create response: %w", err)
	}
	if created.ListingID == "" {
		return nil, fmt.Errorf("ebay: create response carried no listing id")
	}

	return &listing.CreateListingResult{
		NativeID: created.ListingID,
		URL:      created.ListingURL,
	}, nil
}

// UpdateStatus translates a canonical status into eBay's end and relist calls
func (g *EbayGateway) UpdateStatus(ctx context.Context, nativeID string, status listing.Status) error {
	switch status {
	case listing.StatusSold:
		_, err := g.doRequest(ctx, http.MethodPost, "/sell/listing/"+nativeID+"/end",
			map[string]string{"reason": "Sold"})
		return err
	case listing.StatusEnded:
		_, err := g.doRequest(ctx, http.MethodPost, "/sell/listing/"+nativeID+"/end",
			map[string]string{"reason": "NotAvailable"})
		return err
	case listing.StatusActive:
		_, err := g.doRequest(ctx, http.MethodPost, "/sell/listing/"+nativeID+"/relist", nil)
		return err
	default:
		return fmt.Errorf("ebay: cannot push status %s", status)
	}
}

// UpdateQuantity pushes a quantity to an existing listing
func (g *EbayGateway) UpdateQuantity(ctx context.Context, nativeID string, quantity int) error {
	_, err := g.doRequest(ctx, http.MethodPut, "/sell/listing/"+nativeID+"/quantity",
		map[string]int{"quantity": quantity})
	return err
}

// UpdatePrice pushes a new asking price to an existing listing
func (g *EbayGateway) UpdatePrice(ctx context.Context, nativeID string, price decimal.Decimal) error {
	_, err := g.doRequest(ctx, http.MethodPut, "/sell/listing/"+nativeID+"/price",
		map[string]ebayPrice{"price": {Value: price.StringFixed(2), Currency: "USD"}})
	return err
}

// FetchQuantity reads the current quantity of a listing
func (g *EbayGateway) FetchQuantity(ctx context.Context, nativeID string) (int, error) {
	body, err := g.doRequest(ctx, http.MethodGet, "/sell/listing/"+nativeID, nil)
	if err != nil {
		return 0, err
	}

	var l ebayListing
	if err := json.Unmarshal(body, &l); err != nil {
		return 0, fmt.Errorf("ebay: failed to parse listing response: %w", err)
	}
	return l.Quantity, nil
}

// FetchInventorySnapshot pages through the seller's listings
func (g *EbayGateway) FetchInventorySnapshot(ctx context.Context) ([]listing.RawListing, error) {
	const pageSize = 100
	snapshot := make([]listing.RawListing, 0)

	for offset := 0; ; offset += pageSize {
		path := fmt.Sprintf("/sell/listing?limit=%d&offset=%d", pageSize, offset)
		body, err := g.doRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}

		var resp ebayListingsPage
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("ebay: failed to parse listings page: %w", err)
		}

		for _, l := range resp.Listings {
			snapshot = append(snapshot, g.toRawListing(l))
		}

		if len(resp.Listings) == 0 || offset+len(resp.Listings) >= resp.Total {
			break
		}
	}

	return snapshot, nil
}

func (g *EbayGateway) toRawListing(l ebayListing) listing.RawListing {
	price, err := decimal.NewFromString(l.Price.Value)
	if err != nil {
		price = decimal.Zero
	}

	fields := map[string]any{}
	if l.SKU != "" {
		fields["sku"] = l.SKU
	}
	for k, v := range l.ItemSpecifics {
		fields[k] = v
	}

	return listing.RawListing{
		NativeID:  l.ListingID,
		Title:     l.Title,
		Brand:     l.ItemSpecifics["Brand"],
		Model:     l.ItemSpecifics["Model"],
		Price:     price,
		Quantity:  l.Quantity,
		RawStatus: l.ListingStatus,
		URL:       l.ListingURL,
		Fields:    fields,
	}
}

func (g *EbayGateway) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var encoded []byte
	if payload != nil {
		var err error
		encoded, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("ebay: failed to encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, g.config.BaseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("ebay: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.config.AuthToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", listing.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("ebay: failed to read response: %w", err)
	}

	if err := mapHTTPStatus(listing.PlatformEbay, resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

var _ listing.Gateway = (*EbayGateway)(nil)
