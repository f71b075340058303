package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gearsync/backend/internal/domain/catalog"
	"github.com/gearsync/backend/internal/domain/listing"
	"github.com/gearsync/backend/internal/infrastructure/config"
)

// ReverbGateway talks to the Reverb listings API. Reverb assigns listing IDs
// synchronously, so CreateListing always returns a resolved NativeID.
type ReverbGateway struct {
	config     config.GatewayConfig
	httpClient *http.Client
}

// NewReverbGateway creates a Reverb gateway from the configured credentials
func NewReverbGateway(cfg config.GatewayConfig) *ReverbGateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ReverbGateway{
		config:     cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Platform returns the platform code this gateway handles
func (g *ReverbGateway) Platform() listing.Platform {
	return listing.PlatformReverb
}

// reverbListing mirrors the subset of Reverb's listing payload the engine
// reads back
type reverbListing struct {
	ID        int64  `json:"id"`
	Make      string `json:"make"`
	Model     string `json:"model"`
	Title     string `json:"title"`
	SKU       string `json:"sku"`
	Year      string `json:"year"`
	Finish    string `json:"finish"`
	Inventory int    `json:"inventory"`
	Price     struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	} `json:"price"`
	State struct {
		Slug string `json:"slug"`
	} `json:"state"`
	Links struct {
		Web struct {
			Href string `json:"href"`
		} `json:"web"`
	} `json:"_links"`
}

type reverbListingsPage struct {
	Listings    []reverbListing `json:"listings"`
	CurrentPage int             `json:"current_page"`
	TotalPages  int             `json:"total_pages"`
}

// CreateListing publishes the item as a new Reverb listing
func (g *ReverbGateway) CreateListing(ctx context.Context, item *catalog.Item, source map[string]any) (*listing.CreateListingResult, error) {
	payload := map[string]any{
		"make":          item.Brand,
		"model":         item.Model,
		"title":         listingTitle(item),
		"description":   item.Description,
		"sku":           item.SKU,
		"has_inventory": item.IsStocked,
		"inventory":     listingQuantity(item),
		"photos":        item.ImageURLs,
		"publish":       true,
		"price": map[string]string{
			"amount":   item.BasePrice.StringFixed(2),
			"currency": "USD",
		},
	}
	if item.Year != nil {
		payload["year"] = strconv.Itoa(*item.Year)
	}
	if item.Finish != "" {
		payload["finish"] = item.Finish
	}

	body, err := g.doRequest(ctx, http.MethodPost, "/api/listings", payload)
	if err != nil {
		return nil, err
	}

	var created reverbListing
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("reverb: failed to parse create response: %w", err)
	}
	if created.ID == 0 {
		return nil, fmt.Errorf("reverb: create response carried no listing id")
	}

	return &listing.CreateListingResult{
		NativeID: strconv.FormatInt(created.ID, 10),
		URL:      created.Links.Web.Href,
	}, nil
}

// UpdateStatus translates a canonical status into Reverb's publish and end
// semantics
func (g *ReverbGateway) UpdateStatus(ctx context.Context, nativeID string, status listing.Status) error {
	switch status {
	case listing.StatusSold:
		_, err := g.doRequest(ctx, http.MethodPut, "/api/my/listings/"+nativeID+"/state/end",
			map[string]string{"reason": "reverb_sale"})
		return err
	case listing.StatusEnded:
		_, err := g.doRequest(ctx, http.MethodPut, "/api/my/listings/"+nativeID+"/state/end",
			map[string]string{"reason": "not_sold"})
		return err
	case listing.StatusActive:
		_, err := g.doRequest(ctx, http.MethodPut, "/api/listings/"+nativeID,
			map[string]any{"publish": true})
		return err
	case listing.StatusDraft:
		_, err := g.doRequest(ctx, http.MethodPut, "/api/listings/"+nativeID,
			map[string]any{"publish": false})
		return err
	default:
		return fmt.Errorf("reverb: cannot push status %s", status)
	}
}

// UpdateQuantity pushes an inventory count to an existing listing
func (g *ReverbGateway) UpdateQuantity(ctx context.Context, nativeID string, quantity int) error {
	_, err := g.doRequest(ctx, http.MethodPut, "/api/listings/"+nativeID, map[string]any{
		"has_inventory": true,
		"inventory":     quantity,
	})
	return err
}

// UpdatePrice pushes a new asking price to an existing listing
func (g *ReverbGateway) UpdatePrice(ctx context.Context, nativeID string, price decimal.Decimal) error {
	_, err := g.doRequest(ctx, http.MethodPut, "/api/listings/"+nativeID, map[string]any{
		"price": map[string]string{
			"amount":   price.StringFixed(2),
			"currency": "USD",
		},
	})
	return err
}

// FetchQuantity reads the current inventory count of a listing
func (g *ReverbGateway) FetchQuantity(ctx context.Context, nativeID string) (int, error) {
	body, err := g.doRequest(ctx, http.MethodGet, "/api/listings/"+nativeID, nil)
	if err != nil {
		return 0, err
	}

	var l reverbListing
	if err := json.Unmarshal(body, &l); err != nil {
		return 0, fmt.Errorf("reverb: failed to parse listing response: %w", err)
	}
	return l.Inventory, nil
}

// FetchInventorySnapshot pages through the merchant's own listings
func (g *ReverbGateway) FetchInventorySnapshot(ctx context.Context) ([]listing.RawListing, error) {
	snapshot := make([]listing.RawListing, 0)

	for page := 1; ; page++ {
		path := fmt.Sprintf("/api/my/listings?state=all&per_page=50&page=%d", page)
		body, err := g.doRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}

		var resp reverbListingsPage
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("reverb: failed to parse listings page: %w", err)
		}

		for _, l := range resp.Listings {
			snapshot = append(snapshot, g.toRawListing(l))
		}

		if len(resp.Listings) == 0 || resp.TotalPages == 0 || resp.CurrentPage >= resp.TotalPages {
			break
		}
	}

	return snapshot, nil
}

func (g *ReverbGateway) toRawListing(l reverbListing) listing.RawListing {
	price, err := decimal.NewFromString(l.Price.Amount)
	if err != nil {
		price = decimal.Zero
	}

	fields := map[string]any{}
	if l.SKU != "" {
		fields["sku"] = l.SKU
	}
	if l.Year != "" {
		fields["year"] = l.Year
	}
	if l.Finish != "" {
		fields["finish"] = l.Finish
	}

	return listing.RawListing{
		NativeID:  strconv.FormatInt(l.ID, 10),
		Title:     l.Title,
		Brand:     l.Make,
		Model:     l.Model,
		Price:     price,
		Quantity:  l.Inventory,
		RawStatus: l.State.Slug,
		URL:       l.Links.Web.Href,
		Fields:    fields,
	}
}

func (g *ReverbGateway) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody *bytes.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("reverb: failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.config.BaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("reverb: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.config.APIKey)
	req.Header.Set("Accept-Version", "3.0")
	req.Header.Set("Content-Type", "application/hal+json")
	req.Header.Set("Accept", "application/hal+json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", listing.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("reverb: failed to read response: %w", err)
	}

	if err := mapHTTPStatus(listing.PlatformReverb, resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

var _ listing.Gateway = (*ReverbGateway)(nil)
