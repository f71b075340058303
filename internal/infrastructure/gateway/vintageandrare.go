package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gearsync/backend/internal/domain/catalog"
	"github.com/gearsync/backend/internal/domain/listing"
	"github.com/gearsync/backend/internal/infrastructure/config"
)

// VintageAndRareGateway talks to the VintageAndRare site through form-encoded
// endpoints. The site assigns listing IDs asynchronously, so CreateListing
// returns an empty NativeID and the resolver later matches the listing out of
// an inventory snapshot.
type VintageAndRareGateway struct {
	config     config.GatewayConfig
	httpClient *http.Client
}

// NewVintageAndRareGateway creates a VintageAndRare gateway from the
// configured credentials
func NewVintageAndRareGateway(cfg config.GatewayConfig) *VintageAndRareGateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &VintageAndRareGateway{
		config:     cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Platform returns the platform code this gateway handles
func (g *VintageAndRareGateway) Platform() listing.Platform {
	return listing.PlatformVintageAndRare
}

type vrInstrument struct {
	ID        int64  `json:"id"`
	BrandName string `json:"brand_name"`
	ModelName string `json:"model_name"`
	Title     string `json:"title"`
	Finish    string `json:"finish"`
	Year      string `json:"year"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
	Status    string `json:"status"`
	Link      string `json:"link"`
}

// CreateListing submits the item as a new instrument. The response carries no
// identifier, matching the site's asynchronous publication flow.
func (g *VintageAndRareGateway) CreateListing(ctx context.Context, item *catalog.Item, source map[string]any) (*listing.CreateListingResult, error) {
	params := url.Values{}
	params.Set("brand_name", item.Brand)
	params.Set("model_name", item.Model)
	params.Set("title", listingTitle(item))
	params.Set("description", item.Description)
	params.Set("price", item.BasePrice.StringFixed(2))
	params.Set("quantity", strconv.Itoa(listingQuantity(item)))
	if item.Year != nil {
		params.Set("year", strconv.Itoa(*item.Year))
	} else if item.Decade != nil {
		params.Set("decade", strconv.Itoa(*item.Decade))
	}
	if item.Finish != "" {
		params.Set("finish", item.Finish)
	}
	if item.Category != "" {
		params.Set("category", item.Category)
	}
	for i, u := range item.ImageURLs {
		params.Set(fmt.Sprintf("image_%d", i+1), u)
	}

	if _, err := g.doForm(ctx, "/instruments/add", params); err != nil {
		return nil, err
	}

	// The listing ID appears in a later inventory snapshot, not here
	return &listing.CreateListingResult{NativeID: ""}, nil
}

// UpdateStatus translates a canonical status into the site's show and sold
// flags
func (g *VintageAndRareGateway) UpdateStatus(ctx context.Context, nativeID string, status listing.Status) error {
	params := url.Values{}
	params.Set("item_id", nativeID)

	switch status {
	case listing.StatusSold:
		params.Set("status", "sold")
	case listing.StatusEnded:
		params.Set("status", "hidden")
	case listing.StatusActive:
		params.Set("status", "active")
	default:
		return fmt.Errorf("vintageandrare: cannot push status %s", status)
	}

	_, err := g.doForm(ctx, "/instruments/status", params)
	return err
}

// UpdateQuantity pushes a quantity for a stocked instrument
func (g *VintageAndRareGateway) UpdateQuantity(ctx context.Context, nativeID string, quantity int) error {
	params := url.Values{}
	params.Set("item_id", nativeID)
	params.Set("quantity", strconv.Itoa(quantity))

	_, err := g.doForm(ctx, "/instruments/quantity", params)
	return err
}

// UpdatePrice pushes a new asking price
func (g *VintageAndRareGateway) UpdatePrice(ctx context.Context, nativeID string, price decimal.Decimal) error {
	params := url.Values{}
	params.Set("item_id", nativeID)
	params.Set("price", price.StringFixed(2))

	_, err := g.doForm(ctx, "/instruments/price", params)
	return err
}

// FetchQuantity reads the current quantity of an instrument
func (g *VintageAndRareGateway) FetchQuantity(ctx context.Context, nativeID string) (int, error) {
	body, err := g.doGet(ctx, "/instruments/show/"+nativeID)
	if err != nil {
		return 0, err
	}

	var inst vrInstrument
	if err := json.Unmarshal(body, &inst); err != nil {
		return 0, fmt.Errorf("vintageandrare: failed to parse instrument response: %w", err)
	}
	return inst.Quantity, nil
}

// FetchInventorySnapshot downloads the full instrument export. The resolver
// depends on this call to discover the IDs of recently created listings.
func (g *VintageAndRareGateway) FetchInventorySnapshot(ctx context.Context) ([]listing.RawListing, error) {
	body, err := g.doGet(ctx, "/instruments/export?format=json")
	if err != nil {
		return nil, err
	}

	var instruments []vrInstrument
	if err := json.Unmarshal(body, &instruments); err != nil {
		return nil, fmt.Errorf("vintageandrare: failed to parse export: %w", err)
	}

	snapshot := make([]listing.RawListing, 0, len(instruments))
	for _, inst := range instruments {
		snapshot = append(snapshot, g.toRawListing(inst))
	}
	return snapshot, nil
}

func (g *VintageAndRareGateway) toRawListing(inst vrInstrument) listing.RawListing {
	price, err := decimal.NewFromString(inst.Price)
	if err != nil {
		price = decimal.Zero
	}

	fields := map[string]any{}
	if inst.Year != "" {
		fields["year"] = inst.Year
	}
	if inst.Finish != "" {
		fields["finish"] = inst.Finish
	}

	return listing.RawListing{
		NativeID:  strconv.FormatInt(inst.ID, 10),
		Title:     inst.Title,
		Brand:     inst.BrandName,
		Model:     inst.ModelName,
		Price:     price,
		Quantity:  inst.Quantity,
		RawStatus: inst.Status,
		URL:       inst.Link,
		Fields:    fields,
	}
}

func (g *VintageAndRareGateway) doForm(ctx context.Context, path string, params url.Values) ([]byte, error) {
	params.Set("api_key", g.config.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.BaseURL+path, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("vintageandrare: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return g.send(req)
}

func (g *VintageAndRareGateway) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.config.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("vintageandrare: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.config.APIKey)
	req.Header.Set("Accept", "application/json")

	return g.send(req)
}

func (g *VintageAndRareGateway) send(req *http.Request) ([]byte, error) {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", listing.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("vintageandrare: failed to read response: %w", err)
	}

	if err := mapHTTPStatus(listing.PlatformVintageAndRare, resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

var _ listing.Gateway = (*VintageAndRareGateway)(nil)
