package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gearsync/backend/internal/domain/catalog"
	"github.com/gearsync/backend/internal/domain/listing"
	"github.com/gearsync/backend/internal/infrastructure/config"
)

// shopifyAPIVersion pins the Admin REST API version the gateway speaks
const shopifyAPIVersion = "2024-01"

// ShopifyGateway talks to the Shopify Admin REST API of the merchant's own
// shop. Quantity and price live on the product's first variant, matching how
// the shop models single instruments.
type ShopifyGateway struct {
	config     config.GatewayConfig
	httpClient *http.Client
}

// NewShopifyGateway creates a Shopify gateway from the configured shop URL
// and access token
func NewShopifyGateway(cfg config.GatewayConfig) *ShopifyGateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ShopifyGateway{
		config:     cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Platform returns the platform code this gateway handles
func (g *ShopifyGateway) Platform() listing.Platform {
	return listing.PlatformShopify
}

type shopifyVariant struct {
	ID                int64  `json:"id,omitempty"`
	SKU               string `json:"sku,omitempty"`
	Price             string `json:"price,omitempty"`
	InventoryQuantity int    `json:"inventory_quantity"`
	InventoryMgmt     string `json:"inventory_management,omitempty"`
}

type shopifyImage struct {
	Src string `json:"src"`
}

type shopifyProduct struct {
	ID          int64            `json:"id,omitempty"`
	Title       string           `json:"title,omitempty"`
	BodyHTML    string           `json:"body_html,omitempty"`
	Vendor      string           `json:"vendor,omitempty"`
	ProductType string           `json:"product_type,omitempty"`
	Handle      string           `json:"handle,omitempty"`
	Status      string           `json:"status,omitempty"`
	Tags        string           `json:"tags,omitempty"`
	Variants    []shopifyVariant `json:"variants,omitempty"`
	Images      []shopifyImage   `json:"images,omitempty"`
}

type shopifyProductEnvelope struct {
	Product shopifyProduct `json:"product"`
}

type shopifyProductsPage struct {
	Products []shopifyProduct `json:"products"`
}

// CreateListing publishes the item as a new Shopify product
func (g *ShopifyGateway) CreateListing(ctx context.Context, item *catalog.Item, source map[string]any) (*listing.CreateListingResult, error) {
	tags := []string{item.Brand}
	if item.Category != "" {
		tags = append(tags, item.Category)
	}
	if item.Finish != "" {
		tags = append(tags, item.Finish)
	}

	images := make([]shopifyImage, 0, len(item.ImageURLs))
	for _, u := range item.ImageURLs {
		images = append(images, shopifyImage{Src: u})
	}

	payload := shopifyProductEnvelope{Product: shopifyProduct{
		Title:       listingTitle(item),
		BodyHTML:    item.Description,
		Vendor:      item.Brand,
		ProductType: item.Category,
		Status:      "active",
		Tags:        strings.Join(tags, ", "),
		Variants: []shopifyVariant{{
			SKU:               item.SKU,
			Price:             item.BasePrice.StringFixed(2),
			InventoryQuantity: listingQuantity(item),
			InventoryMgmt:     "shopify",
		}},
		Images: images,
	}}

	body, err := g.doRequest(ctx, http.MethodPost, g.apiPath("products.json"), payload)
	if err != nil {
		return nil, err
	}

	var created shopifyProductEnvelope
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("shopify: failed to parse create response: %w", err)
	}
	if created.Product.ID == 0 {
		return nil, fmt.Errorf("shopify: create response carried no product id")
	}

	return &listing.CreateListingResult{
		NativeID: strconv.FormatInt(created.Product.ID, 10),
		URL:      g.productURL(created.Product.Handle),
	}, nil
}

// UpdateStatus translates a canonical status into Shopify's product statuses
func (g *ShopifyGateway) UpdateStatus(ctx context.Context, nativeID string, status listing.Status) error {
	var shopStatus string
	switch status {
	case listing.StatusActive:
		shopStatus = "active"
	case listing.StatusDraft:
		shopStatus = "draft"
	case listing.StatusSold, listing.StatusEnded:
		shopStatus = "archived"
	default:
		return fmt.Errorf("shopify: cannot push status %s", status)
	}

	id, err := strconv.ParseInt(nativeID, 10, 64)
	if err != nil {
		return fmt.Errorf("shopify: invalid product id %q", nativeID)
	}

	payload := shopifyProductEnvelope{Product: shopifyProduct{ID: id, Status: shopStatus}}
	_, err = g.doRequest(ctx, http.MethodPut, g.apiPath("products/"+nativeID+".json"), payload)
	return err
}

// UpdateQuantity pushes a quantity to the product's first variant
func (g *ShopifyGateway) UpdateQuantity(ctx context.Context, nativeID string, quantity int) error {
	variant, err := g.firstVariant(ctx, nativeID)
	if err != nil {
		return err
	}

	payload := map[string]shopifyVariant{"variant": {
		ID:                variant.ID,
		InventoryQuantity: quantity,
	}}
	_, err = g.doRequest(ctx, http.MethodPut, g.apiPath(fmt.Sprintf("variants/%d.json", variant.ID)), payload)
	return err
}

// UpdatePrice pushes a new price to the product's first variant
func (g *ShopifyGateway) UpdatePrice(ctx context.Context, nativeID string, price decimal.Decimal) error {
	variant, err := g.firstVariant(ctx, nativeID)
	if err != nil {
		return err
	}

	payload := map[string]shopifyVariant{"variant": {
		ID:    variant.ID,
		Price: price.StringFixed(2),
	}}
	_, err = g.doRequest(ctx, http.MethodPut, g.apiPath(fmt.Sprintf("variants/%d.json", variant.ID)), payload)
	return err
}

// FetchQuantity reads the current quantity of the product's first variant
func (g *ShopifyGateway) FetchQuantity(ctx context.Context, nativeID string) (int, error) {
	variant, err := g.firstVariant(ctx, nativeID)
	if err != nil {
		return 0, err
	}
	return variant.InventoryQuantity, nil
}

// FetchInventorySnapshot pages through the shop's products using since_id
// cursors
func (g *ShopifyGateway) FetchInventorySnapshot(ctx context.Context) ([]listing.RawListing, error) {
	const pageSize = 250
	snapshot := make([]listing.RawListing, 0)
	sinceID := int64(0)

	for {
		path := g.apiPath(fmt.Sprintf("products.json?limit=%d&since_id=%d", pageSize, sinceID))
		body, err := g.doRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}

		var resp shopifyProductsPage
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("shopify: failed to parse products page: %w", err)
		}
		if len(resp.Products) == 0 {
			break
		}

		for _, p := range resp.Products {
			snapshot = append(snapshot, g.toRawListing(p))
			if p.ID > sinceID {
				sinceID = p.ID
			}
		}

		if len(resp.Products) < pageSize {
			break
		}
	}

	return snapshot, nil
}

func (g *ShopifyGateway) toRawListing(p shopifyProduct) listing.RawListing {
	price := decimal.Zero
	quantity := 0
	fields := map[string]any{}

	if len(p.Variants) > 0 {
		v := p.Variants[0]
		if parsed, err := decimal.NewFromString(v.Price); err == nil {
			price = parsed
		}
		quantity = v.InventoryQuantity
		if v.SKU != "" {
			fields["sku"] = v.SKU
		}
	}
	if p.ProductType != "" {
		fields["product_type"] = p.ProductType
	}
	if p.Tags != "" {
		fields["tags"] = p.Tags
	}

	return listing.RawListing{
		NativeID:  strconv.FormatInt(p.ID, 10),
		Title:     p.Title,
		Brand:     p.Vendor,
		Model:     "",
		Price:     price,
		Quantity:  quantity,
		RawStatus: p.Status,
		URL:       g.productURL(p.Handle),
		Fields:    fields,
	}
}

func (g *ShopifyGateway) firstVariant(ctx context.Context, nativeID string) (*shopifyVariant, error) {
	body, err := g.doRequest(ctx, http.MethodGet, g.apiPath("products/"+nativeID+".json"), nil)
	if err != nil {
		return nil, err
	}

	var resp shopifyProductEnvelope
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("shopify: failed to parse product response: %w", err)
	}
	if len(resp.Product.Variants) == 0 {
		return nil, fmt.Errorf("shopify: product %s has no variants", nativeID)
	}
	return &resp.Product.Variants[0], nil
}

func (g *ShopifyGateway) apiPath(resource string) string {
	return "/admin/api/" + shopifyAPIVersion + "/" + resource
}

func (g *ShopifyGateway) productURL(handle string) string {
	if handle == "" {
		return ""
	}
	return g.config.BaseURL + "/products/" + handle
}

func (g *ShopifyGateway) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var encoded []byte
	if payload != nil {
		var err error
		encoded, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("shopify: failed to encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, g.config.BaseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("shopify: failed to create request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", g.config.AuthToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", listing.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("shopify: failed to read response: %w", err)
	}

	if err := mapHTTPStatus(listing.PlatformShopify, resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

var _ listing.Gateway = (*ShopifyGateway)(nil)
