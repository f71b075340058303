package listing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/gearsync/backend/internal/domain/catalog"
	"github.com/gearsync/backend/internal/domain/shared"
)

// Gateway errors
var (
	ErrGatewayNotConfigured = shared.NewDomainError("GATEWAY_NOT_CONFIGURED", "No gateway is configured for this platform")
	ErrGatewayUnavailable   = shared.NewDomainError("GATEWAY_UNAVAILABLE", "Platform temporarily unavailable")
	ErrGatewayAuthFailed    = shared.NewDomainError("GATEWAY_AUTH_FAILED", "Platform authentication failed")
	ErrGatewayRateLimited   = shared.NewDomainError("GATEWAY_RATE_LIMITED", "Platform rate limited the request")
)

// CreateListingResult is the outcome of a listing-creation call. NativeID may
// be empty for platforms that assign identifiers asynchronously.
type CreateListingResult struct {
	NativeID string
	URL      string
}

// RawListing is one entry of a platform inventory snapshot, kept close to the
// wire shape so the matcher and resolver can dig through platform-specific
// fields.
type RawListing struct {
	NativeID  string
	Title     string
	Brand     string
	Model     string
	Price     decimal.Decimal
	Quantity  int
	RawStatus string
	URL       string
	// Fields carries everything else the platform returned, keyed by the
	// platform's own field names (variant SKUs, item specifics, finishes).
	Fields map[string]any
}

// Gateway is the port through which the reconciliation engine talks to one
// marketplace. Concrete implementations live in the infrastructure layer;
// the engine only decides which platforms to touch and in which canonical
// direction, and leaves each platform's own mechanics to its gateway.
type Gateway interface {
	// Platform returns the platform this gateway handles
	Platform() Platform

	// CreateListing creates a listing for the item on the platform,
	// translated from the canonical record plus the source payload that
	// triggered the creation
	CreateListing(ctx context.Context, item *catalog.Item, source map[string]any) (*CreateListingResult, error)

	// UpdateStatus pushes a canonical status to the platform, translated
	// to the platform's own closing or relisting semantics
	UpdateStatus(ctx context.Context, nativeID string, status Status) error

	// UpdateQuantity pushes a quantity to the platform
	UpdateQuantity(ctx context.Context, nativeID string, quantity int) error

	// UpdatePrice pushes a price to the platform
	UpdatePrice(ctx context.Context, nativeID string, price decimal.Decimal) error

	// FetchQuantity reads the platform's actual current quantity for a
	// listing; quantity propagation reconciles against this before pushing
	FetchQuantity(ctx context.Context, nativeID string) (int, error)

	// FetchInventorySnapshot downloads the platform's full active inventory
	FetchInventorySnapshot(ctx context.Context) ([]RawListing, error)
}

// GatewayRegistry provides access to the configured platform gateways
type GatewayRegistry interface {
	// Gateway returns the gateway for the given platform
	Gateway(platform Platform) (Gateway, error)

	// Platforms returns every platform with a configured gateway
	Platforms() []Platform
}
