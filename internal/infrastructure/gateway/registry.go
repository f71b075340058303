// Package gateway contains the marketplace adapters through which the
// reconciliation engine pushes canonical state out to eBay, Reverb,
// VintageAndRare and Shopify, and pulls inventory snapshots back in.
package gateway

import (
	"github.com/gearsync/backend/internal/domain/listing"
)

// Registry implements listing.GatewayRegistry over a fixed set of gateways.
type Registry struct {
	gateways map[listing.Platform]listing.Gateway
}

// NewRegistry creates a registry from the given gateways. Passing the same
// platform twice keeps the last one.
func NewRegistry(gateways ...listing.Gateway) *Registry {
	r := &Registry{gateways: make(map[listing.Platform]listing.Gateway, len(gateways))}
	for _, g := range gateways {
		r.gateways[g.Platform()] = g
	}
	return r
}

// Gateway returns the gateway for the given platform
func (r *Registry) Gateway(platform listing.Platform) (listing.Gateway, error) {
	g, ok := r.gateways[platform]
	if !ok {
		return nil, listing.ErrGatewayNotConfigured
	}
	return g, nil
}

// Platforms returns every platform with a configured gateway, in the
// canonical platform order.
func (r *Registry) Platforms() []listing.Platform {
	platforms := make([]listing.Platform, 0, len(r.gateways))
	for _, p := range listing.AllPlatforms() {
		if _, ok := r.gateways[p]; ok {
			platforms = append(platforms, p)
		}
	}
	return platforms
}

// Ensure Registry implements GatewayRegistry
var _ listing.GatewayRegistry = (*Registry)(nil)
