package listing

// Platform identifies one of the supported marketplaces
type Platform string

const (
	// PlatformEbay represents eBay
	PlatformEbay Platform = "EBAY"
	// PlatformReverb represents Reverb
	PlatformReverb Platform = "REVERB"
	// PlatformVintageAndRare represents VintageAndRare
	PlatformVintageAndRare Platform = "VINTAGEANDRARE"
	// PlatformShopify represents the merchant's Shopify storefront
	PlatformShopify Platform = "SHOPIFY"
)

// AllPlatforms lists every supported marketplace
func AllPlatforms() []Platform {
	return []Platform{PlatformEbay, PlatformReverb, PlatformVintageAndRare, PlatformShopify}
}

// IsValid returns true if the platform is supported
func (p Platform) IsValid() bool {
	switch p {
	case PlatformEbay, PlatformReverb, PlatformVintageAndRare, PlatformShopify:
		return true
	default:
		return false
	}
}

// String returns the string representation of Platform
func (p Platform) String() string {
	return string(p)
}

// DisplayName returns a human-readable name for the platform
func (p Platform) DisplayName() string {
	switch p {
	case PlatformEbay:
		return "eBay"
	case PlatformReverb:
		return "Reverb"
	case PlatformVintageAndRare:
		return "Vintage & Rare"
	case PlatformShopify:
		return "Shopify"
	default:
		return string(p)
	}
}

// DeferredNativeID returns true if the platform's listing-creation call does
// not return a durable native identifier synchronously. Links created on such
// a platform go through the two-phase identifier resolver.
func (p Platform) DeferredNativeID() bool {
	return p == PlatformVintageAndRare
}
