package catalog

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gearsync/backend/internal/domain/shared"
)

// ItemStatus represents the canonical lifecycle status of an item
type ItemStatus string

const (
	ItemStatusDraft    ItemStatus = "DRAFT"
	ItemStatusActive   ItemStatus = "ACTIVE"
	ItemStatusSold     ItemStatus = "SOLD"
	ItemStatusArchived ItemStatus = "ARCHIVED"
)

// IsValid returns true if the status is a known canonical status
func (s ItemStatus) IsValid() bool {
	switch s {
	case ItemStatusDraft, ItemStatusActive, ItemStatusSold, ItemStatusArchived:
		return true
	default:
		return false
	}
}

// String returns the string representation of ItemStatus
func (s ItemStatus) String() string {
	return string(s)
}

// Item is the canonical product record and the aggregate root for all
// inventory operations. The local store is the system of record; every
// marketplace listing for the same physical item hangs off one Item.
type Item struct {
	shared.BaseAggregateRoot
	SKU         string
	Brand       string
	Model       string
	Year        *int
	Decade      *int
	Finish      string
	Category    string
	Description string
	BasePrice   decimal.Decimal
	Status      ItemStatus
	// IsStocked distinguishes stocked items (quantity N) from unique
	// one-off instruments (quantity 0 or 1).
	IsStocked bool
	Quantity  int
	ImageURLs []string
}

// NewItem creates a new unique item listed as active with quantity 1
func NewItem(sku, brand, model string) (*Item, error) {
	if err := validateSKU(sku); err != nil {
		return nil, err
	}
	if strings.TrimSpace(brand) == "" {
		return nil, ErrItemBrandRequired
	}

	item := &Item{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               strings.ToUpper(strings.TrimSpace(sku)),
		Brand:             strings.TrimSpace(brand),
		Model:             strings.TrimSpace(model),
		BasePrice:         decimal.Zero,
		Status:            ItemStatusActive,
		IsStocked:         false,
		Quantity:          1,
	}

	item.AddDomainEvent(NewItemCreatedEvent(item))

	return item, nil
}

// NewStockedItem creates a new stocked item with the given quantity
func NewStockedItem(sku, brand, model string, quantity int) (*Item, error) {
	if quantity < 0 {
		return nil, ErrItemNegativeQuantity
	}
	item, err := NewItem(sku, brand, model)
	if err != nil {
		return nil, err
	}
	item.IsStocked = true
	item.Quantity = quantity
	if quantity == 0 {
		item.Status = ItemStatusSold
	}
	return item, nil
}

// SetPrice updates the canonical base price
func (i *Item) SetPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return ErrItemNegativePrice
	}
	old := i.BasePrice
	i.BasePrice = price
	i.Touch()
	i.IncrementVersion()

	if !old.Equal(price) {
		i.AddDomainEvent(NewItemPriceChangedEvent(i, old, price))
	}
	return nil
}

// SetQuantity applies a quantity change with the canonical status rules:
// quantity dropping to zero forces SOLD, a positive quantity while SOLD
// reactivates the item.
func (i *Item) SetQuantity(quantity int) error {
	if quantity < 0 {
		return ErrItemNegativeQuantity
	}
	if !i.IsStocked && quantity > 1 {
		return ErrItemUniqueQuantity
	}

	old := i.Quantity
	i.Quantity = quantity
	i.Touch()
	i.IncrementVersion()

	switch {
	case quantity == 0 && i.Status == ItemStatusActive:
		i.Status = ItemStatusSold
		i.AddDomainEvent(NewItemSoldEvent(i))
	case quantity > 0 && i.Status == ItemStatusSold:
		i.Status = ItemStatusActive
		i.AddDomainEvent(NewItemRelistedEvent(i))
	}

	if old != quantity {
		i.AddDomainEvent(NewItemQuantityChangedEvent(i, old, quantity))
	}
	return nil
}

// MarkSold moves the item to SOLD and zeroes the quantity
func (i *Item) MarkSold() error {
	if i.Status == ItemStatusArchived {
		return shared.ErrInvalidState
	}
	if i.Status == ItemStatusSold {
		return nil
	}
	i.Status = ItemStatusSold
	i.Quantity = 0
	i.Touch()
	i.IncrementVersion()
	i.AddDomainEvent(NewItemSoldEvent(i))
	return nil
}

// Relist reactivates a sold or draft item. Quantity must be strictly
// positive before relisting.
func (i *Item) Relist() error {
	if i.Status == ItemStatusArchived {
		return shared.ErrInvalidState
	}
	if i.Quantity <= 0 {
		return ErrItemRelistNeedsQuantity
	}
	if i.Status == ItemStatusActive {
		return nil
	}
	i.Status = ItemStatusActive
	i.Touch()
	i.IncrementVersion()
	i.AddDomainEvent(NewItemRelistedEvent(i))
	return nil
}

// Archive soft-archives the item. Items are never physically deleted.
func (i *Item) Archive() {
	if i.Status == ItemStatusArchived {
		return
	}
	i.Status = ItemStatusArchived
	i.Touch()
	i.IncrementVersion()
}

// IsActive returns true if the item is actively listed
func (i *Item) IsActive() bool {
	return i.Status == ItemStatusActive
}

// IsSold returns true if the item has been sold out
func (i *Item) IsSold() bool {
	return i.Status == ItemStatusSold
}

// SKUEquals compares the given key against the item's SKU case-insensitively
func (i *Item) SKUEquals(key string) bool {
	return strings.EqualFold(strings.TrimSpace(key), i.SKU)
}

// validateSKU validates the stock-keeping key
func validateSKU(sku string) error {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return ErrItemSKURequired
	}
	if len(sku) > 50 {
		return ErrItemSKUTooLong
	}
	return nil
}

// Item validation errors
var (
	ErrItemSKURequired         = shared.NewDomainError("SKU_REQUIRED", "Item SKU is required")
	ErrItemSKUTooLong          = shared.NewDomainError("SKU_TOO_LONG", "Item SKU cannot exceed 50 characters")
	ErrItemBrandRequired       = shared.NewDomainError("BRAND_REQUIRED", "Item brand is required")
	ErrItemNegativePrice       = shared.NewDomainError("NEGATIVE_PRICE", "Item price cannot be negative")
	ErrItemNegativeQuantity    = shared.NewDomainError("NEGATIVE_QUANTITY", "Item quantity cannot be negative")
	ErrItemUniqueQuantity      = shared.NewDomainError("UNIQUE_QUANTITY", "Unique items can only have quantity 0 or 1")
	ErrItemRelistNeedsQuantity = shared.NewDomainError("RELIST_NEEDS_QUANTITY", "Cannot relist an item with zero quantity")
)

// ErrItemNotFound helps callers distinguish missing items
var ErrItemNotFound = shared.NewDomainError("ITEM_NOT_FOUND", "Item not found")
