package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/gearsync/backend/internal/domain/shared"
)

// Event types for the Item aggregate
const (
	EventTypeItemCreated         = "catalog.item.created"
	EventTypeItemSold            = "catalog.item.sold"
	EventTypeItemRelisted        = "catalog.item.relisted"
	EventTypeItemPriceChanged    = "catalog.item.price_changed"
	EventTypeItemQuantityChanged = "catalog.item.quantity_changed"
)

const aggregateTypeItem = "Item"

// ItemCreatedEvent is published when a new canonical item is created
type ItemCreatedEvent struct {
	shared.BaseDomainEvent
	SKU   string `json:"sku"`
	Brand string `json:"brand"`
	Model string `json:"model"`
}

// NewItemCreatedEvent creates a new ItemCreatedEvent
func NewItemCreatedEvent(item *Item) *ItemCreatedEvent {
	return &ItemCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeItemCreated, aggregateTypeItem, item.ID),
		SKU:             item.SKU,
		Brand:           item.Brand,
		Model:           item.Model,
	}
}

// ItemSoldEvent is published when an item transitions to SOLD
type ItemSoldEvent struct {
	shared.BaseDomainEvent
	SKU string `json:"sku"`
}

// NewItemSoldEvent creates a new ItemSoldEvent
func NewItemSoldEvent(item *Item) *ItemSoldEvent {
	return &ItemSoldEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeItemSold, aggregateTypeItem, item.ID),
		SKU:             item.SKU,
	}
}

// ItemRelistedEvent is published when a sold item returns to ACTIVE
type ItemRelistedEvent struct {
	shared.BaseDomainEvent
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// NewItemRelistedEvent creates a new ItemRelistedEvent
func NewItemRelistedEvent(item *Item) *ItemRelistedEvent {
	return &ItemRelistedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeItemRelisted, aggregateTypeItem, item.ID),
		SKU:             item.SKU,
		Quantity:        item.Quantity,
	}
}

// ItemPriceChangedEvent is published when the canonical price changes
type ItemPriceChangedEvent struct {
	shared.BaseDomainEvent
	SKU      string          `json:"sku"`
	OldPrice decimal.Decimal `json:"old_price"`
	NewPrice decimal.Decimal `json:"new_price"`
}

// NewItemPriceChangedEvent creates a new ItemPriceChangedEvent
func NewItemPriceChangedEvent(item *Item, oldPrice, newPrice decimal.Decimal) *ItemPriceChangedEvent {
	return &ItemPriceChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeItemPriceChanged, aggregateTypeItem, item.ID),
		SKU:             item.SKU,
		OldPrice:        oldPrice,
		NewPrice:        newPrice,
	}
}

// ItemQuantityChangedEvent is published when the canonical quantity changes
type ItemQuantityChangedEvent struct {
	shared.BaseDomainEvent
	SKU         string `json:"sku"`
	OldQuantity int    `json:"old_quantity"`
	NewQuantity int    `json:"new_quantity"`
}

// NewItemQuantityChangedEvent creates a new ItemQuantityChangedEvent
func NewItemQuantityChangedEvent(item *Item, oldQuantity, newQuantity int) *ItemQuantityChangedEvent {
	return &ItemQuantityChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeItemQuantityChanged, aggregateTypeItem, item.ID),
		SKU:             item.SKU,
		OldQuantity:     oldQuantity,
		NewQuantity:     newQuantity,
	}
}
