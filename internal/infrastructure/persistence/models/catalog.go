package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/gearsync/backend/internal/domain/catalog"
)

// ItemModel is the persistence model for the Item domain entity.
type ItemModel struct {
	AggregateModel
	SKU         string             `gorm:"type:varchar(100);not null;uniqueIndex:idx_items_sku"`
	Brand       string             `gorm:"type:varchar(100);not null;index:idx_items_brand"`
	Model       string             `gorm:"type:varchar(255);index:idx_items_model"`
	Year        *int               `gorm:""`
	Decade      *int               `gorm:""`
	Finish      string             `gorm:"type:varchar(100)"`
	Category    string             `gorm:"type:varchar(100)"`
	Description string             `gorm:"type:text"`
	BasePrice   decimal.Decimal    `gorm:"type:decimal(12,2);not null;default:0"`
	Status      catalog.ItemStatus `gorm:"type:varchar(20);not null;index:idx_items_status"`
	IsStocked   bool               `gorm:"not null;default:false"`
	Quantity    int                `gorm:"not null;default:1"`
	ImageURLs   string             `gorm:"type:jsonb;column:image_urls"`
}

// TableName returns the table name for GORM
func (ItemModel) TableName() string {
	return "items"
}

// ToDomain converts the persistence model to a domain Item entity.
func (m *ItemModel) ToDomain() *catalog.Item {
	item := &catalog.Item{
		SKU:         m.SKU,
		Brand:       m.Brand,
		Model:       m.Model,
		Year:        m.Year,
		Decade:      m.Decade,
		Finish:      m.Finish,
		Category:    m.Category,
		Description: m.Description,
		BasePrice:   m.BasePrice,
		Status:      m.Status,
		IsStocked:   m.IsStocked,
		Quantity:    m.Quantity,
	}
	m.PopulateAggregateRoot(&item.BaseAggregateRoot)

	if m.ImageURLs != "" {
		var urls []string
		if err := json.Unmarshal([]byte(m.ImageURLs), &urls); err == nil {
			item.ImageURLs = urls
		}
	}

	return item
}

// FromDomain populates the persistence model from a domain Item entity.
func (m *ItemModel) FromDomain(item *catalog.Item) {
	m.FromDomainAggregateRoot(item.BaseAggregateRoot)
	m.SKU = item.SKU
	m.Brand = item.Brand
	m.Model = item.Model
	m.Year = item.Year
	m.Decade = item.Decade
	m.Finish = item.Finish
	m.Category = item.Category
	m.Description = item.Description
	m.BasePrice = item.BasePrice
	m.Status = item.Status
	m.IsStocked = item.IsStocked
	m.Quantity = item.Quantity

	if len(item.ImageURLs) > 0 {
		if jsonBytes, err := json.Marshal(item.ImageURLs); err == nil {
			m.ImageURLs = string(jsonBytes)
		}
	} else {
		m.ImageURLs = "[]"
	}
}

// ItemModelFromDomain creates a new persistence model from a domain Item entity.
func ItemModelFromDomain(item *catalog.Item) *ItemModel {
	m := &ItemModel{}
	m.FromDomain(item)
	return m
}
