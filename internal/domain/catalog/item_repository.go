package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/gearsync/backend/internal/domain/shared"
)

// ItemReader defines the interface for reading items
type ItemReader interface {
	// FindByID finds an item by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Item, error)

	// FindBySKU finds an item by its stock-keeping key (case-insensitive)
	FindBySKU(ctx context.Context, sku string) (*Item, error)
}

// ItemSearcher defines the candidate queries used by the entity matcher
type ItemSearcher interface {
	// SearchByBrandModel finds non-archived items with an exact brand match
	// (case-insensitive) whose model contains the given fragment
	SearchByBrandModel(ctx context.Context, brand, modelFragment string) ([]Item, error)

	// SearchByKeywords finds non-archived items whose brand, model or
	// description contains any of the given keywords
	SearchByKeywords(ctx context.Context, keywords []string) ([]Item, error)
}

// ItemWriter defines the interface for persisting items
type ItemWriter interface {
	// Save creates or updates an item
	Save(ctx context.Context, item *Item) error
}

// ItemRepository defines the full interface for item persistence
type ItemRepository interface {
	ItemReader
	ItemSearcher
	ItemWriter

	// FindAll finds items with pagination
	FindAll(ctx context.Context, filter shared.Filter) ([]Item, int64, error)
}
