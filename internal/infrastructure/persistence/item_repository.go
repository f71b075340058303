package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gearsync/backend/internal/domain/catalog"
	"github.com/gearsync/backend/internal/domain/shared"
	"github.com/gearsync/backend/internal/infrastructure/persistence/models"
)

// GormItemRepository implements catalog.ItemRepository using GORM
type GormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository creates a new GormItemRepository
func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// ---------------------------------------------------------------------------
// ItemReader implementation
// ---------------------------------------------------------------------------

// FindByID finds an item by its ID
func (r *GormItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Item, error) {
	var model models.ItemModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrItemNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySKU finds an item by its stock-keeping key, case-insensitively.
// SKUs are stored uppercase, so the lookup normalizes the input first.
func (r *GormItemRepository) FindBySKU(ctx context.Context, sku string) (*catalog.Item, error) {
	var model models.ItemModel
	normalized := strings.ToUpper(strings.TrimSpace(sku))
	if err := r.db.WithContext(ctx).First(&model, "sku = ?", normalized).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrItemNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ---------------------------------------------------------------------------
// ItemSearcher implementation
// ---------------------------------------------------------------------------

// SearchByBrandModel finds non-archived items with an exact brand match
// (case-insensitive) whose model contains the given fragment
func (r *GormItemRepository) SearchByBrandModel(ctx context.Context, brand, modelFragment string) ([]catalog.Item, error) {
	var itemModels []models.ItemModel
	query := r.db.WithContext(ctx).
		Where("LOWER(brand) = LOWER(?)", strings.TrimSpace(brand)).
		Where("status <> ?", catalog.ItemStatusArchived)

	if fragment := strings.TrimSpace(modelFragment); fragment != "" {
		pattern := "%" + escapeLikePattern(fragment) + "%"
		query = query.Where("model ILIKE ?", pattern)
	}

	if err := query.Order("created_at DESC").Find(&itemModels).Error; err != nil {
		return nil, err
	}
	return toDomainItems(itemModels), nil
}

// SearchByKeywords finds non-archived items whose brand, model or description
// contains any of the given keywords
func (r *GormItemRepository) SearchByKeywords(ctx context.Context, keywords []string) ([]catalog.Item, error) {
	terms := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			terms = append(terms, kw)
		}
	}
	if len(terms) == 0 {
		return []catalog.Item{}, nil
	}

	query := r.db.WithContext(ctx).
		Model(&models.ItemModel{}).
		Where("status <> ?", catalog.ItemStatusArchived)

	var keywordScope *gorm.DB
	for _, term := range terms {
		pattern := "%" + escapeLikePattern(term) + "%"
		condition := r.db.Where("brand ILIKE ? OR model ILIKE ? OR description ILIKE ?", pattern, pattern, pattern)
		if keywordScope == nil {
			keywordScope = condition
		} else {
			keywordScope = keywordScope.Or(condition)
		}
	}
	query = query.Where(keywordScope)

	var itemModels []models.ItemModel
	if err := query.Order("created_at DESC").Find(&itemModels).Error; err != nil {
		return nil, err
	}
	return toDomainItems(itemModels), nil
}

// ---------------------------------------------------------------------------
// ItemWriter implementation
// ---------------------------------------------------------------------------

// Save creates or updates an item
func (r *GormItemRepository) Save(ctx context.Context, item *catalog.Item) error {
	model := models.ItemModelFromDomain(item)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindAll finds items with pagination
func (r *GormItemRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Item, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ItemModel{})

	if filter.Search != "" {
		pattern := "%" + escapeLikePattern(filter.Search) + "%"
		query = query.Where("sku ILIKE ? OR brand ILIKE ? OR model ILIKE ?", pattern, pattern, pattern)
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if stocked, ok := filter.Filters["is_stocked"]; ok {
		query = query.Where("is_stocked = ?", stocked)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, ItemSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var itemModels []models.ItemModel
	if err := query.Find(&itemModels).Error; err != nil {
		return nil, 0, err
	}
	return toDomainItems(itemModels), total, nil
}

func toDomainItems(itemModels []models.ItemModel) []catalog.Item {
	items := make([]catalog.Item, len(itemModels))
	for i, model := range itemModels {
		items[i] = *model.ToDomain()
	}
	return items
}

// Ensure GormItemRepository implements ItemRepository
var _ catalog.ItemRepository = (*GormItemRepository)(nil)

// escapeLikePattern escapes special characters in LIKE patterns
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
