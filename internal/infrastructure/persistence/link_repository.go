package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gearsync/backend/internal/domain/listing"
	"github.com/gearsync/backend/internal/infrastructure/persistence/models"
)

// GormLinkRepository implements listing.LinkRepository using GORM
type GormLinkRepository struct {
	db *gorm.DB
}

// NewGormLinkRepository creates a new GormLinkRepository
func NewGormLinkRepository(db *gorm.DB) *GormLinkRepository {
	return &GormLinkRepository{db: db}
}

// ---------------------------------------------------------------------------
// LinkReader implementation
// ---------------------------------------------------------------------------

// FindByID finds a link by its ID
func (r *GormLinkRepository) FindByID(ctx context.Context, id uuid.UUID) (*listing.PlatformLink, error) {
	var model models.PlatformLinkModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, listing.ErrLinkNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByItem finds all links for an item
func (r *GormLinkRepository) FindByItem(ctx context.Context, itemID uuid.UUID) ([]listing.PlatformLink, error) {
	var linkModels []models.PlatformLinkModel
	if err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("platform ASC").
		Find(&linkModels).Error; err != nil {
		return nil, err
	}
	return toDomainLinks(linkModels), nil
}

// FindByItemAndPlatform finds the link for an (item, platform) pair
func (r *GormLinkRepository) FindByItemAndPlatform(ctx context.Context, itemID uuid.UUID, platform listing.Platform) (*listing.PlatformLink, error) {
	var model models.PlatformLinkModel
	if err := r.db.WithContext(ctx).
		Where("item_id = ? AND platform = ?", itemID, platform).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, listing.ErrLinkNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNativeID finds a link by its platform-native identifier
func (r *GormLinkRepository) FindByNativeID(ctx context.Context, platform listing.Platform, nativeID string) (*listing.PlatformLink, error) {
	if nativeID == "" {
		return nil, listing.ErrLinkNotFound
	}
	var model models.PlatformLinkModel
	if err := r.db.WithContext(ctx).
		Where("platform = ? AND native_id = ?", platform, nativeID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, listing.ErrLinkNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindUnresolved finds links on a platform still waiting for a native ID
func (r *GormLinkRepository) FindUnresolved(ctx context.Context, platform listing.Platform) ([]listing.PlatformLink, error) {
	var linkModels []models.PlatformLinkModel
	if err := r.db.WithContext(ctx).
		Where("platform = ? AND native_id = ''", platform).
		Order("created_at ASC").
		Find(&linkModels).Error; err != nil {
		return nil, err
	}
	return toDomainLinks(linkModels), nil
}

// NativeIDsForPlatform returns every known native identifier on a platform
func (r *GormLinkRepository) NativeIDsForPlatform(ctx context.Context, platform listing.Platform) ([]string, error) {
	var nativeIDs []string
	if err := r.db.WithContext(ctx).
		Model(&models.PlatformLinkModel{}).
		Where("platform = ? AND native_id <> ''", platform).
		Pluck("native_id", &nativeIDs).Error; err != nil {
		return nil, err
	}
	return nativeIDs, nil
}

// ---------------------------------------------------------------------------
// LinkWriter implementation
// ---------------------------------------------------------------------------

// Save creates or updates a link
func (r *GormLinkRepository) Save(ctx context.Context, link *listing.PlatformLink) error {
	model := models.PlatformLinkModelFromDomain(link)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete removes a link
func (r *GormLinkRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.PlatformLinkModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return listing.ErrLinkNotFound
	}
	return nil
}

func toDomainLinks(linkModels []models.PlatformLinkModel) []listing.PlatformLink {
	links := make([]listing.PlatformLink, len(linkModels))
	for i, model := range linkModels {
		links[i] = *model.ToDomain()
	}
	return links
}

// Ensure GormLinkRepository implements LinkRepository
var _ listing.LinkRepository = (*GormLinkRepository)(nil)
