package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gearsync/backend/internal/domain/reconcile"
	"github.com/gearsync/backend/internal/domain/shared"
	"github.com/gearsync/backend/internal/infrastructure/persistence/models"
)

// GormResolutionRepository implements reconcile.ResolutionRepository using GORM
type GormResolutionRepository struct {
	db *gorm.DB
}

// NewGormResolutionRepository creates a new GormResolutionRepository
func NewGormResolutionRepository(db *gorm.DB) *GormResolutionRepository {
	return &GormResolutionRepository{db: db}
}

// FindByID finds a pending resolution by its ID
func (r *GormResolutionRepository) FindByID(ctx context.Context, id uuid.UUID) (*reconcile.PendingResolution, error) {
	var model models.PendingResolutionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reconcile.ErrResolutionNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByLink finds the resolution entry for a platform link
func (r *GormResolutionRepository) FindByLink(ctx context.Context, linkID uuid.UUID) (*reconcile.PendingResolution, error) {
	var model models.PendingResolutionModel
	if err := r.db.WithContext(ctx).
		Where("link_id = ?", linkID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reconcile.ErrResolutionNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindDue returns pending entries whose NextAttemptAt has passed, oldest first
func (r *GormResolutionRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]reconcile.PendingResolution, error) {
	var resolutionModels []models.PendingResolutionModel
	query := r.db.WithContext(ctx).
		Where("status = ? AND next_attempt_at <= ?", reconcile.ResolutionStatusPending, now).
		Order("next_attempt_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&resolutionModels).Error; err != nil {
		return nil, err
	}
	return toDomainResolutions(resolutionModels), nil
}

// FindAll finds resolutions with pagination
func (r *GormResolutionRepository) FindAll(ctx context.Context, filter shared.Filter) ([]reconcile.PendingResolution, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PendingResolutionModel{})

	if platform, ok := filter.Filters["platform"]; ok {
		query = query.Where("platform = ?", platform)
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, ResolutionSortFields, "next_attempt_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var resolutionModels []models.PendingResolutionModel
	if err := query.Find(&resolutionModels).Error; err != nil {
		return nil, 0, err
	}
	return toDomainResolutions(resolutionModels), total, nil
}

// Save creates or updates a resolution entry
func (r *GormResolutionRepository) Save(ctx context.Context, resolution *reconcile.PendingResolution) error {
	model := models.PendingResolutionModelFromDomain(resolution)
	return r.db.WithContext(ctx).Save(model).Error
}

func toDomainResolutions(resolutionModels []models.PendingResolutionModel) []reconcile.PendingResolution {
	resolutions := make([]reconcile.PendingResolution, len(resolutionModels))
	for i, model := range resolutionModels {
		resolutions[i] = *model.ToDomain()
	}
	return resolutions
}

// Ensure GormResolutionRepository implements ResolutionRepository
var _ reconcile.ResolutionRepository = (*GormResolutionRepository)(nil)
