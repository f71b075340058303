package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gearsync/backend/internal/domain/reconcile"
	"github.com/gearsync/backend/internal/infrastructure/persistence/models"
)

// GormEventRepository implements reconcile.EventRepository using GORM
type GormEventRepository struct {
	db *gorm.DB
}

// NewGormEventRepository creates a new GormEventRepository
func NewGormEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

// FindByID finds an event by its ID
func (r *GormEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*reconcile.ChangeEvent, error) {
	var model models.ChangeEventModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reconcile.ErrEventNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds events matching the filter, newest detection first
func (r *GormEventRepository) FindAll(ctx context.Context, filter reconcile.EventFilter) ([]reconcile.ChangeEvent, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ChangeEventModel{})

	if filter.Platform != nil {
		query = query.Where("platform = ?", *filter.Platform)
	}
	if filter.ChangeType != nil {
		query = query.Where("change_type = ?", *filter.ChangeType)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ItemID != nil {
		query = query.Where("item_id = ?", *filter.ItemID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("detected_at DESC")
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var eventModels []models.ChangeEventModel
	if err := query.Find(&eventModels).Error; err != nil {
		return nil, 0, err
	}
	return toDomainEvents(eventModels), total, nil
}

// ClaimPending atomically claims up to limit pending events, oldest detection
// first, moving them to processing. FOR UPDATE SKIP LOCKED lets concurrent
// workers claim disjoint batches without blocking each other.
func (r *GormEventRepository) ClaimPending(ctx context.Context, limit int) ([]reconcile.ChangeEvent, error) {
	if limit <= 0 {
		return nil, nil
	}

	var eventModels []models.ChangeEventModel

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.Locking{
				Strength: "UPDATE",
				Options:  "SKIP LOCKED",
			}).
			Where("status = ?", reconcile.EventStatusPending).
			Order("detected_at ASC").
			Limit(limit).
			Find(&eventModels).Error; err != nil {
			return err
		}

		if len(eventModels) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, len(eventModels))
		for i, m := range eventModels {
			ids[i] = m.ID
		}

		now := time.Now()
		if err := tx.Model(&models.ChangeEventModel{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"status":     reconcile.EventStatusProcessing,
				"updated_at": now,
			}).Error; err != nil {
			return err
		}

		for i := range eventModels {
			eventModels[i].Status = reconcile.EventStatusProcessing
			eventModels[i].UpdatedAt = now
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return toDomainEvents(eventModels), nil
}

// Save creates or updates an event
func (r *GormEventRepository) Save(ctx context.Context, event *reconcile.ChangeEvent) error {
	model := models.ChangeEventModelFromDomain(event)
	return r.db.WithContext(ctx).Save(model).Error
}

func toDomainEvents(eventModels []models.ChangeEventModel) []reconcile.ChangeEvent {
	events := make([]reconcile.ChangeEvent, len(eventModels))
	for i, model := range eventModels {
		events[i] = *model.ToDomain()
	}
	return events
}

// Ensure GormEventRepository implements EventRepository
var _ reconcile.EventRepository = (*GormEventRepository)(nil)
