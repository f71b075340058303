package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/gearsync/backend/internal/domain/listing"
	"github.com/gearsync/backend/internal/domain/reconcile"
)

// ChangeEventModel is the persistence model for the ChangeEvent domain entity.
type ChangeEventModel struct {
	AggregateModel
	Platform    listing.Platform      `gorm:"type:varchar(20);not null;index:idx_events_platform"`
	ExternalID  string                `gorm:"type:varchar(100);not null;index:idx_events_external"`
	ChangeType  reconcile.ChangeType  `gorm:"type:varchar(30);not null"`
	Data        string                `gorm:"type:jsonb"`
	Status      reconcile.EventStatus `gorm:"type:varchar(20);not null;index:idx_events_status_detected,priority:1"`
	ItemID      *uuid.UUID            `gorm:"type:uuid;index:idx_events_item"`
	Notes       string                `gorm:"type:text"`
	DetectedAt  time.Time             `gorm:"not null;index:idx_events_status_detected,priority:2"`
	ProcessedAt *time.Time            `gorm:""`
}

// TableName returns the table name for GORM
func (ChangeEventModel) TableName() string {
	return "change_events"
}

// ToDomain converts the persistence model to a domain ChangeEvent entity.
func (m *ChangeEventModel) ToDomain() *reconcile.ChangeEvent {
	event := &reconcile.ChangeEvent{
		Platform:    m.Platform,
		ExternalID:  m.ExternalID,
		ChangeType:  m.ChangeType,
		Data:        json.RawMessage(m.Data),
		Status:      m.Status,
		ItemID:      m.ItemID,
		Notes:       m.Notes,
		DetectedAt:  m.DetectedAt,
		ProcessedAt: m.ProcessedAt,
	}
	m.PopulateAggregateRoot(&event.BaseAggregateRoot)
	return event
}

// FromDomain populates the persistence model from a domain ChangeEvent entity.
func (m *ChangeEventModel) FromDomain(event *reconcile.ChangeEvent) {
	m.FromDomainAggregateRoot(event.BaseAggregateRoot)
	m.Platform = event.Platform
	m.ExternalID = event.ExternalID
	m.ChangeType = event.ChangeType
	m.Data = string(event.Data)
	m.Status = event.Status
	m.ItemID = event.ItemID
	m.Notes = event.Notes
	m.DetectedAt = event.DetectedAt
	m.ProcessedAt = event.ProcessedAt
}

// ChangeEventModelFromDomain creates a new persistence model from a domain ChangeEvent entity.
func ChangeEventModelFromDomain(event *reconcile.ChangeEvent) *ChangeEventModel {
	m := &ChangeEventModel{}
	m.FromDomain(event)
	return m
}

// PendingResolutionModel is the persistence model for the PendingResolution domain entity.
type PendingResolutionModel struct {
	BaseModel
	LinkID        uuid.UUID                  `gorm:"type:uuid;not null;index:idx_resolutions_link"`
	ItemID        uuid.UUID                  `gorm:"type:uuid;not null"`
	Platform      listing.Platform           `gorm:"type:varchar(20);not null"`
	Status        reconcile.ResolutionStatus `gorm:"type:varchar(20);not null;index:idx_resolutions_status_due,priority:1"`
	Attempts      int                        `gorm:"not null;default:0"`
	NextAttemptAt time.Time                  `gorm:"not null;index:idx_resolutions_status_due,priority:2"`
	LastError     string                     `gorm:"type:text"`
	ResolvedAt    *time.Time                 `gorm:""`
}

// TableName returns the table name for GORM
func (PendingResolutionModel) TableName() string {
	return "pending_resolutions"
}

// ToDomain converts the persistence model to a domain PendingResolution entity.
func (m *PendingResolutionModel) ToDomain() *reconcile.PendingResolution {
	return &reconcile.PendingResolution{
		BaseEntity:    m.BaseModel.ToDomain(),
		LinkID:        m.LinkID,
		ItemID:        m.ItemID,
		Platform:      m.Platform,
		Status:        m.Status,
		Attempts:      m.Attempts,
		NextAttemptAt: m.NextAttemptAt,
		LastError:     m.LastError,
		ResolvedAt:    m.ResolvedAt,
	}
}

// FromDomain populates the persistence model from a domain PendingResolution entity.
func (m *PendingResolutionModel) FromDomain(resolution *reconcile.PendingResolution) {
	m.FromDomainBaseEntity(resolution.BaseEntity)
	m.LinkID = resolution.LinkID
	m.ItemID = resolution.ItemID
	m.Platform = resolution.Platform
	m.Status = resolution.Status
	m.Attempts = resolution.Attempts
	m.NextAttemptAt = resolution.NextAttemptAt
	m.LastError = resolution.LastError
	m.ResolvedAt = resolution.ResolvedAt
}

// PendingResolutionModelFromDomain creates a new persistence model from a domain PendingResolution entity.
func PendingResolutionModelFromDomain(resolution *reconcile.PendingResolution) *PendingResolutionModel {
	m := &PendingResolutionModel{}
	m.FromDomain(resolution)
	return m
}
