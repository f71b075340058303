package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/gearsync/backend/internal/domain/listing"
)

// PlatformLinkModel is the persistence model for the PlatformLink domain entity.
// The composite unique index enforces at most one link per (item, platform).
type PlatformLinkModel struct {
	ID         uuid.UUID         `gorm:"type:uuid;primary_key"`
	ItemID     uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_links_item_platform,priority:1"`
	Platform   listing.Platform  `gorm:"type:varchar(20);not null;uniqueIndex:idx_links_item_platform,priority:2;index:idx_links_platform_native,priority:1"`
	NativeID   string            `gorm:"type:varchar(100);index:idx_links_platform_native,priority:2"`
	Status     listing.Status    `gorm:"type:varchar(20);not null"`
	SyncState  listing.SyncState `gorm:"type:varchar(20);not null;default:'PENDING'"`
	LastSyncAt *time.Time        `gorm:""`
	URL        string            `gorm:"type:varchar(500)"`
	Extras     string            `gorm:"type:jsonb"`
	CreatedAt  time.Time         `gorm:"not null"`
	UpdatedAt  time.Time         `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PlatformLinkModel) TableName() string {
	return "platform_links"
}

// ToDomain converts the persistence model to a domain PlatformLink entity.
func (m *PlatformLinkModel) ToDomain() *listing.PlatformLink {
	link := &listing.PlatformLink{
		ID:         m.ID,
		ItemID:     m.ItemID,
		Platform:   m.Platform,
		NativeID:   m.NativeID,
		Status:     m.Status,
		SyncState:  m.SyncState,
		LastSyncAt: m.LastSyncAt,
		URL:        m.URL,
		Extras:     make(map[string]any),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}

	if m.Extras != "" {
		var extras map[string]any
		if err := json.Unmarshal([]byte(m.Extras), &extras); err == nil {
			link.Extras = extras
		}
	}

	return link
}

// FromDomain populates the persistence model from a domain PlatformLink entity.
func (m *PlatformLinkModel) FromDomain(link *listing.PlatformLink) {
	m.ID = link.ID
	m.ItemID = link.ItemID
	m.Platform = link.Platform
	m.NativeID = link.NativeID
	m.Status = link.Status
	m.SyncState = link.SyncState
	m.LastSyncAt = link.LastSyncAt
	m.URL = link.URL
	m.CreatedAt = link.CreatedAt
	m.UpdatedAt = link.UpdatedAt

	if len(link.Extras) > 0 {
		if jsonBytes, err := json.Marshal(link.Extras); err == nil {
			m.Extras = string(jsonBytes)
		}
	} else {
		m.Extras = "{}"
	}
}

// PlatformLinkModelFromDomain creates a new persistence model from a domain PlatformLink entity.
func PlatformLinkModelFromDomain(link *listing.PlatformLink) *PlatformLinkModel {
	m := &PlatformLinkModel{}
	m.FromDomain(link)
	return m
}
