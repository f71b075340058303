package listing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gearsync/backend/internal/domain/shared"
)

// SyncState tracks whether a link's last push to its platform succeeded
type SyncState string

const (
	SyncStatePending SyncState = "PENDING"
	SyncStateSynced  SyncState = "SYNCED"
	SyncStateError   SyncState = "ERROR"
)

// IsValid returns true if the sync state is valid
func (s SyncState) IsValid() bool {
	switch s {
	case SyncStatePending, SyncStateSynced, SyncStateError:
		return true
	default:
		return false
	}
}

// Link errors
var (
	ErrLinkNotFound          = shared.NewDomainError("LINK_NOT_FOUND", "Platform link not found")
	ErrLinkAlreadyExists     = shared.NewDomainError("LINK_ALREADY_EXISTS", "Item is already linked to this platform")
	ErrLinkInvalidItemID     = shared.NewDomainError("LINK_INVALID_ITEM", "Platform link requires a valid item ID")
	ErrLinkInvalidPlatform   = shared.NewDomainError("LINK_INVALID_PLATFORM", "Platform link requires a valid platform")
	ErrLinkNativeIDResolved  = shared.NewDomainError("LINK_NATIVE_ID_RESOLVED", "Native identifier is already resolved and cannot be overwritten")
	ErrLinkNativeIDRequired  = shared.NewDomainError("LINK_NATIVE_ID_REQUIRED", "Platform link has no native identifier yet")
	ErrLinkUnknownStatusPush = shared.NewDomainError("LINK_UNKNOWN_STATUS", "Cannot push an unknown status to a platform")
)

// PlatformLink binds one Item to its presence on one marketplace. There is at
// most one link per (item, platform) pair; the repository enforces the
// uniqueness. NativeID stays empty until the platform's identifier is known,
// which for some platforms happens asynchronously via the two-phase resolver.
type PlatformLink struct {
	ID         uuid.UUID
	ItemID     uuid.UUID
	Platform   Platform
	NativeID   string
	Status     Status
	SyncState  SyncState
	LastSyncAt *time.Time
	URL        string
	// Extras carries marketplace-specific payload echoes (auction flags,
	// watch counters, category UUIDs). Purely additive detail, never
	// authoritative for canonical status.
	Extras    map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPlatformLink creates a link for a confirmed listing. nativeID may be
// empty for platforms whose creation call does not return one synchronously.
func NewPlatformLink(itemID uuid.UUID, platform Platform, nativeID string) (*PlatformLink, error) {
	if itemID == uuid.Nil {
		return nil, ErrLinkInvalidItemID
	}
	if !platform.IsValid() {
		return nil, ErrLinkInvalidPlatform
	}

	now := time.Now()
	return &PlatformLink{
		ID:        uuid.New(),
		ItemID:    itemID,
		Platform:  platform,
		NativeID:  nativeID,
		Status:    StatusActive,
		SyncState: SyncStatePending,
		Extras:    make(map[string]any),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsResolved returns true once the platform's native identifier is known
func (l *PlatformLink) IsResolved() bool {
	return l.NativeID != ""
}

// ResolveNativeID writes the platform's native identifier exactly once.
// A resolved link is never overwritten, even if resolution runs again.
func (l *PlatformLink) ResolveNativeID(nativeID, url string) error {
	if l.IsResolved() {
		return ErrLinkNativeIDResolved
	}
	if nativeID == "" {
		return shared.ErrInvalidInput
	}
	l.NativeID = nativeID
	if url != "" {
		l.URL = url
	}
	l.UpdatedAt = time.Now()
	return nil
}

// SetStatus updates the canonical listing status
func (l *PlatformLink) SetStatus(status Status) {
	l.Status = status
	l.UpdatedAt = time.Now()
}

// End moves the link to ENDED
func (l *PlatformLink) End() {
	l.SetStatus(StatusEnded)
}

// RecordSyncSuccess records a successful push to the platform
func (l *PlatformLink) RecordSyncSuccess() {
	now := time.Now()
	l.SyncState = SyncStateSynced
	l.LastSyncAt = &now
	l.UpdatedAt = now
}

// RecordSyncFailure records a failed push to the platform
func (l *PlatformLink) RecordSyncFailure() {
	now := time.Now()
	l.SyncState = SyncStateError
	l.LastSyncAt = &now
	l.UpdatedAt = now
}

// SetExtra stores a marketplace-specific payload echo on the link
func (l *PlatformLink) SetExtra(key string, value any) {
	if l.Extras == nil {
		l.Extras = make(map[string]any)
	}
	l.Extras[key] = value
	l.UpdatedAt = time.Now()
}

// LinkReader defines the interface for reading platform links
type LinkReader interface {
	// FindByID finds a link by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*PlatformLink, error)

	// FindByItem finds all links for an item
	FindByItem(ctx context.Context, itemID uuid.UUID) ([]PlatformLink, error)

	// FindByItemAndPlatform finds the link for an (item, platform) pair
	FindByItemAndPlatform(ctx context.Context, itemID uuid.UUID, platform Platform) (*PlatformLink, error)

	// FindByNativeID finds a link by its platform-native identifier
	FindByNativeID(ctx context.Context, platform Platform, nativeID string) (*PlatformLink, error)

	// FindUnresolved finds links on a platform still waiting for a native ID
	FindUnresolved(ctx context.Context, platform Platform) ([]PlatformLink, error)

	// NativeIDsForPlatform returns every known native identifier on a
	// platform; used to filter inventory snapshots down to unlinked entries
	NativeIDsForPlatform(ctx context.Context, platform Platform) ([]string, error)
}

// LinkWriter defines the interface for persisting platform links
type LinkWriter interface {
	// Save creates or updates a link
	Save(ctx context.Context, link *PlatformLink) error

	// Delete removes a link
	Delete(ctx context.Context, id uuid.UUID) error
}

// LinkRepository defines the full interface for platform link persistence
type LinkRepository interface {
	LinkReader
	LinkWriter
}
