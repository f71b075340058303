package reconcile

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gearsync/backend/internal/domain/listing"
	"github.com/gearsync/backend/internal/domain/shared"
)

// ResolutionStatus tracks the lifecycle of a deferred identifier lookup
type ResolutionStatus string

const (
	ResolutionStatusPending  ResolutionStatus = "pending"
	ResolutionStatusResolved ResolutionStatus = "resolved"
	ResolutionStatusDead     ResolutionStatus = "dead"
)

const maxResolutionAttempts = 8

// ErrResolutionNotFound helps callers distinguish missing resolution entries
var ErrResolutionNotFound = shared.NewDomainError("RESOLUTION_NOT_FOUND", "Pending resolution not found")

// backoff schedule per attempt; attempts past the table reuse the last entry.
var resolutionBackoff = []time.Duration{
	2 * time.Minute,
	5 * time.Minute,
	15 * time.Minute,
	30 * time.Minute,
	1 * time.Hour,
	3 * time.Hour,
	6 * time.Hour,
}

// PendingResolution is a durable work-queue entry for a platform link whose
// native identifier could not be captured at creation time. Platforms like
// VintageAndRare assign IDs asynchronously, so the engine parks the link
// here and re-sweeps the platform inventory until the ID can be claimed.
type PendingResolution struct {
	shared.BaseEntity
	LinkID        uuid.UUID
	ItemID        uuid.UUID
	Platform      listing.Platform
	Status        ResolutionStatus
	Attempts      int
	NextAttemptAt time.Time
	LastError     string
	ResolvedAt    *time.Time
}

// NewPendingResolution parks a link for deferred identifier resolution
func NewPendingResolution(linkID, itemID uuid.UUID, platform listing.Platform) *PendingResolution {
	return &PendingResolution{
		BaseEntity:    shared.NewBaseEntity(),
		LinkID:        linkID,
		ItemID:        itemID,
		Platform:      platform,
		Status:        ResolutionStatusPending,
		NextAttemptAt: time.Now(),
	}
}

// Due reports whether the entry is eligible for another attempt
func (p *PendingResolution) Due(now time.Time) bool {
	return p.Status == ResolutionStatusPending && !now.Before(p.NextAttemptAt)
}

// MarkResolved closes the entry after the native ID has been claimed
func (p *PendingResolution) MarkResolved() {
	now := time.Now()
	p.Status = ResolutionStatusResolved
	p.ResolvedAt = &now
	p.Touch()
}

// Defer records a failed or inconclusive attempt and schedules the next one
// with increasing backoff. The entry goes dead after the attempt budget is
// exhausted and stays for manual inspection.
func (p *PendingResolution) Defer(reason string) {
	p.Attempts++
	p.LastError = reason
	if p.Attempts >= maxResolutionAttempts {
		p.Status = ResolutionStatusDead
		p.Touch()
		return
	}
	idx := p.Attempts - 1
	if idx >= len(resolutionBackoff) {
		idx = len(resolutionBackoff) - 1
	}
	p.NextAttemptAt = time.Now().Add(resolutionBackoff[idx])
	p.Touch()
}

// Revive puts a dead entry back in rotation for another round of attempts
func (p *PendingResolution) Revive() error {
	if p.Status == ResolutionStatusResolved {
		return shared.NewDomainError("RESOLUTION_CLOSED", "resolution already completed")
	}
	p.Status = ResolutionStatusPending
	p.Attempts = 0
	p.LastError = ""
	p.NextAttemptAt = time.Now()
	p.Touch()
	return nil
}

// ResolutionRepository persists pending resolutions
type ResolutionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PendingResolution, error)
	FindByLink(ctx context.Context, linkID uuid.UUID) (*PendingResolution, error)
	// FindDue returns pending entries whose NextAttemptAt has passed,
	// oldest first.
	FindDue(ctx context.Context, now time.Time, limit int) ([]PendingResolution, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]PendingResolution, int64, error)
	Save(ctx context.Context, resolution *PendingResolution) error
}
