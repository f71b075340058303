package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gearsync/backend/internal/domain/listing"
	"github.com/gearsync/backend/internal/domain/shared"
)

// ChangeType classifies a detected divergence between a platform's observed
// state and the canonical store
type ChangeType string

const (
	ChangeTypeNewListing     ChangeType = "new_listing"
	ChangeTypeStatusChange   ChangeType = "status_change"
	ChangeTypePriceChange    ChangeType = "price_change"
	ChangeTypeQuantityChange ChangeType = "quantity_change"
	ChangeTypeRemovedListing ChangeType = "removed_listing"
)

// IsValid returns true if the change type is known
func (t ChangeType) IsValid() bool {
	switch t {
	case ChangeTypeNewListing, ChangeTypeStatusChange, ChangeTypePriceChange,
		ChangeTypeQuantityChange, ChangeTypeRemovedListing:
		return true
	default:
		return false
	}
}

// String returns the string representation of ChangeType
func (t ChangeType) String() string {
	return string(t)
}

// EventStatus is the lifecycle state of a change event. Transitions are
// monotonic: PENDING -> PROCESSING -> {PROCESSED, PARTIAL, ERROR, SKIPPED}.
// Once terminal, reprocessing spawns a new attempt instead of mutating
// history in place.
type EventStatus string

const (
	EventStatusPending    EventStatus = "pending"
	EventStatusProcessing EventStatus = "processing"
	EventStatusProcessed  EventStatus = "processed"
	EventStatusPartial    EventStatus = "partial"
	EventStatusError      EventStatus = "error"
	EventStatusSkipped    EventStatus = "skipped"
)

// IsValid returns true if the status is known
func (s EventStatus) IsValid() bool {
	switch s {
	case EventStatusPending, EventStatusProcessing, EventStatusProcessed,
		EventStatusPartial, EventStatusError, EventStatusSkipped:
		return true
	default:
		return false
	}
}

// IsTerminal returns true once the event's outcome is final
func (s EventStatus) IsTerminal() bool {
	switch s {
	case EventStatusProcessed, EventStatusPartial, EventStatusError, EventStatusSkipped:
		return true
	default:
		return false
	}
}

// ChangeEvent errors
var (
	ErrEventNotFound      = shared.NewDomainError("EVENT_NOT_FOUND", "Change event not found")
	ErrEventNotPending    = shared.NewDomainError("EVENT_NOT_PENDING", "Change event has already been claimed or finalized")
	ErrEventNotProcessing = shared.NewDomainError("EVENT_NOT_PROCESSING", "Change event is not being processed")
	ErrEventTerminal      = shared.NewDomainError("EVENT_TERMINAL", "Change event already has a final outcome")
	ErrEventInvalidType   = shared.NewDomainError("EVENT_INVALID_TYPE", "Unknown change type")
)

// ChangeEvent is an append-only fact recording a detected divergence between
// a marketplace's observed state and the canonical store. The detector writes
// these rows; the reconciliation engine owns their lifecycle.
type ChangeEvent struct {
	shared.BaseAggregateRoot
	Platform   listing.Platform
	ExternalID string
	ChangeType ChangeType
	// Data is the raw key/value change document. Its shape depends on
	// ChangeType; DecodePayload turns it into the typed variant.
	Data        json.RawMessage
	Status      EventStatus
	ItemID      *uuid.UUID
	Notes       string
	DetectedAt  time.Time
	ProcessedAt *time.Time
}

// NewChangeEvent records a freshly detected divergence as pending
func NewChangeEvent(platform listing.Platform, externalID string, changeType ChangeType, data json.RawMessage) (*ChangeEvent, error) {
	if !platform.IsValid() {
		return nil, listing.ErrLinkInvalidPlatform
	}
	if !changeType.IsValid() {
		return nil, ErrEventInvalidType
	}

	return &ChangeEvent{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Platform:          platform,
		ExternalID:        externalID,
		ChangeType:        changeType,
		Data:              data,
		Status:            EventStatusPending,
		DetectedAt:        time.Now(),
	}, nil
}

// Claim moves a pending event into processing. The repository performs the
// equivalent compare-and-swap in the database; this guards the in-memory copy.
func (e *ChangeEvent) Claim() error {
	if e.Status != EventStatusPending {
		return ErrEventNotPending
	}
	e.Status = EventStatusProcessing
	e.Touch()
	return nil
}

// finalize applies a terminal status with a note
func (e *ChangeEvent) finalize(status EventStatus, note string) error {
	if e.Status.IsTerminal() {
		return ErrEventTerminal
	}
	now := time.Now()
	e.Status = status
	e.ProcessedAt = &now
	e.AppendNote(note)
	e.Touch()
	return nil
}

// MarkProcessed finalizes the event as fully propagated
func (e *ChangeEvent) MarkProcessed(note string) error {
	return e.finalize(EventStatusProcessed, note)
}

// MarkPartial finalizes the event with some downstream platforms failed
func (e *ChangeEvent) MarkPartial(note string) error {
	return e.finalize(EventStatusPartial, note)
}

// MarkError finalizes the event as failed
func (e *ChangeEvent) MarkError(note string) error {
	return e.finalize(EventStatusError, note)
}

// MarkSkipped finalizes the event without any action taken
func (e *ChangeEvent) MarkSkipped(note string) error {
	return e.finalize(EventStatusSkipped, note)
}

// Release returns a claimed event to pending, e.g. when a worker shuts down
// before dispatching.
func (e *ChangeEvent) Release() error {
	if e.Status != EventStatusProcessing {
		return ErrEventNotProcessing
	}
	e.Status = EventStatusPending
	e.Touch()
	return nil
}

// AttachItem records the resolved canonical item
func (e *ChangeEvent) AttachItem(itemID uuid.UUID) {
	e.ItemID = &itemID
	e.Touch()
}

// AppendNote appends an operator-visible note line
func (e *ChangeEvent) AppendNote(note string) {
	note = strings.TrimSpace(note)
	if note == "" {
		return
	}
	if e.Notes == "" {
		e.Notes = note
	} else {
		e.Notes = e.Notes + "\n" + note
	}
	e.Touch()
}

// NewAttempt spawns a fresh pending event carrying the same change so a
// terminal event's history stays immutable. The copy references the original
// in its notes.
func (e *ChangeEvent) NewAttempt() (*ChangeEvent, error) {
	if !e.Status.IsTerminal() {
		return nil, shared.ErrInvalidState
	}
	attempt, err := NewChangeEvent(e.Platform, e.ExternalID, e.ChangeType, e.Data)
	if err != nil {
		return nil, err
	}
	attempt.ItemID = e.ItemID
	attempt.DetectedAt = e.DetectedAt
	attempt.AppendNote(fmt.Sprintf("reprocess of event %s", e.ID))
	return attempt, nil
}

// GroupKey identifies the sequential-processing group for this event. Events
// for the same item (or, before identity is resolved, the same platform
// listing) must be applied strictly in detection order.
func (e *ChangeEvent) GroupKey() string {
	if e.ItemID != nil {
		return "item:" + e.ItemID.String()
	}
	return "listing:" + string(e.Platform) + ":" + e.ExternalID
}

// ---------------------------------------------------------------------------
// Typed payloads (tagged union over ChangeType)
// ---------------------------------------------------------------------------

// Payload is the decoded form of a change event's data document
type Payload interface {
	isPayload()
}

// NewListingPayload carries the raw inbound listing document for a listing
// the canonical store has never seen
type NewListingPayload struct {
	Listing map[string]any `json:"listing"`
}

// StatusChangePayload carries a raw status transition in the platform's own
// vocabulary
type StatusChangePayload struct {
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// PriceChangePayload carries a price transition
type PriceChangePayload struct {
	OldPrice json.Number `json:"old_price"`
	NewPrice json.Number `json:"new_price"`
}

// QuantityChangePayload carries a quantity transition
type QuantityChangePayload struct {
	OldQuantity int `json:"old_quantity"`
	NewQuantity int `json:"new_quantity"`
}

// RemovedListingPayload carries the last observed state of a listing that
// disappeared from the platform
type RemovedListingPayload struct {
	LastStatus string `json:"last_status"`
}

func (NewListingPayload) isPayload()     {}
func (StatusChangePayload) isPayload()   {}
func (PriceChangePayload) isPayload()    {}
func (QuantityChangePayload) isPayload() {}
func (RemovedListingPayload) isPayload() {}

// DecodePayload decodes the raw change document into the typed variant for
// the event's change type. The switch is exhaustive over ChangeType; adding a
// new kind without a case here is a compile-time visible omission in the
// orchestrator's dispatch as well.
func (e *ChangeEvent) DecodePayload() (Payload, error) {
	switch e.ChangeType {
	case ChangeTypeNewListing:
		var p NewListingPayload
		if err := json.Unmarshal(e.Data, &p); err != nil {
			return nil, fmt.Errorf("decode new_listing payload: %w", err)
		}
		if p.Listing == nil {
			// Tolerate detectors that write the listing document at the
			// top level instead of under "listing".
			var flat map[string]any
			if err := json.Unmarshal(e.Data, &flat); err != nil {
				return nil, fmt.Errorf("decode new_listing payload: %w", err)
			}
			p.Listing = flat
		}
		return p, nil
	case ChangeTypeStatusChange:
		var p StatusChangePayload
		if err := json.Unmarshal(e.Data, &p); err != nil {
			return nil, fmt.Errorf("decode status_change payload: %w", err)
		}
		return p, nil
	case ChangeTypePriceChange:
		var p PriceChangePayload
		if err := json.Unmarshal(e.Data, &p); err != nil {
			return nil, fmt.Errorf("decode price_change payload: %w", err)
		}
		return p, nil
	case ChangeTypeQuantityChange:
		var p QuantityChangePayload
		if err := json.Unmarshal(e.Data, &p); err != nil {
			return nil, fmt.Errorf("decode quantity_change payload: %w", err)
		}
		return p, nil
	case ChangeTypeRemovedListing:
		var p RemovedListingPayload
		if err := json.Unmarshal(e.Data, &p); err != nil {
			return nil, fmt.Errorf("decode removed_listing payload: %w", err)
		}
		return p, nil
	default:
		return nil, ErrEventInvalidType
	}
}

// ---------------------------------------------------------------------------
// Repository
// ---------------------------------------------------------------------------

// EventFilter defines filter criteria for change events
type EventFilter struct {
	Platform   *listing.Platform
	ChangeType *ChangeType
	Status     *EventStatus
	ItemID     *uuid.UUID
	Page       int
	PageSize   int
}

// EventRepository defines the interface for change event persistence
type EventRepository interface {
	// FindByID finds an event by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*ChangeEvent, error)

	// FindAll finds events matching the filter, newest detection first
	FindAll(ctx context.Context, filter EventFilter) ([]ChangeEvent, int64, error)

	// ClaimPending atomically claims up to limit pending events, oldest
	// detection first, moving them to processing. Each event is claimed by
	// exactly one caller.
	ClaimPending(ctx context.Context, limit int) ([]ChangeEvent, error)

	// Save creates or updates an event
	Save(ctx context.Context, event *ChangeEvent) error
}
