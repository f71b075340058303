package reconcile

import (
	"github.com/gearsync/backend/internal/domain/catalog"
	"github.com/gearsync/backend/internal/domain/listing"
)

// MatchSuggestion is a candidate resolution of an inbound listing payload to
// an existing canonical item. It is produced and consumed within a single
// reconciliation pass and never persisted.
type MatchSuggestion struct {
	Item *catalog.Item
	// Confidence is in [0,1]; 1.0 is reserved for exact stock-key matches.
	Confidence float64
	// Justification is a human-readable account of which signals matched.
	Justification string
	// LinkedPlatforms lists the platforms the candidate is already listed on.
	LinkedPlatforms []listing.Platform
}

// IsExact returns true for exact stock-key matches
func (s *MatchSuggestion) IsExact() bool {
	return s.Confidence >= 1.0
}
