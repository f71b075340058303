package listing

import "strings"

// Status is the canonical listing status vocabulary shared by all platforms
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusSold    Status = "SOLD"
	StatusEnded   Status = "ENDED"
	StatusDraft   Status = "DRAFT"
	StatusUnknown Status = "UNKNOWN"
)

// IsValid returns true for the four canonical statuses (not Unknown)
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusSold, StatusEnded, StatusDraft:
		return true
	default:
		return false
	}
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsEndState returns true if the status terminates a listing's sale lifecycle
func (s Status) IsEndState() bool {
	return s == StatusSold || s == StatusEnded
}

// statusTables maps each platform's raw status vocabulary to the canonical
// set. Keys are lower-cased; lookups are case-insensitive. Raw values not in
// the table canonicalize to StatusUnknown so an unfamiliar vocabulary never
// blocks a reconciliation decision.
var statusTables = map[Platform]map[string]Status{
	PlatformEbay: {
		"active":         StatusActive,
		"ended":          StatusEnded,
		"completed":      StatusEnded,
		"sold":           StatusSold,
		"unsold":         StatusEnded,
		"out_of_stock":   StatusSold,
		"ended_with_bid": StatusSold,
	},
	PlatformReverb: {
		"live":               StatusActive,
		"published":          StatusActive,
		"sold":               StatusSold,
		"sold_out":           StatusSold,
		"ended":              StatusEnded,
		"suspended":          StatusEnded,
		"seller_unavailable": StatusEnded,
		"draft":              StatusDraft,
	},
	PlatformVintageAndRare: {
		"active":   StatusActive,
		"online":   StatusActive,
		"sold":     StatusSold,
		"inactive": StatusEnded,
		"removed":  StatusEnded,
		"pending":  StatusDraft,
	},
	PlatformShopify: {
		"active":       StatusActive,
		"draft":        StatusDraft,
		"archived":     StatusEnded,
		"sold_out":     StatusSold,
		"out_of_stock": StatusSold,
	},
}

// Canonicalize maps a platform's raw status string to the canonical status
// set. It is deterministic, case-insensitive and total: unknown raw values
// map to StatusUnknown rather than returning an error.
func Canonicalize(platform Platform, raw string) Status {
	table, ok := statusTables[platform]
	if !ok {
		return StatusUnknown
	}
	status, ok := table[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return StatusUnknown
	}
	return status
}

// projectionTables holds the inverse mapping used when a canonical status
// must be pushed back out in a platform's own vocabulary.
var projectionTables = map[Platform]map[Status]string{
	PlatformEbay: {
		StatusActive: "Active",
		StatusSold:   "Completed",
		StatusEnded:  "Ended",
		StatusDraft:  "Inactive",
	},
	PlatformReverb: {
		StatusActive: "live",
		StatusSold:   "sold_out",
		StatusEnded:  "ended",
		StatusDraft:  "draft",
	},
	PlatformVintageAndRare: {
		StatusActive: "active",
		StatusSold:   "sold",
		StatusEnded:  "inactive",
		StatusDraft:  "pending",
	},
	PlatformShopify: {
		StatusActive: "active",
		StatusSold:   "archived",
		StatusEnded:  "archived",
		StatusDraft:  "draft",
	},
}

// ProjectStatus translates a canonical status into the platform's own status
// vocabulary for outbound updates. Unknown combinations fall back to the
// canonical string so the gateway still receives something actionable.
func ProjectStatus(platform Platform, status Status) string {
	if table, ok := projectionTables[platform]; ok {
		if raw, ok := table[status]; ok {
			return raw
		}
	}
	return string(status)
}
