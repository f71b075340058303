package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gearsync/backend/internal/domain/listing"
)

// HandlerResult captures the per-platform outcome of one propagation. The
// processor derives the event's final status from it: every downstream
// platform that was pushed to lands in exactly one of the two slices. The
// source marketplace's own commit is reported through Note, never through
// the slices, so an all-downstream failure settles the event as an error.
type HandlerResult struct {
	Succeeded []listing.Platform
	Failed    []listing.Platform
	// Errors holds the failure detail per platform for the event notes.
	Errors map[listing.Platform]string
	// Skip marks the whole event as a deliberate no-op.
	Skip bool
	Note string
}

// NewHandlerResult creates an empty result
func NewHandlerResult() *HandlerResult {
	return &HandlerResult{Errors: make(map[listing.Platform]string)}
}

// SkipResult creates a no-op result with an explanatory note
func SkipResult(note string) *HandlerResult {
	return &HandlerResult{Skip: true, Note: note, Errors: make(map[listing.Platform]string)}
}

// AddSuccess records a platform that accepted the propagation
func (r *HandlerResult) AddSuccess(platform listing.Platform) {
	r.Succeeded = append(r.Succeeded, platform)
}

// AddFailure records a platform that rejected the propagation
func (r *HandlerResult) AddFailure(platform listing.Platform, err error) {
	r.Failed = append(r.Failed, platform)
	if err != nil {
		r.Errors[platform] = err.Error()
	}
}

// Summary renders an operator-readable outcome line for the event notes
func (r *HandlerResult) Summary() string {
	var parts []string
	if r.Note != "" {
		parts = append(parts, r.Note)
	}
	if len(r.Succeeded) > 0 {
		parts = append(parts, fmt.Sprintf("propagated to %s", joinPlatforms(r.Succeeded)))
	}
	for _, platform := range sortedPlatforms(r.Failed) {
		detail := r.Errors[platform]
		if detail == "" {
			detail = "unknown error"
		}
		parts = append(parts, fmt.Sprintf("%s failed: %s", platform, detail))
	}
	return strings.Join(parts, "; ")
}

func joinPlatforms(platforms []listing.Platform) string {
	names := make([]string, 0, len(platforms))
	for _, p := range sortedPlatforms(platforms) {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}

func sortedPlatforms(platforms []listing.Platform) []listing.Platform {
	out := append([]listing.Platform(nil), platforms...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
