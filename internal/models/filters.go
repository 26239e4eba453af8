// Package models defines core data structures for search queries, filters,
// results, suggestions, saved searches, and history.
package models

import "time"

// SearchFilters is the structured filter set applied to a meeting search.
// Slice fields are always non-nil (possibly empty) so consumers never
// null-check; scalar fields use pointers where "unset" is meaningful.
// Treat values as immutable: derive changed copies via filter.Merge rather
// than mutating in place, so subscribers can skip re-renders on identity.
type SearchFilters struct {
	DateStart        *time.Time `json:"date_start,omitempty"`
	DateEnd          *time.Time `json:"date_end,omitempty"`
	Participants     []string   `json:"participants"`
	Tags             []string   `json:"tags"`
	MeetingTypes     []string   `json:"meeting_types"`
	DurationMin      *int       `json:"duration_min,omitempty"` // minutes
	DurationMax      *int       `json:"duration_max,omitempty"` // minutes
	ConfidenceMin    *float64   `json:"confidence_min,omitempty"`
	ConfidenceMax    *float64   `json:"confidence_max,omitempty"`
	Languages        []string   `json:"languages"`
	Models           []string   `json:"models"`
	ProcessedLocally *bool      `json:"processed_locally,omitempty"`
	MeetingIDs       []int64    `json:"meeting_ids"`
	SessionIDs       []string   `json:"session_ids"`
}

// NewSearchFilters returns the canonical empty filter set: every slice
// allocated and empty, every scalar unset. Always a fresh value.
func NewSearchFilters() SearchFilters {
	return SearchFilters{
		Participants: []string{},
		Tags:         []string{},
		MeetingTypes: []string{},
		Languages:    []string{},
		Models:       []string{},
		MeetingIDs:   []int64{},
		SessionIDs:   []string{},
	}
}

// Normalize replaces any nil slice with an empty one. Used after JSON
// decoding, where omitted arrays arrive as nil.
func (f *SearchFilters) Normalize() {
	if f.Participants == nil {
		f.Participants = []string{}
	}
	if f.Tags == nil {
		f.Tags = []string{}
	}
	if f.MeetingTypes == nil {
		f.MeetingTypes = []string{}
	}
	if f.Languages == nil {
		f.Languages = []string{}
	}
	if f.Models == nil {
		f.Models = []string{}
	}
	if f.MeetingIDs == nil {
		f.MeetingIDs = []int64{}
	}
	if f.SessionIDs == nil {
		f.SessionIDs = []string{}
	}
}
