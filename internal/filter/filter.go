// Package filter provides pure composition helpers for search filters:
// active-category counting, duration presets, and immutable merging.
package filter

import (
	"time"

	"github.com/gugamistri/meetingmind-search/internal/models"
)

// Option applies one filter change to a copy of the current filter set.
type Option func(*models.SearchFilters)

// Merge returns a new filter set with the given options applied over
// current. current is never mutated; slice fields are copied first so the
// result shares no backing storage with the input.
func Merge(current models.SearchFilters, opts ...Option) models.SearchFilters {
	next := clone(current)
	for _, opt := range opts {
		opt(&next)
	}
	return next
}

// ClearAll returns the canonical all-empty filter set. Always a fresh value,
// never a shared singleton.
func ClearAll() models.SearchFilters {
	return models.NewSearchFilters()
}

// CountActive counts filter categories with any value set. A range counts as
// one category whether one or both bounds are set; each non-empty list field
// counts as one. The count drives the filter badge in the UI, so it is
// per-category, not per-value.
func CountActive(f models.SearchFilters) int {
	count := 0
	if f.DateStart != nil || f.DateEnd != nil {
		count++
	}
	if len(f.Participants) > 0 {
		count++
	}
	if len(f.Tags) > 0 {
		count++
	}
	if len(f.MeetingTypes) > 0 {
		count++
	}
	if f.DurationMin != nil || f.DurationMax != nil {
		count++
	}
	if f.ConfidenceMin != nil || f.ConfidenceMax != nil {
		count++
	}
	if len(f.Languages) > 0 {
		count++
	}
	if len(f.Models) > 0 {
		count++
	}
	if f.ProcessedLocally != nil {
		count++
	}
	if len(f.MeetingIDs) > 0 {
		count++
	}
	if len(f.SessionIDs) > 0 {
		count++
	}
	return count
}

// PresetKind names a duration preset.
type PresetKind string

const (
	PresetShort  PresetKind = "short"  // under 15 minutes
	PresetMedium PresetKind = "medium" // 15 to 60 minutes
	PresetLong   PresetKind = "long"   // over 60 minutes
)

// DurationPreset returns an Option applying a fixed duration range.
// Unknown kinds clear the duration range entirely.
func DurationPreset(kind PresetKind) Option {
	return func(f *models.SearchFilters) {
		switch kind {
		case PresetShort:
			f.DurationMin = nil
			f.DurationMax = intPtr(15)
		case PresetMedium:
			f.DurationMin = intPtr(15)
			f.DurationMax = intPtr(60)
		case PresetLong:
			f.DurationMin = intPtr(60)
			f.DurationMax = nil
		default:
			f.DurationMin = nil
			f.DurationMax = nil
		}
	}
}

// WithDateRange sets the date range; nil bounds clear that side.
func WithDateRange(start, end *time.Time) Option {
	return func(f *models.SearchFilters) {
		f.DateStart = copyTimePtr(start)
		f.DateEnd = copyTimePtr(end)
	}
}

// WithParticipants replaces the participants list.
func WithParticipants(participants []string) Option {
	return func(f *models.SearchFilters) {
		f.Participants = copyStrings(participants)
	}
}

// WithTags replaces the tags list.
func WithTags(tags []string) Option {
	return func(f *models.SearchFilters) {
		f.Tags = copyStrings(tags)
	}
}

// WithMeetingTypes replaces the meeting type list.
func WithMeetingTypes(types []string) Option {
	return func(f *models.SearchFilters) {
		f.MeetingTypes = copyStrings(types)
	}
}

// WithDurationRange sets the duration range in minutes; nil bounds clear.
func WithDurationRange(min, max *int) Option {
	return func(f *models.SearchFilters) {
		f.DurationMin = copyIntPtr(min)
		f.DurationMax = copyIntPtr(max)
	}
}

// WithConfidenceRange sets the transcription confidence range; nil bounds clear.
func WithConfidenceRange(min, max *float64) Option {
	return func(f *models.SearchFilters) {
		f.ConfidenceMin = copyFloatPtr(min)
		f.ConfidenceMax = copyFloatPtr(max)
	}
}

// WithLanguages replaces the language list.
func WithLanguages(languages []string) Option {
	return func(f *models.SearchFilters) {
		f.Languages = copyStrings(languages)
	}
}

// WithModels replaces the transcription model list.
func WithModels(names []string) Option {
	return func(f *models.SearchFilters) {
		f.Models = copyStrings(names)
	}
}

// WithProcessedLocally sets the local-processing flag; nil clears it.
func WithProcessedLocally(v *bool) Option {
	return func(f *models.SearchFilters) {
		if v == nil {
			f.ProcessedLocally = nil
			return
		}
		b := *v
		f.ProcessedLocally = &b
	}
}

// WithMeetingIDs replaces the meeting ID list.
func WithMeetingIDs(ids []int64) Option {
	return func(f *models.SearchFilters) {
		out := make([]int64, len(ids))
		copy(out, ids)
		f.MeetingIDs = out
	}
}

// WithSessionIDs replaces the session ID list.
func WithSessionIDs(ids []string) Option {
	return func(f *models.SearchFilters) {
		f.SessionIDs = copyStrings(ids)
	}
}

func clone(f models.SearchFilters) models.SearchFilters {
	out := f
	out.DateStart = copyTimePtr(f.DateStart)
	out.DateEnd = copyTimePtr(f.DateEnd)
	out.Participants = copyStrings(f.Participants)
	out.Tags = copyStrings(f.Tags)
	out.MeetingTypes = copyStrings(f.MeetingTypes)
	out.DurationMin = copyIntPtr(f.DurationMin)
	out.DurationMax = copyIntPtr(f.DurationMax)
	out.ConfidenceMin = copyFloatPtr(f.ConfidenceMin)
	out.ConfidenceMax = copyFloatPtr(f.ConfidenceMax)
	out.Languages = copyStrings(f.Languages)
	out.Models = copyStrings(f.Models)
	if f.ProcessedLocally != nil {
		b := *f.ProcessedLocally
		out.ProcessedLocally = &b
	}
	ids := make([]int64, len(f.MeetingIDs))
	copy(ids, f.MeetingIDs)
	out.MeetingIDs = ids
	out.SessionIDs = copyStrings(f.SessionIDs)
	return out
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func copyTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyIntPtr(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

func copyFloatPtr(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func intPtr(v int) *int { return &v }
