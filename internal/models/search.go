package models

import (
	"fmt"
	"time"
)

// MatchType indicates which meeting field a result matched on.
type MatchType string

const (
	MatchTypeContent     MatchType = "content"
	MatchTypeTitle       MatchType = "title"
	MatchTypeParticipant MatchType = "participant"
	MatchTypeTag         MatchType = "tag"
)

// SuggestionType classifies where a search suggestion came from.
type SuggestionType string

const (
	SuggestionTypeRecentQuery  SuggestionType = "recent_query"
	SuggestionTypePopularTerm  SuggestionType = "popular_term"
	SuggestionTypeParticipant  SuggestionType = "participant"
	SuggestionTypeTag          SuggestionType = "tag"
	SuggestionTypeMeetingTitle SuggestionType = "meeting_title"
)

// SearchQuery represents one search intent sent to the backend. It is
// ephemeral: the store rebuilds it from current state before each call.
type SearchQuery struct {
	Query             string        `json:"query"`
	Filters           SearchFilters `json:"filters"`
	Limit             int           `json:"limit,omitempty"`
	Offset            int           `json:"offset,omitempty"`
	IncludeHighlights bool          `json:"include_highlights,omitempty"`
}

// Validate ensures the query has valid fields and sets defaults.
// Returns an error if the query text is empty; otherwise normalizes limit.
func (q *SearchQuery) Validate() error {
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	q.Filters.Normalize()
	return nil
}

// HighlightPosition is a character offset range within a snippet marking a
// matched term. End is exclusive.
type HighlightPosition struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// SearchResult is a single ranked hit. Created fresh on every response and
// never mutated; the store replaces the whole result set atomically.
type SearchResult struct {
	MeetingID          int64               `json:"meeting_id"`
	MeetingTitle       string              `json:"meeting_title"`
	Participants       []string            `json:"participants"`
	Tags               []string            `json:"tags"`
	StartTime          time.Time           `json:"start_time"`
	EndTime            time.Time           `json:"end_time"`
	DurationMinutes    int                 `json:"duration_minutes"`
	RelevanceScore     float64             `json:"relevance_score"` // in [0,1]
	Snippet            string              `json:"snippet"`
	HighlightPositions []HighlightPosition `json:"highlight_positions"`
	MatchType          MatchType           `json:"match_type"`
	TranscriptionID    string              `json:"transcription_id,omitempty"`
}

// InMeetingMatch is one hit from searching within a single meeting's
// transcript. Returned directly to the caller, never held in shared state.
type InMeetingMatch struct {
	SegmentIndex       int                 `json:"segment_index"`
	Snippet            string              `json:"snippet"`
	HighlightPositions []HighlightPosition `json:"highlight_positions"`
	TimestampMs        int64               `json:"timestamp_ms"`
}

// SearchSuggestion is one typeahead suggestion. Suggestion sets are replaced
// wholesale on each fetch; stale suggestions never linger after input changes.
type SearchSuggestion struct {
	Suggestion     string         `json:"suggestion"`
	SuggestionType SuggestionType `json:"suggestion_type"`
	Frequency      int            `json:"frequency"`
	LastUsed       *time.Time     `json:"last_used,omitempty"`
}

// SearchResponse is the backend's answer to a search request. Total is the
// across-pages match count as reported by the backend.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
	Total   int            `json:"total"`
	Query   string         `json:"query"`
}
