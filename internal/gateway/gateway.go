// Package gateway defines the typed façade over the backend's search
// operations. Implementations translate store-level calls into remote calls
// and back with no logic of their own: no retries, no caching, no rate
// limiting. That discipline lives in the coordination store.
package gateway

import (
	"context"
	"fmt"

	"github.com/gugamistri/meetingmind-search/internal/models"
)

// SearchGateway is the backend search service boundary. Every operation is a
// single round trip; failures propagate to the caller untransformed.
type SearchGateway interface {
	// SearchMeetings runs a full search and returns one page of ranked hits
	// plus the backend-reported across-pages match total.
	SearchMeetings(ctx context.Context, query string, filters models.SearchFilters, limit, offset int, includeHighlights bool) ([]models.SearchResult, int, error)

	// SearchWithinMeeting searches one meeting's transcript.
	SearchWithinMeeting(ctx context.Context, meetingID int64, query string) ([]models.InMeetingMatch, error)

	// GetSearchSuggestions returns typeahead suggestions for a partial query.
	// An empty suggestionType means all types.
	GetSearchSuggestions(ctx context.Context, partialQuery string, suggestionType models.SuggestionType, limit int) ([]models.SearchSuggestion, error)

	// SaveSearchQuery persists a named (query, filters) pair.
	SaveSearchQuery(ctx context.Context, name, query string, filters models.SearchFilters, description string) (*models.SavedSearchEntry, error)

	// GetSavedSearches lists all saved searches.
	GetSavedSearches(ctx context.Context) ([]models.SavedSearchEntry, error)

	// DeleteSavedSearch removes a saved search by ID.
	DeleteSavedSearch(ctx context.Context, id string) error

	// UseSavedSearch records a usage of a saved search; the backend bumps
	// its usage counter and last-used timestamp.
	UseSavedSearch(ctx context.Context, id string) error

	// GetSearchHistory returns the most recent history entries, newest first.
	GetSearchHistory(ctx context.Context, limit int) ([]models.SearchHistoryEntry, error)

	// ClearSearchHistory wipes the history log.
	ClearSearchHistory(ctx context.Context) error

	// ExportSearchResults renders the full result set of a query and returns
	// an opaque artifact reference (a path or URL).
	ExportSearchResults(ctx context.Context, query string, filters models.SearchFilters, format models.ExportFormat) (string, error)
}

// BackendError is a failure reported by the backend for one operation.
type BackendError struct {
	Op      string
	Message string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Reason returns the human-readable message from err when it is a
// BackendError, or err.Error() otherwise. Empty for nil.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	if be, ok := err.(*BackendError); ok {
		return be.Message
	}
	return err.Error()
}
