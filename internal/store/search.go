package store

import (
	"context"
	"strings"

	"github.com/gugamistri/meetingmind-search/internal/gateway"
	"github.com/gugamistri/meetingmind-search/internal/models"
	"go.uber.org/zap"
)

// SearchOptions selects the pagination window for one search. Zero values
// mean "page 1" and "the configured items per page".
type SearchOptions struct {
	Page  int
	Limit int
}

// PerformSearch runs the primary search for the current query and filters.
//
// An empty (or whitespace-only) query short-circuits locally: the fixed
// validation message is surfaced and the gateway is never called. Otherwise
// the store enters the searching phase (clearing any prior error first),
// calls the gateway, and on completion either resolves with the response's
// results replacing the previous set wholesale, or fails with the error
// message and an emptied result view. A response that arrives after a newer
// search was dispatched is discarded without touching state.
//
// The returned error mirrors what was surfaced in the snapshot; callers
// driving UI from subscriptions can ignore it.
func (s *Store) PerformSearch(ctx context.Context, opts SearchOptions) error {
	page := opts.Page
	if page <= 0 {
		page = 1
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = s.cfg.ItemsPerPage
	}
	offset := (page - 1) * limit

	s.mu.Lock()
	query := strings.TrimSpace(s.query)
	if query == "" {
		s.errMsg = EmptyQueryMessage
		if s.phase == phaseSearching {
			s.phase = phaseIdle
		}
		s.mu.Unlock()
		s.publish()
		return &ValidationError{Message: EmptyQueryMessage}
	}
	token := s.searchSeq.Add(1)
	s.phase = phaseSearching
	s.errMsg = ""
	filters := s.filters
	s.mu.Unlock()
	s.publish()

	results, total, err := s.gw.SearchMeetings(ctx, query, filters, limit, offset, s.cfg.IncludeHighlights)

	s.mu.Lock()
	if token != s.searchSeq.Load() {
		// A newer search (or a clear) superseded this one.
		s.mu.Unlock()
		s.logger.Debug("discarding stale search response", zap.String("query", query))
		return nil
	}
	if err != nil {
		s.phase = phaseFailed
		s.errMsg = searchFailureMessage(err)
		s.results = []models.SearchResult{}
		s.totalResults = 0
		s.totalMatches = 0
		s.mu.Unlock()
		s.publish()
		s.logger.Warn("search failed", zap.String("query", query), zap.Error(err))
		return err
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	s.phase = phaseResolved
	s.hasSearched = true
	s.errMsg = ""
	s.results = results
	s.totalResults = len(results)
	s.totalMatches = total
	s.currentPage = page
	s.mu.Unlock()
	s.publish()
	return nil
}

// SearchWithinMeeting searches one meeting's transcript. The match list is
// returned to the caller and never stored in shared state; only the
// per-operation loading flag is shared. Failures do not touch the primary
// search state.
func (s *Store) SearchWithinMeeting(ctx context.Context, meetingID int64, query string) ([]models.InMeetingMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.InMeetingMatch{}, nil
	}

	s.setLoading(OpWithinMeeting, true)
	matches, err := s.gw.SearchWithinMeeting(ctx, meetingID, query)
	s.setLoading(OpWithinMeeting, false)
	if err != nil {
		s.logger.Warn("search within meeting failed", zap.Int64("meeting_id", meetingID), zap.Error(err))
		return nil, err
	}
	if matches == nil {
		matches = []models.InMeetingMatch{}
	}
	return matches, nil
}

// GetSuggestions fetches typeahead suggestions for a partial query and
// replaces the suggestion set wholesale. Empty input clears suggestions
// immediately with no backend call. Failures clear suggestions silently;
// suggestion fetches are background convenience and never surface errors.
// Stale responses (an older fetch resolving after a newer one was
// dispatched) are discarded.
func (s *Store) GetSuggestions(ctx context.Context, partialQuery string, suggestionType models.SuggestionType) {
	partial := strings.TrimSpace(partialQuery)
	token := s.suggestSeq.Add(1)

	if partial == "" {
		s.mu.Lock()
		s.suggestions = []models.SearchSuggestion{}
		delete(s.loading, OpSuggestions)
		s.mu.Unlock()
		s.publish()
		return
	}

	s.setLoading(OpSuggestions, true)
	suggestions, err := s.gw.GetSearchSuggestions(ctx, partial, suggestionType, s.cfg.SuggestionLimit)

	s.mu.Lock()
	if token != s.suggestSeq.Load() {
		s.mu.Unlock()
		return
	}
	delete(s.loading, OpSuggestions)
	if err != nil {
		s.suggestions = []models.SearchSuggestion{}
		s.mu.Unlock()
		s.publish()
		s.logger.Debug("suggestion fetch failed", zap.String("partial", partial), zap.Error(err))
		return
	}
	if suggestions == nil {
		suggestions = []models.SearchSuggestion{}
	}
	s.suggestions = suggestions
	s.mu.Unlock()
	s.publish()
}

// ExportResults asks the backend to render the current query's full result
// set and returns the artifact reference. Failure surfaces on the shared
// error field without touching results.
func (s *Store) ExportResults(ctx context.Context, format models.ExportFormat) (string, error) {
	if err := format.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	query := strings.TrimSpace(s.query)
	filters := s.filters
	s.mu.Unlock()
	if query == "" {
		return "", &ValidationError{Message: EmptyQueryMessage}
	}

	s.setLoading(OpExport, true)
	path, err := s.gw.ExportSearchResults(ctx, query, filters, format)
	if err != nil {
		s.failAux(OpExport, "Failed to export search results", err)
		return "", err
	}
	s.setLoading(OpExport, false)
	return path, nil
}

// setLoading flips one operation's loading flag and notifies.
func (s *Store) setLoading(op OpKind, v bool) {
	s.mu.Lock()
	if v {
		s.loading[op] = true
	} else {
		delete(s.loading, op)
	}
	s.mu.Unlock()
	s.publish()
}

// failAux records an auxiliary operation failure: loading off, shared error
// set, primary search state untouched.
func (s *Store) failAux(op OpKind, fallback string, err error) {
	msg := gateway.Reason(err)
	if msg == "" {
		msg = fallback
	}
	s.mu.Lock()
	delete(s.loading, op)
	s.errMsg = msg
	s.mu.Unlock()
	s.publish()
	s.logger.Warn("operation failed", zap.String("op", string(op)), zap.Error(err))
}

// searchFailureMessage extracts a human-readable message for a failed
// primary search.
func searchFailureMessage(err error) string {
	if msg := gateway.Reason(err); msg != "" {
		return msg
	}
	return "Search failed. Please try again."
}

// ValidationError is a local precondition failure that never reached the
// backend.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
