package store

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/gugamistri/meetingmind-search/internal/models"
	"go.uber.org/zap"
)

// Saved-search and history operations are side channels: on success they
// update their own cache atomically; on failure they surface the shared
// error field but never touch the primary search state.

// LoadSavedSearches refreshes the saved-search cache from the backend.
func (s *Store) LoadSavedSearches(ctx context.Context) error {
	s.setLoading(OpSaved, true)
	entries, err := s.gw.GetSavedSearches(ctx)
	if err != nil {
		s.failAux(OpSaved, "Failed to load saved searches", err)
		return err
	}
	if entries == nil {
		entries = []models.SavedSearchEntry{}
	}
	s.mu.Lock()
	delete(s.loading, OpSaved)
	s.savedSearches = entries
	s.mu.Unlock()
	s.publish()
	return nil
}

// SaveCurrentSearch persists the current query and filters under a name and
// appends the new entry to the cache.
func (s *Store) SaveCurrentSearch(ctx context.Context, name, description string) (*models.SavedSearchEntry, error) {
	s.mu.Lock()
	query := strings.TrimSpace(s.query)
	filters := s.filters
	s.mu.Unlock()
	if query == "" {
		return nil, &ValidationError{Message: EmptyQueryMessage}
	}
	if strings.TrimSpace(name) == "" {
		return nil, &ValidationError{Message: "Please enter a name for the saved search"}
	}

	s.setLoading(OpSaved, true)
	entry, err := s.gw.SaveSearchQuery(ctx, name, query, filters, description)
	if err != nil {
		s.failAux(OpSaved, "Failed to save search", err)
		return nil, err
	}
	s.mu.Lock()
	delete(s.loading, OpSaved)
	s.savedSearches = append(s.savedSearches, *entry)
	s.mu.Unlock()
	s.publish()
	return entry, nil
}

// DeleteSavedSearch removes a saved search and drops it from the cache.
func (s *Store) DeleteSavedSearch(ctx context.Context, id string) error {
	s.setLoading(OpSaved, true)
	if err := s.gw.DeleteSavedSearch(ctx, id); err != nil {
		s.failAux(OpSaved, "Failed to delete saved search", err)
		return err
	}
	s.mu.Lock()
	delete(s.loading, OpSaved)
	kept := s.savedSearches[:0]
	for _, e := range s.savedSearches {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	s.savedSearches = kept
	s.mu.Unlock()
	s.publish()
	return nil
}

// UseSavedSearch applies a saved search and immediately runs it, so
// selecting an entry always lands on results. It records the usage with the
// backend (failures there are logged and do not block the search),
// deserializes the stored filters with a fall-back to the canonical empty
// set when the JSON is malformed, overwrites query and filters, and
// triggers PerformSearch on page 1.
func (s *Store) UseSavedSearch(ctx context.Context, entry models.SavedSearchEntry) error {
	if err := s.gw.UseSavedSearch(ctx, entry.ID); err != nil {
		// Usage counters are advisory; the user still expects results.
		s.logger.Warn("recording saved search usage failed", zap.String("id", entry.ID), zap.Error(err))
	}

	filters := parseSavedFilters(entry.Filters, s.logger)

	s.mu.Lock()
	s.query = entry.Query
	s.filters = filters
	s.mu.Unlock()
	s.publish()

	return s.PerformSearch(ctx, SearchOptions{})
}

// parseSavedFilters decodes a saved filter JSON blob, substituting the
// canonical empty filter set when the blob is empty or malformed. Parse
// failures are logged, never surfaced.
func parseSavedFilters(raw string, logger *zap.Logger) models.SearchFilters {
	if strings.TrimSpace(raw) == "" {
		return models.NewSearchFilters()
	}
	var f models.SearchFilters
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		logger.Warn("malformed saved search filters, using defaults", zap.Error(err))
		return models.NewSearchFilters()
	}
	f.Normalize()
	return f
}

// LoadSearchHistory refreshes the history cache, newest first.
func (s *Store) LoadSearchHistory(ctx context.Context, limit int) error {
	s.setLoading(OpHistory, true)
	entries, err := s.gw.GetSearchHistory(ctx, limit)
	if err != nil {
		s.failAux(OpHistory, "Failed to load search history", err)
		return err
	}
	if entries == nil {
		entries = []models.SearchHistoryEntry{}
	}
	s.mu.Lock()
	delete(s.loading, OpHistory)
	s.searchHistory = entries
	s.mu.Unlock()
	s.publish()
	return nil
}

// ClearSearchHistory wipes the backend history log and the cache.
func (s *Store) ClearSearchHistory(ctx context.Context) error {
	s.setLoading(OpHistory, true)
	if err := s.gw.ClearSearchHistory(ctx); err != nil {
		s.failAux(OpHistory, "Failed to clear search history", err)
		return err
	}
	s.mu.Lock()
	delete(s.loading, OpHistory)
	s.searchHistory = []models.SearchHistoryEntry{}
	s.mu.Unlock()
	s.publish()
	return nil
}
