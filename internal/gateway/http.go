package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gugamistri/meetingmind-search/internal/models"
	"go.uber.org/zap"
)

// HTTPGateway implements SearchGateway over the backend's JSON/HTTP bridge.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPGateway creates a gateway against baseURL (no trailing slash
// required). timeout bounds each round trip; zero means no client timeout
// (the per-call context still applies).
func NewHTTPGateway(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type searchRequest struct {
	Query             string               `json:"query"`
	Filters           models.SearchFilters `json:"filters"`
	Limit             int                  `json:"limit"`
	Offset            int                  `json:"offset"`
	IncludeHighlights bool                 `json:"include_highlights"`
}

// SearchMeetings implements SearchGateway.
func (g *HTTPGateway) SearchMeetings(ctx context.Context, query string, filters models.SearchFilters, limit, offset int, includeHighlights bool) ([]models.SearchResult, int, error) {
	req := searchRequest{Query: query, Filters: filters, Limit: limit, Offset: offset, IncludeHighlights: includeHighlights}
	var resp models.SearchResponse
	if err := g.doJSON(ctx, "search", http.MethodPost, "/api/v1/search", req, &resp); err != nil {
		return nil, 0, err
	}
	if resp.Results == nil {
		resp.Results = []models.SearchResult{}
	}
	return resp.Results, resp.Total, nil
}

// SearchWithinMeeting implements SearchGateway.
func (g *HTTPGateway) SearchWithinMeeting(ctx context.Context, meetingID int64, query string) ([]models.InMeetingMatch, error) {
	var resp struct {
		Matches []models.InMeetingMatch `json:"matches"`
	}
	path := fmt.Sprintf("/api/v1/meetings/%d/search", meetingID)
	body := map[string]string{"query": query}
	if err := g.doJSON(ctx, "search within meeting", http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	if resp.Matches == nil {
		resp.Matches = []models.InMeetingMatch{}
	}
	return resp.Matches, nil
}

// GetSearchSuggestions implements SearchGateway.
func (g *HTTPGateway) GetSearchSuggestions(ctx context.Context, partialQuery string, suggestionType models.SuggestionType, limit int) ([]models.SearchSuggestion, error) {
	q := url.Values{}
	q.Set("q", partialQuery)
	if suggestionType != "" {
		q.Set("type", string(suggestionType))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var resp struct {
		Suggestions []models.SearchSuggestion `json:"suggestions"`
	}
	if err := g.doJSON(ctx, "get suggestions", http.MethodGet, "/api/v1/search/suggestions?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Suggestions == nil {
		resp.Suggestions = []models.SearchSuggestion{}
	}
	return resp.Suggestions, nil
}

// SaveSearchQuery implements SearchGateway.
func (g *HTTPGateway) SaveSearchQuery(ctx context.Context, name, query string, filters models.SearchFilters, description string) (*models.SavedSearchEntry, error) {
	body := struct {
		Name        string               `json:"name"`
		Query       string               `json:"query"`
		Filters     models.SearchFilters `json:"filters"`
		Description string               `json:"description,omitempty"`
	}{name, query, filters, description}
	var entry models.SavedSearchEntry
	if err := g.doJSON(ctx, "save search", http.MethodPost, "/api/v1/search/saved", body, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetSavedSearches implements SearchGateway.
func (g *HTTPGateway) GetSavedSearches(ctx context.Context) ([]models.SavedSearchEntry, error) {
	var resp struct {
		SavedSearches []models.SavedSearchEntry `json:"saved_searches"`
	}
	if err := g.doJSON(ctx, "load saved searches", http.MethodGet, "/api/v1/search/saved", nil, &resp); err != nil {
		return nil, err
	}
	if resp.SavedSearches == nil {
		resp.SavedSearches = []models.SavedSearchEntry{}
	}
	return resp.SavedSearches, nil
}

// DeleteSavedSearch implements SearchGateway.
func (g *HTTPGateway) DeleteSavedSearch(ctx context.Context, id string) error {
	return g.doJSON(ctx, "delete saved search", http.MethodDelete, "/api/v1/search/saved/"+url.PathEscape(id), nil, nil)
}

// UseSavedSearch implements SearchGateway.
func (g *HTTPGateway) UseSavedSearch(ctx context.Context, id string) error {
	return g.doJSON(ctx, "use saved search", http.MethodPost, "/api/v1/search/saved/"+url.PathEscape(id)+"/use", nil, nil)
}

// GetSearchHistory implements SearchGateway.
func (g *HTTPGateway) GetSearchHistory(ctx context.Context, limit int) ([]models.SearchHistoryEntry, error) {
	path := "/api/v1/search/history"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp struct {
		History []models.SearchHistoryEntry `json:"history"`
	}
	if err := g.doJSON(ctx, "load search history", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.History == nil {
		resp.History = []models.SearchHistoryEntry{}
	}
	return resp.History, nil
}

// ClearSearchHistory implements SearchGateway.
func (g *HTTPGateway) ClearSearchHistory(ctx context.Context) error {
	return g.doJSON(ctx, "clear search history", http.MethodDelete, "/api/v1/search/history", nil, nil)
}

// ExportSearchResults implements SearchGateway.
func (g *HTTPGateway) ExportSearchResults(ctx context.Context, query string, filters models.SearchFilters, format models.ExportFormat) (string, error) {
	body := struct {
		Query   string               `json:"query"`
		Filters models.SearchFilters `json:"filters"`
		Format  models.ExportFormat  `json:"format"`
	}{query, filters, format}
	var resp struct {
		Path string `json:"path"`
	}
	if err := g.doJSON(ctx, "export results", http.MethodPost, "/api/v1/search/export", body, &resp); err != nil {
		return "", err
	}
	return resp.Path, nil
}

// doJSON runs one round trip: encode reqBody (nil for none), decode a 2xx
// response into out (nil to discard). Non-2xx responses become BackendError
// with the server's error message when the body carries one.
func (g *HTTPGateway) doJSON(ctx context.Context, op, method, path string, reqBody, out interface{}) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return &BackendError{Op: op, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		msg := serverErrorMessage(raw)
		if msg == "" {
			msg = fmt.Sprintf("server returned %d", resp.StatusCode)
		}
		g.logger.Debug("backend call failed",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.String("message", msg),
		)
		return &BackendError{Op: op, Message: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// serverErrorMessage extracts {"error": "..."} from an error body, if present.
func serverErrorMessage(raw []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &e); err != nil {
		return ""
	}
	return e.Error
}
