package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gugamistri/meetingmind-search/internal/models"
	"go.uber.org/zap"
)

func TestHTTPGateway_SearchMeetings(t *testing.T) {
	var gotReq searchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/search" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatal(err)
		}
		resp := models.SearchResponse{
			Results: []models.SearchResult{
				{MeetingID: 1, MeetingTitle: "Daily standup", RelevanceScore: 0.9, MatchType: models.MatchTypeTitle},
			},
			Total: 7,
			Query: gotReq.Query,
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, 5*time.Second, zap.NewNop())
	results, total, err := g.SearchMeetings(context.Background(), "standup", models.NewSearchFilters(), 20, 40, true)
	if err != nil {
		t.Fatal(err)
	}
	if gotReq.Limit != 20 || gotReq.Offset != 40 || !gotReq.IncludeHighlights {
		t.Errorf("request fields: limit=%d offset=%d highlights=%v", gotReq.Limit, gotReq.Offset, gotReq.IncludeHighlights)
	}
	if len(results) != 1 || results[0].MeetingTitle != "Daily standup" {
		t.Errorf("results: %+v", results)
	}
	if total != 7 {
		t.Errorf("total: got %d, want 7", total)
	}
}

func TestHTTPGateway_ErrorBodyBecomesBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "index unavailable"})
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, 5*time.Second, zap.NewNop())
	_, _, err := g.SearchMeetings(context.Background(), "standup", models.NewSearchFilters(), 20, 0, false)
	if err == nil {
		t.Fatal("expected error")
	}
	be, ok := err.(*BackendError)
	if !ok {
		t.Fatalf("expected *BackendError, got %T: %v", err, err)
	}
	if be.Message != "index unavailable" {
		t.Errorf("message: got %q", be.Message)
	}
	if Reason(err) != "index unavailable" {
		t.Errorf("Reason: got %q", Reason(err))
	}
}

func TestHTTPGateway_SuggestionsQueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "stan" {
			t.Errorf("q: got %q", got)
		}
		if got := r.URL.Query().Get("type"); got != "tag" {
			t.Errorf("type: got %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "5" {
			t.Errorf("limit: got %q", got)
		}
		json.NewEncoder(w).Encode(map[string][]models.SearchSuggestion{
			"suggestions": {{Suggestion: "standup", SuggestionType: models.SuggestionTypeTag, Frequency: 3}},
		})
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, 5*time.Second, zap.NewNop())
	sugg, err := g.GetSearchSuggestions(context.Background(), "stan", models.SuggestionTypeTag, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(sugg) != 1 || sugg[0].Suggestion != "standup" {
		t.Errorf("suggestions: %+v", sugg)
	}
}

func TestHTTPGateway_SavedSearchRoundTrips(t *testing.T) {
	// Method-prefixed ServeMux patterns need Go 1.22; dispatch on r.Method
	// inside the handlers to stay compatible with Go 1.21.
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/search/saved", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			json.NewEncoder(w).Encode(models.SavedSearchEntry{ID: "s1", Name: "weekly", Query: "retro"})
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string][]models.SavedSearchEntry{
				"saved_searches": {{ID: "s1", Name: "weekly"}},
			})
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/api/v1/search/saved/s1", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/v1/search/saved/s1/use", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, 5*time.Second, zap.NewNop())
	ctx := context.Background()

	entry, err := g.SaveSearchQuery(ctx, "weekly", "retro", models.NewSearchFilters(), "")
	if err != nil {
		t.Fatal(err)
	}
	if entry.ID != "s1" {
		t.Errorf("entry id: got %q", entry.ID)
	}
	list, err := g.GetSavedSearches(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("saved searches: %+v", list)
	}
	if err := g.UseSavedSearch(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	if err := g.DeleteSavedSearch(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
}

func TestHTTPGateway_EmptyResultsNeverNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total":0,"query":"x"}`))
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, 5*time.Second, zap.NewNop())
	results, _, err := g.SearchMeetings(context.Background(), "x", models.NewSearchFilters(), 20, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	if results == nil {
		t.Error("results must be an empty slice, not nil")
	}
}
