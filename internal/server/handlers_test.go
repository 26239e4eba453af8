package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gugamistri/meetingmind-search/internal/backend"
	"github.com/gugamistri/meetingmind-search/internal/config"
	"github.com/gugamistri/meetingmind-search/internal/models"
	"github.com/gugamistri/meetingmind-search/internal/store"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	svc, err := backend.New(":memory:", t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { svc.Close() })

	start := time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)
	for _, m := range []*backend.Meeting{
		{Title: "Daily standup", Participants: []string{"Ana"}, Tags: []string{"standup"},
			StartTime: start, EndTime: start.Add(10 * time.Minute),
			Transcript: "Ana shared progress.\n\nBob is blocked on calendar sync."},
		{Title: "Q1 budget review", Participants: []string{"Carol"}, Tags: []string{"finance"},
			StartTime: start.AddDate(0, 0, 1), EndTime: start.AddDate(0, 0, 1).Add(45 * time.Minute),
			Transcript: "The budget was approved."},
	} {
		if _, err := svc.AddMeeting(context.Background(), m); err != nil {
			t.Fatal(err)
		}
	}

	st := store.New(svc, store.Config{ItemsPerPage: 20, IncludeHighlights: true}, nil)
	t.Cleanup(st.Close)
	srv := NewServer(st, &config.ServerConfig{Host: "localhost", Port: 8585}, zap.NewNop())
	return srv, st
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandleSearch(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Routes()

	q := "standup"
	w := doJSON(t, h, http.MethodPost, "/api/v1/search", searchRequest{Query: &q})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	var snap store.Snapshot
	if err := json.NewDecoder(w.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if !snap.HasSearched || len(snap.Results) != 1 {
		t.Errorf("snapshot: hasSearched=%v results=%d", snap.HasSearched, len(snap.Results))
	}
	if snap.Results[0].MeetingTitle != "Daily standup" {
		t.Errorf("result: %+v", snap.Results[0])
	}
	if snap.CurrentPage != 1 || snap.TotalResults != 1 {
		t.Errorf("pagination: page=%d total=%d", snap.CurrentPage, snap.TotalResults)
	}
}

func TestHandleSearch_EmptyQueryIs422(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Routes()

	q := "  "
	w := doJSON(t, h, http.MethodPost, "/api/v1/search", searchRequest{Query: &q})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d", w.Code)
	}
	var snap store.Snapshot
	if err := json.NewDecoder(w.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if snap.Error != store.EmptyQueryMessage {
		t.Errorf("error: got %q", snap.Error)
	}
}

func TestHandleClearAndState(t *testing.T) {
	srv, st := newTestServer(t)
	h := srv.Routes()

	st.SetQuery("budget")
	if err := st.PerformSearch(context.Background(), store.SearchOptions{}); err != nil {
		t.Fatal(err)
	}

	w := doJSON(t, h, http.MethodPost, "/api/v1/search/clear", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("clear status: %d", w.Code)
	}

	w = doJSON(t, h, http.MethodGet, "/api/v1/search/state", nil)
	var snap store.Snapshot
	if err := json.NewDecoder(w.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if snap.Query != "" || snap.HasSearched || len(snap.Results) != 0 {
		t.Errorf("state after clear: %+v", snap)
	}
}

func TestHandleSuggestions(t *testing.T) {
	srv, st := newTestServer(t)
	h := srv.Routes()

	// Seed history so recent-query suggestions exist.
	st.SetQuery("budget")
	if err := st.PerformSearch(context.Background(), store.SearchOptions{}); err != nil {
		t.Fatal(err)
	}

	w := doJSON(t, h, http.MethodGet, "/api/v1/search/suggestions?q=bud", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	var out struct {
		Suggestions []models.SearchSuggestion `json:"suggestions"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Suggestions) == 0 {
		t.Error("expected suggestions")
	}
}

func TestHandleSavedLifecycle(t *testing.T) {
	srv, st := newTestServer(t)
	h := srv.Routes()

	st.SetQuery("budget")
	w := doJSON(t, h, http.MethodPost, "/api/v1/search/saved", savedCreateRequest{Name: "budgets"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status: %d body %s", w.Code, w.Body.String())
	}
	var entry models.SavedSearchEntry
	if err := json.NewDecoder(w.Body).Decode(&entry); err != nil {
		t.Fatal(err)
	}

	w = doJSON(t, h, http.MethodGet, "/api/v1/search/saved", nil)
	var list struct {
		SavedSearches []models.SavedSearchEntry `json:"saved_searches"`
	}
	if err := json.NewDecoder(w.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if len(list.SavedSearches) != 1 {
		t.Fatalf("saved list: %+v", list.SavedSearches)
	}

	// Using the saved search lands on results immediately.
	w = doJSON(t, h, http.MethodPost, "/api/v1/search/saved/"+entry.ID+"/use", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("use status: %d body %s", w.Code, w.Body.String())
	}
	var snap store.Snapshot
	if err := json.NewDecoder(w.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if snap.Query != "budget" || len(snap.Results) != 1 {
		t.Errorf("after use: query=%q results=%d", snap.Query, len(snap.Results))
	}

	w = doJSON(t, h, http.MethodDelete, "/api/v1/search/saved/"+entry.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status: %d", w.Code)
	}

	w = doJSON(t, h, http.MethodPost, "/api/v1/search/saved/missing/use", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("use missing: got %d", w.Code)
	}
}

func TestHandleHistory(t *testing.T) {
	srv, st := newTestServer(t)
	h := srv.Routes()

	st.SetQuery("budget")
	if err := st.PerformSearch(context.Background(), store.SearchOptions{}); err != nil {
		t.Fatal(err)
	}

	w := doJSON(t, h, http.MethodGet, "/api/v1/search/history?limit=10", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	var out struct {
		History []models.SearchHistoryEntry `json:"history"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.History) != 1 || out.History[0].Query != "budget" {
		t.Errorf("history: %+v", out.History)
	}

	w = doJSON(t, h, http.MethodDelete, "/api/v1/search/history", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("clear status: %d", w.Code)
	}

	w = doJSON(t, h, http.MethodGet, "/api/v1/search/history", nil)
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.History) != 0 {
		t.Errorf("history after clear: %+v", out.History)
	}
}

func TestHandleWithinMeeting(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Routes()

	w := doJSON(t, h, http.MethodPost, "/api/v1/meetings/1/search", map[string]string{"query": "calendar"})
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d body %s", w.Code, w.Body.String())
	}
	var out struct {
		Matches []models.InMeetingMatch `json:"matches"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Matches) != 1 {
		t.Errorf("matches: %+v", out.Matches)
	}

	w = doJSON(t, h, http.MethodPost, "/api/v1/meetings/abc/search", map[string]string{"query": "x"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad id: got %d", w.Code)
	}
}

func TestHandleExport(t *testing.T) {
	srv, st := newTestServer(t)
	h := srv.Routes()

	st.SetQuery("budget")
	w := doJSON(t, h, http.MethodPost, "/api/v1/search/export", exportRequest{Format: models.ExportFormatJSON})
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d body %s", w.Code, w.Body.String())
	}
	var out struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Path == "" {
		t.Error("expected artifact path")
	}

	w = doJSON(t, h, http.MethodPost, "/api/v1/search/export", exportRequest{Format: "docx"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad format: got %d", w.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doJSON(t, srv.Routes(), http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status: %d", w.Code)
	}
}
