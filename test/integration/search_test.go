// Package integration provides full-stack tests (embedded backend, store,
// and HTTP server wired together).
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gugamistri/meetingmind-search/internal/backend"
	"github.com/gugamistri/meetingmind-search/internal/config"
	"github.com/gugamistri/meetingmind-search/internal/models"
	"github.com/gugamistri/meetingmind-search/internal/server"
	"github.com/gugamistri/meetingmind-search/internal/store"
	"go.uber.org/zap"
)

func seedBackend(t *testing.T) *backend.Service {
	t.Helper()
	svc, err := backend.New(":memory:", t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { svc.Close() })

	ctx := context.Background()
	start := time.Date(2026, 4, 6, 10, 0, 0, 0, time.UTC)
	meetings := []*backend.Meeting{
		{Title: "Sprint planning", Participants: []string{"Ana", "Bob"}, Tags: []string{"sprint"},
			StartTime: start, EndTime: start.Add(time.Hour),
			Transcript: "We planned the sprint backlog and assigned stories."},
		{Title: "Incident review", Participants: []string{"Carol"}, Tags: []string{"ops"},
			StartTime: start.AddDate(0, 0, 1), EndTime: start.AddDate(0, 0, 1).Add(30 * time.Minute),
			Transcript: "The outage was caused by a bad deploy. Rollback fixed it."},
	}
	for _, m := range meetings {
		if _, err := svc.AddMeeting(ctx, m); err != nil {
			t.Fatal(err)
		}
	}
	return svc
}

func TestIntegration_SearchThroughStore(t *testing.T) {
	svc := seedBackend(t)
	st := store.New(svc, store.Config{}, nil)
	defer st.Close()
	ctx := context.Background()

	st.SetQuery("sprint")
	if err := st.PerformSearch(ctx, store.SearchOptions{}); err != nil {
		t.Fatal(err)
	}
	snap := st.Snapshot()
	if snap.Error != "" {
		t.Fatalf("unexpected error: %s", snap.Error)
	}
	if len(snap.Results) != 1 || snap.Results[0].MeetingTitle != "Sprint planning" {
		t.Errorf("results: %+v", snap.Results)
	}

	// The search is recorded in history end to end.
	if err := st.LoadSearchHistory(ctx, 0); err != nil {
		t.Fatal(err)
	}
	hist := st.Snapshot().SearchHistory
	if len(hist) != 1 || hist[0].Query != "sprint" {
		t.Errorf("history: %+v", hist)
	}
}

func TestIntegration_SearchSaveUseExportOverHTTP(t *testing.T) {
	svc := seedBackend(t)
	st := store.New(svc, store.Config{}, nil)
	defer st.Close()
	srv := server.NewServer(st, &config.ServerConfig{Host: "localhost", Port: 0}, zap.NewNop())
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	post := func(path string, body interface{}) *http.Response {
		t.Helper()
		var buf bytes.Buffer
		if body != nil {
			if err := json.NewEncoder(&buf).Encode(body); err != nil {
				t.Fatal(err)
			}
		}
		resp, err := http.Post(ts.URL+path, "application/json", &buf)
		if err != nil {
			t.Fatal(err)
		}
		return resp
	}

	// Search.
	q := "deploy"
	resp := post("/api/v1/search", map[string]interface{}{"query": q})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search status: %d", resp.StatusCode)
	}
	var snap store.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if len(snap.Results) != 1 || snap.Results[0].MeetingTitle != "Incident review" {
		t.Fatalf("search results: %+v", snap.Results)
	}

	// Save the current search.
	resp = post("/api/v1/search/saved", map[string]string{"name": "deploys"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("save status: %d", resp.StatusCode)
	}
	var entry models.SavedSearchEntry
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	// Clear, then use the saved search: results come back.
	resp = post("/api/v1/search/clear", nil)
	resp.Body.Close()
	resp = post("/api/v1/search/saved/"+entry.ID+"/use", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("use status: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if snap.Query != "deploy" || len(snap.Results) != 1 {
		t.Errorf("after use: query=%q results=%d", snap.Query, len(snap.Results))
	}

	// Export the results to a file on disk.
	resp = post("/api/v1/search/export", map[string]string{"format": "csv"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status: %d", resp.StatusCode)
	}
	var out struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	data, err := os.ReadFile(out.Path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Incident review") {
		t.Errorf("export content: %s", data)
	}
}
