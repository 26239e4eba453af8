package models

import (
	"encoding/json"
	"testing"
)

func TestSearchQuery_Validate(t *testing.T) {
	q := &SearchQuery{Query: ""}
	if err := q.Validate(); err == nil {
		t.Error("expected error for empty query")
	}

	q = &SearchQuery{Query: "standup", Limit: 0, Offset: -3}
	if err := q.Validate(); err != nil {
		t.Fatal(err)
	}
	if q.Limit != 20 {
		t.Errorf("default limit: got %d, want 20", q.Limit)
	}
	if q.Offset != 0 {
		t.Errorf("offset: got %d, want 0", q.Offset)
	}

	q = &SearchQuery{Query: "standup", Limit: 500}
	if err := q.Validate(); err != nil {
		t.Fatal(err)
	}
	if q.Limit != 100 {
		t.Errorf("clamped limit: got %d, want 100", q.Limit)
	}
}

func TestNewSearchFilters_EmptySlices(t *testing.T) {
	f := NewSearchFilters()
	for name, s := range map[string]int{
		"participants":  len(f.Participants),
		"tags":          len(f.Tags),
		"meeting_types": len(f.MeetingTypes),
		"languages":     len(f.Languages),
		"models":        len(f.Models),
		"meeting_ids":   len(f.MeetingIDs),
		"session_ids":   len(f.SessionIDs),
	} {
		if s != 0 {
			t.Errorf("%s: expected empty, got %d elements", name, s)
		}
	}
	if f.Participants == nil || f.Tags == nil || f.MeetingIDs == nil {
		t.Error("slices must be allocated, not nil")
	}
}

func TestSearchFilters_NormalizeAfterDecode(t *testing.T) {
	var f SearchFilters
	if err := json.Unmarshal([]byte(`{"tags":["planning"]}`), &f); err != nil {
		t.Fatal(err)
	}
	f.Normalize()
	if f.Participants == nil || f.Languages == nil || f.SessionIDs == nil {
		t.Error("Normalize must allocate omitted slices")
	}
	if len(f.Tags) != 1 || f.Tags[0] != "planning" {
		t.Errorf("tags: got %v", f.Tags)
	}
}

func TestExportFormat_Validate(t *testing.T) {
	for _, f := range []ExportFormat{ExportFormatJSON, ExportFormatCSV, ExportFormatMarkdown, ExportFormatHTML, ExportFormatXLSX} {
		if err := f.Validate(); err != nil {
			t.Errorf("%s: unexpected error: %v", f, err)
		}
	}
	if err := ExportFormat("pdf").Validate(); err == nil {
		t.Error("expected error for unsupported format")
	}
}
