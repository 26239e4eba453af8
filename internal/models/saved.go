package models

import (
	"fmt"
	"time"
)

// SavedSearchEntry is a persisted, user-named (query, filters) pair. The
// backend owns the record; the frontend holds a read-through copy. Filters
// are kept serialized as JSON and only decoded when the entry is invoked.
type SavedSearchEntry struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Query       string     `json:"query"`
	Filters     string     `json:"filters"`
	Description string     `json:"description,omitempty"`
	IsFavorite  bool       `json:"is_favorite"`
	UsageCount  int        `json:"usage_count"`
	LastUsed    *time.Time `json:"last_used,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// SearchHistoryEntry is one executed query in the append-only history log.
type SearchHistoryEntry struct {
	ID             int64     `json:"id"`
	Query          string    `json:"query"`
	ResultsCount   int       `json:"results_count"`
	Filters        string    `json:"filters,omitempty"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	CreatedAt      time.Time `json:"created_at"`
}

// ExportFormat selects the rendering of an exported result set.
type ExportFormat string

const (
	ExportFormatJSON     ExportFormat = "json"
	ExportFormatCSV      ExportFormat = "csv"
	ExportFormatMarkdown ExportFormat = "markdown"
	ExportFormatHTML     ExportFormat = "html"
	ExportFormatXLSX     ExportFormat = "xlsx"
)

// Validate reports whether the format is one of the supported renderings.
func (f ExportFormat) Validate() error {
	switch f {
	case ExportFormatJSON, ExportFormatCSV, ExportFormatMarkdown, ExportFormatHTML, ExportFormatXLSX:
		return nil
	}
	return fmt.Errorf("unsupported export format: %q", string(f))
}
