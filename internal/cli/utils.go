// Package cli provides CLI output helpers for meeting search results.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gugamistri/meetingmind-search/internal/models"
	"github.com/gugamistri/meetingmind-search/pkg/utils"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
	// OutputCompact is one result per line.
	OutputCompact SearchOutputFormat = "compact"
)

// ParseOutputFormat maps a flag value to a format; unknown values error.
func ParseOutputFormat(s string) (SearchOutputFormat, error) {
	switch s {
	case "text", "":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	case "compact":
		return OutputCompact, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
	}
}

// WriteSearchResults writes search results to w in the given format.
// total is the across-pages match count.
func WriteSearchResults(w io.Writer, query string, results []models.SearchResult, total int, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(models.SearchResponse{Results: results, Total: total, Query: query})
	case OutputCompact:
		for _, r := range results {
			fmt.Fprintf(w, "%d\t%.2f\t%s\t%s\t%s\n",
				r.MeetingID, r.RelevanceScore, r.MatchType,
				r.StartTime.Format("2006-01-02"), r.MeetingTitle)
		}
		return nil
	default:
		writeSearchResultsText(w, query, results, total)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, query string, results []models.SearchResult, total int) {
	fmt.Fprintf(w, "\nFound %d result(s) for %q (%d match(es) total)\n\n", len(results), query, total)
	for _, r := range results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "[%s] Score: %.4f\n", r.MatchType, r.RelevanceScore)
		fmt.Fprintf(w, "Meeting #%d: %s\n", r.MeetingID, r.MeetingTitle)
		fmt.Fprintf(w, "When: %s (%d min)\n", r.StartTime.Format("2006-01-02 15:04"), r.DurationMinutes)
		if len(r.Participants) > 0 {
			fmt.Fprintf(w, "Participants: %s\n", strings.Join(r.Participants, ", "))
		}
		if len(r.Tags) > 0 {
			fmt.Fprintf(w, "Tags: %s\n", strings.Join(r.Tags, ", "))
		}
		if r.Snippet != "" {
			fmt.Fprintf(w, "\n%s\n", utils.Truncate(r.Snippet, 200))
		}
		fmt.Fprintln(w)
	}
}

// WriteHistory writes history entries to w, one per line, newest first.
func WriteHistory(w io.Writer, entries []models.SearchHistoryEntry, format SearchOutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %-30q %d result(s) in %dms\n",
			e.CreatedAt.Format("2006-01-02 15:04"), e.Query, e.ResultsCount, e.ResponseTimeMs)
	}
	return nil
}

// WriteSavedSearches writes saved searches to w, favorites first.
func WriteSavedSearches(w io.Writer, entries []models.SavedSearchEntry, format SearchOutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	for _, e := range entries {
		marker := " "
		if e.IsFavorite {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s  %-20s %q (used %d time(s))\n", marker, e.ID, e.Name, e.Query, e.UsageCount)
	}
	return nil
}
