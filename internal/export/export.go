// Package export renders a search result set into a portable artifact.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gugamistri/meetingmind-search/internal/models"
	"github.com/xuri/excelize/v2"
)

var columns = []string{
	"Meeting ID", "Title", "Participants", "Tags", "Start", "End",
	"Duration (min)", "Relevance", "Match Type", "Snippet",
}

// Write renders results in the given format to w. Column order is fixed
// across formats so exports diff cleanly.
func Write(w io.Writer, format models.ExportFormat, query string, results []models.SearchResult) error {
	if err := format.Validate(); err != nil {
		return err
	}
	switch format {
	case models.ExportFormatJSON:
		return writeJSON(w, query, results)
	case models.ExportFormatCSV:
		return writeCSV(w, results)
	case models.ExportFormatMarkdown:
		return writeMarkdown(w, query, results)
	case models.ExportFormatHTML:
		return writeHTML(w, query, results)
	case models.ExportFormatXLSX:
		return writeXLSX(w, results)
	}
	return fmt.Errorf("unsupported export format: %q", string(format))
}

// Extension returns the file extension for a format, without the dot.
func Extension(format models.ExportFormat) string {
	if format == models.ExportFormatMarkdown {
		return "md"
	}
	return string(format)
}

func writeJSON(w io.Writer, query string, results []models.SearchResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Query      string                `json:"query"`
		ExportedAt time.Time             `json:"exported_at"`
		Results    []models.SearchResult `json:"results"`
	}{query, time.Now().UTC(), results})
}

func rowOf(r models.SearchResult) []string {
	return []string{
		strconv.FormatInt(r.MeetingID, 10),
		r.MeetingTitle,
		strings.Join(r.Participants, "; "),
		strings.Join(r.Tags, "; "),
		r.StartTime.Format(time.RFC3339),
		r.EndTime.Format(time.RFC3339),
		strconv.Itoa(r.DurationMinutes),
		strconv.FormatFloat(r.RelevanceScore, 'f', 3, 64),
		string(r.MatchType),
		r.Snippet,
	}
}

func writeCSV(w io.Writer, results []models.SearchResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	for _, r := range results {
		if err := cw.Write(rowOf(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeMarkdown(w io.Writer, query string, results []models.SearchResult) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Search results for %q\n\n", query)
	b.WriteString("| " + strings.Join(columns, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(columns)) + "\n")
	for _, r := range results {
		cells := rowOf(r)
		for i, c := range cells {
			cells[i] = strings.ReplaceAll(c, "|", "\\|")
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

var htmlTmpl = template.Must(template.New("export").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Search results</title></head>
<body>
<h1>Search results for &ldquo;{{.Query}}&rdquo;</h1>
<table border="1">
<tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</table>
</body></html>
`))

func writeHTML(w io.Writer, query string, results []models.SearchResult) error {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, rowOf(r))
	}
	return htmlTmpl.Execute(w, struct {
		Query   string
		Columns []string
		Rows    [][]string
	}{query, columns, rows})
}

func writeXLSX(w io.Writer, results []models.SearchResult) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Results"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range results {
		cells := rowOf(r)
		row := make([]interface{}, len(cells))
		for j, c := range cells {
			row[j] = c
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	return f.Write(w)
}
