package backend

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gugamistri/meetingmind-search/internal/models"
)

// SearchMeetings implements gateway.SearchGateway: filter in SQL where the
// schema allows, rank through the Bleve index, record the search in history,
// and return one page plus the full match count.
func (s *Service) SearchMeetings(ctx context.Context, query string, filters models.SearchFilters, limit, offset int, includeHighlights bool) ([]models.SearchResult, int, error) {
	started := time.Now()
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	ranked, total, err := s.searchAll(ctx, query, filters)
	if err != nil {
		return nil, 0, err
	}

	start := offset
	if start > len(ranked) {
		start = len(ranked)
	}
	end := start + limit
	if end > len(ranked) {
		end = len(ranked)
	}
	page := ranked[start:end]
	if !includeHighlights {
		for i := range page {
			page[i].HighlightPositions = []models.HighlightPosition{}
		}
	}

	s.recordHistory(ctx, query, filters, total, time.Since(started))
	return page, total, nil
}

// searchAll ranks the whole corpus through the index, then intersects the
// ranked hits with the SQL-filtered candidate set.
func (s *Service) searchAll(ctx context.Context, query string, filters models.SearchFilters) ([]models.SearchResult, int, error) {
	terms := tokenizeQuery(query)
	if len(terms) == 0 {
		return []models.SearchResult{}, 0, nil
	}

	meetings, err := s.listMeetings(ctx, filters)
	if err != nil {
		return nil, 0, err
	}
	byID := make(map[int64]*Meeting, len(meetings))
	for _, m := range meetings {
		byID[m.ID] = m
	}

	hits, err := s.idx.Search(query)
	if err != nil {
		return nil, 0, err
	}

	results := []models.SearchResult{}
	for _, hit := range hits {
		m, ok := byID[hit.id]
		if !ok {
			continue
		}
		snippet, highlights := buildSnippet(m, hit.matchType, terms)
		results = append(results, models.SearchResult{
			MeetingID:          m.ID,
			MeetingTitle:       m.Title,
			Participants:       append([]string{}, m.Participants...),
			Tags:               append([]string{}, m.Tags...),
			StartTime:          m.StartTime,
			EndTime:            m.EndTime,
			DurationMinutes:    m.DurationMinutes,
			RelevanceScore:     hit.score,
			Snippet:            snippet,
			HighlightPositions: highlights,
			MatchType:          hit.matchType,
			TranscriptionID:    m.TranscriptionID,
		})
	}
	return results, len(results), nil
}

// listMeetings applies the structured filters in SQL. Participant and tag
// membership is checked in Go because those are stored as JSON arrays.
func (s *Service) listMeetings(ctx context.Context, f models.SearchFilters) ([]*Meeting, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.DateStart != nil {
		where = append(where, "start_time >= ?")
		args = append(args, *f.DateStart)
	}
	if f.DateEnd != nil {
		where = append(where, "start_time < ?")
		args = append(args, *f.DateEnd)
	}
	if f.DurationMin != nil {
		where = append(where, "duration_minutes >= ?")
		args = append(args, *f.DurationMin)
	}
	if f.DurationMax != nil {
		where = append(where, "duration_minutes <= ?")
		args = append(args, *f.DurationMax)
	}
	if f.ConfidenceMin != nil {
		where = append(where, "confidence >= ?")
		args = append(args, *f.ConfidenceMin)
	}
	if f.ConfidenceMax != nil {
		where = append(where, "confidence <= ?")
		args = append(args, *f.ConfidenceMax)
	}
	if f.ProcessedLocally != nil {
		where = append(where, "processed_locally = ?")
		args = append(args, *f.ProcessedLocally)
	}
	if len(f.MeetingTypes) > 0 {
		where = append(where, inClause("meeting_type", len(f.MeetingTypes)))
		for _, v := range f.MeetingTypes {
			args = append(args, v)
		}
	}
	if len(f.Languages) > 0 {
		where = append(where, inClause("language", len(f.Languages)))
		for _, v := range f.Languages {
			args = append(args, v)
		}
	}
	if len(f.Models) > 0 {
		where = append(where, inClause("model", len(f.Models)))
		for _, v := range f.Models {
			args = append(args, v)
		}
	}
	if len(f.SessionIDs) > 0 {
		where = append(where, inClause("session_id", len(f.SessionIDs)))
		for _, v := range f.SessionIDs {
			args = append(args, v)
		}
	}
	if len(f.MeetingIDs) > 0 {
		where = append(where, inClause("id", len(f.MeetingIDs)))
		for _, v := range f.MeetingIDs {
			args = append(args, v)
		}
	}

	q := `SELECT id, title, COALESCE(participants, '[]'), COALESCE(tags, '[]'),
	             COALESCE(meeting_type, ''), COALESCE(language, ''), COALESCE(model, ''),
	             COALESCE(session_id, ''), COALESCE(processed_locally, 0), COALESCE(confidence, 0),
	             start_time, end_time, COALESCE(duration_minutes, 0),
	             COALESCE(transcript, ''), COALESCE(transcription_id, '')
	      FROM meetings`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY start_time DESC"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meetings []*Meeting
	for rows.Next() {
		var (
			m                  Meeting
			participants, tags string
			startNT, endNT     sql.NullTime
		)
		if err := rows.Scan(&m.ID, &m.Title, &participants, &tags, &m.MeetingType,
			&m.Language, &m.Model, &m.SessionID, &m.ProcessedLocally, &m.Confidence,
			&startNT, &endNT, &m.DurationMinutes, &m.Transcript, &m.TranscriptionID); err != nil {
			return nil, err
		}
		if startNT.Valid {
			m.StartTime = startNT.Time
		}
		if endNT.Valid {
			m.EndTime = endNT.Time
		}
		if err := json.Unmarshal([]byte(participants), &m.Participants); err != nil {
			m.Participants = []string{}
		}
		if err := json.Unmarshal([]byte(tags), &m.Tags); err != nil {
			m.Tags = []string{}
		}
		if !matchesLists(&m, f) {
			continue
		}
		meetings = append(meetings, &m)
	}
	return meetings, rows.Err()
}

func inClause(col string, n int) string {
	return col + " IN (?" + strings.Repeat(",?", n-1) + ")"
}

// matchesLists checks the participant and tag filters: every requested value
// must be present on the meeting.
func matchesLists(m *Meeting, f models.SearchFilters) bool {
	for _, want := range f.Participants {
		if !containsFold(m.Participants, want) {
			return false
		}
	}
	for _, want := range f.Tags {
		if !containsFold(m.Tags, want) {
			return false
		}
	}
	return true
}

func containsFold(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.EqualFold(h, needle) {
			return true
		}
	}
	return false
}

// SearchWithinMeeting implements gateway.SearchGateway: matches query terms
// against the meeting's transcript segments (split on blank lines, falling
// back to single lines). Timestamps are approximated by the segment's
// position in the transcript.
func (s *Service) SearchWithinMeeting(ctx context.Context, meetingID int64, query string) ([]models.InMeetingMatch, error) {
	var (
		transcript string
		duration   int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(transcript, ''), COALESCE(duration_minutes, 0) FROM meetings WHERE id = ?`,
		meetingID,
	).Scan(&transcript, &duration)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("meeting not found: %d", meetingID)
	}
	if err != nil {
		return nil, err
	}

	terms := tokenizeQuery(query)
	if len(terms) == 0 {
		return []models.InMeetingMatch{}, nil
	}

	segments := splitSegments(transcript)
	matches := []models.InMeetingMatch{}
	offset := 0
	for i, seg := range segments {
		folded := foldText(seg)
		hit := false
		for _, term := range terms {
			if strings.Contains(folded.lowered, term) {
				hit = true
				break
			}
		}
		if hit {
			snippet := excerptAround(seg, terms, snippetWindow)
			matches = append(matches, models.InMeetingMatch{
				SegmentIndex:       i,
				Snippet:            snippet,
				HighlightPositions: highlightPositions(snippet, terms),
				TimestampMs:        approxTimestampMs(offset, len(transcript), duration),
			})
		}
		offset += len(seg)
	}
	return matches, nil
}

func splitSegments(transcript string) []string {
	parts := strings.Split(transcript, "\n\n")
	if len(parts) == 1 {
		parts = strings.Split(transcript, "\n")
	}
	segments := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

// approxTimestampMs maps a character offset to a time offset assuming
// uniform speech pace across the transcript.
func approxTimestampMs(offset, total, durationMinutes int) int64 {
	if total <= 0 || durationMinutes <= 0 {
		return 0
	}
	frac := float64(offset) / float64(total)
	return int64(frac * float64(durationMinutes) * 60 * 1000)
}
