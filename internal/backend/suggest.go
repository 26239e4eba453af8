package backend

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/gugamistri/meetingmind-search/internal/models"
)

// GetSearchSuggestions implements gateway.SearchGateway. Recent queries and
// popular terms come from the history log; participants, tags, and titles
// come from the meeting table. An empty suggestionType mixes all sources,
// recent queries first.
func (s *Service) GetSearchSuggestions(ctx context.Context, partialQuery string, suggestionType models.SuggestionType, limit int) ([]models.SearchSuggestion, error) {
	if limit <= 0 {
		limit = 8
	}
	partial := strings.ToLower(strings.TrimSpace(partialQuery))
	if partial == "" {
		return []models.SearchSuggestion{}, nil
	}

	want := func(t models.SuggestionType) bool {
		return suggestionType == "" || suggestionType == t
	}
	out := []models.SearchSuggestion{}

	if want(models.SuggestionTypeRecentQuery) {
		recent, err := s.recentQuerySuggestions(ctx, partial, limit)
		if err != nil {
			return nil, err
		}
		out = append(out, recent...)
	}
	if want(models.SuggestionTypePopularTerm) {
		popular, err := s.popularTermSuggestions(ctx, partial, limit)
		if err != nil {
			return nil, err
		}
		out = append(out, popular...)
	}
	if want(models.SuggestionTypeParticipant) || want(models.SuggestionTypeTag) || want(models.SuggestionTypeMeetingTitle) {
		fields, err := s.meetingFieldSuggestions(ctx, partial, want)
		if err != nil {
			return nil, err
		}
		out = append(out, fields...)
	}

	out = dedupeSuggestions(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Service) recentQuerySuggestions(ctx context.Context, partial string, limit int) ([]models.SearchSuggestion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT query, COUNT(*) AS freq, MAX(created_at)
		 FROM search_history
		 WHERE LOWER(query) LIKE ?
		 GROUP BY query
		 ORDER BY freq DESC, MAX(created_at) DESC
		 LIMIT ?`,
		"%"+partial+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SearchSuggestion
	for rows.Next() {
		var (
			sg       models.SearchSuggestion
			lastUsed time.Time
		)
		if err := rows.Scan(&sg.Suggestion, &sg.Frequency, &lastUsed); err != nil {
			return nil, err
		}
		sg.SuggestionType = models.SuggestionTypeRecentQuery
		t := lastUsed
		sg.LastUsed = &t
		out = append(out, sg)
	}
	return out, rows.Err()
}

// popularTermSuggestions tallies individual words across recent history
// queries.
func (s *Service) popularTermSuggestions(ctx context.Context, partial string, limit int) ([]models.SearchSuggestion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT query FROM search_history ORDER BY created_at DESC LIMIT 500`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, err
		}
		for _, term := range tokenizeQuery(q) {
			if strings.Contains(term, partial) {
				counts[term]++
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []models.SearchSuggestion
	for term, freq := range counts {
		if freq < 2 {
			// A term used once is recent, not popular.
			continue
		}
		out = append(out, models.SearchSuggestion{
			Suggestion:     term,
			SuggestionType: models.SuggestionTypePopularTerm,
			Frequency:      freq,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Suggestion < out[j].Suggestion
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Service) meetingFieldSuggestions(ctx context.Context, partial string, want func(models.SuggestionType) bool) ([]models.SearchSuggestion, error) {
	meetings, err := s.listMeetings(ctx, models.NewSearchFilters())
	if err != nil {
		return nil, err
	}

	type key struct {
		text string
		typ  models.SuggestionType
	}
	counts := map[key]int{}
	for _, m := range meetings {
		if want(models.SuggestionTypeMeetingTitle) && strings.Contains(strings.ToLower(m.Title), partial) {
			counts[key{m.Title, models.SuggestionTypeMeetingTitle}]++
		}
		if want(models.SuggestionTypeParticipant) {
			for _, p := range m.Participants {
				if strings.Contains(strings.ToLower(p), partial) {
					counts[key{p, models.SuggestionTypeParticipant}]++
				}
			}
		}
		if want(models.SuggestionTypeTag) {
			for _, tag := range m.Tags {
				if strings.Contains(strings.ToLower(tag), partial) {
					counts[key{tag, models.SuggestionTypeTag}]++
				}
			}
		}
	}

	out := make([]models.SearchSuggestion, 0, len(counts))
	for k, freq := range counts {
		out = append(out, models.SearchSuggestion{
			Suggestion:     k.text,
			SuggestionType: k.typ,
			Frequency:      freq,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Suggestion < out[j].Suggestion
	})
	return out, nil
}

func dedupeSuggestions(in []models.SearchSuggestion) []models.SearchSuggestion {
	seen := map[string]bool{}
	out := in[:0]
	for _, sg := range in {
		k := string(sg.SuggestionType) + "\x00" + strings.ToLower(sg.Suggestion)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, sg)
	}
	return out
}
