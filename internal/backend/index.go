package backend

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"

	"github.com/gugamistri/meetingmind-search/internal/models"
)

// Per-field boosts for ranked search. Title matches dominate, transcript
// matches rank lowest. Phrase matches in title or transcript get an extra
// multiplier.
const (
	boostTitle       = 2.0
	boostParticipant = 1.5
	boostTag         = 1.25
	boostContent     = 1.0
	boostPhrase      = 1.5
)

var indexedFields = []struct {
	name      string
	boost     float64
	matchType models.MatchType
}{
	{"title", boostTitle, models.MatchTypeTitle},
	{"participants", boostParticipant, models.MatchTypeParticipant},
	{"tags", boostTag, models.MatchTypeTag},
	{"content", boostContent, models.MatchTypeContent},
}

// meetingIndex is an in-memory Bleve index over meeting text fields. It is
// rebuilt from the meetings table on startup and kept in step by AddMeeting;
// SQLite stays the system of record.
type meetingIndex struct {
	index bleve.Index
}

type meetingDoc struct {
	Title        string   `json:"title"`
	Content      string   `json:"content"`
	Participants []string `json:"participants"`
	Tags         []string `json:"tags"`
}

func newMeetingIndex() (*meetingIndex, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so a query
	// term matches the exact word it was typed as.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("title", textFieldMapping)
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	docMapping.AddFieldMappingsAt("participants", textFieldMapping)
	docMapping.AddFieldMappingsAt("tags", textFieldMapping)
	im.AddDocumentMapping("meeting", docMapping)
	im.DefaultType = "meeting"
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create search index: %w", err)
	}
	return &meetingIndex{index: index}, nil
}

// Index adds or replaces one meeting in the index.
func (x *meetingIndex) Index(m *Meeting) error {
	return x.index.Index(strconv.FormatInt(m.ID, 10), &meetingDoc{
		Title:        m.Title,
		Content:      m.Transcript,
		Participants: m.Participants,
		Tags:         m.Tags,
	})
}

// Close closes the Bleve index.
func (x *meetingIndex) Close() error {
	return x.index.Close()
}

// rankedHit is one meeting ranked by the index, with the field that
// contributed most to its score.
type rankedHit struct {
	id        int64
	score     float64
	matchType models.MatchType
}

// Search ranks every indexed meeting against query. Per-field scores merge
// additively with field boosts; multi-term queries are penalized by squared
// term coverage and boosted when the terms appear as a phrase. Final scores
// are normalized so the best hit lands at 1.0.
func (x *meetingIndex) Search(query string) ([]rankedHit, error) {
	terms := tokenizeQuery(query)
	if len(terms) == 0 {
		return nil, nil
	}
	count, err := x.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("failed to count indexed meetings: %w", err)
	}
	// Pagination and history counting need the full match set, so request
	// every indexed document from each per-field query.
	reqSize := int(count)
	if reqSize < 50 {
		reqSize = 50
	}

	type fieldScore struct {
		score     float64
		matchType models.MatchType
	}
	scores := make(map[string]float64)
	best := make(map[string]fieldScore)
	for _, f := range indexedFields {
		q := bleve.NewMatchQuery(query)
		q.SetField(f.name)
		req := bleve.NewSearchRequest(q)
		req.Size = reqSize
		results, err := x.index.Search(req)
		if err != nil {
			return nil, fmt.Errorf("search on %s failed: %w", f.name, err)
		}
		for _, hit := range results.Hits {
			boosted := hit.Score * f.boost
			scores[hit.ID] += boosted
			if b, ok := best[hit.ID]; !ok || boosted > b.score {
				best[hit.ID] = fieldScore{score: boosted, matchType: f.matchType}
			}
		}
	}
	if len(scores) == 0 {
		return nil, nil
	}

	if len(terms) > 1 {
		coverage := x.termCoverage(terms, reqSize)
		phrases := x.phraseMatches(query, reqSize)
		for id := range scores {
			matched := coverage[id]
			if matched == 0 {
				matched = 1
			}
			c := float64(matched) / float64(len(terms))
			// Squared penalty: a document matching 1 of 2 terms keeps
			// only a quarter of its score.
			scores[id] *= c * c
			if phrases[id] {
				scores[id] *= boostPhrase
			}
		}
	}

	hits := make([]rankedHit, 0, len(scores))
	top := 0.0
	for id, score := range scores {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			continue
		}
		hits = append(hits, rankedHit{id: n, score: score, matchType: best[id].matchType})
		if score > top {
			top = score
		}
	}
	if top > 0 {
		for i := range hits {
			hits[i].score /= top
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].id > hits[j].id
	})
	return hits, nil
}

// termCoverage counts how many unique query terms each meeting matches.
func (x *meetingIndex) termCoverage(terms []string, reqSize int) map[string]int {
	coverage := make(map[string]int)
	for _, term := range terms {
		req := bleve.NewSearchRequest(bleve.NewMatchQuery(term))
		req.Size = reqSize
		results, err := x.index.Search(req)
		if err != nil {
			continue
		}
		for _, hit := range results.Hits {
			coverage[hit.ID]++
		}
	}
	return coverage
}

// phraseMatches finds meetings where the query terms appear as a phrase in
// the title or transcript.
func (x *meetingIndex) phraseMatches(query string, reqSize int) map[string]bool {
	matches := make(map[string]bool)
	for _, field := range []string{"title", "content"} {
		q := bleve.NewMatchPhraseQuery(query)
		q.SetField(field)
		req := bleve.NewSearchRequest(q)
		req.Size = reqSize
		results, err := x.index.Search(req)
		if err != nil {
			continue
		}
		for _, hit := range results.Hits {
			matches[hit.ID] = true
		}
	}
	return matches
}

// tokenizeQuery splits query into lowercase terms, filtering out empty
// strings.
func tokenizeQuery(query string) []string {
	words := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(words))
	for _, w := range words {
		if w != "" {
			terms = append(terms, w)
		}
	}
	return terms
}
