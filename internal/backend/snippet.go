package backend

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gugamistri/meetingmind-search/internal/models"
)

const snippetWindow = 160

// buildSnippet picks the snippet source by match type (transcript for
// content matches, title otherwise) and returns term highlight offsets
// within it.
func buildSnippet(m *Meeting, matchType models.MatchType, terms []string) (string, []models.HighlightPosition) {
	source := m.Title
	if matchType == models.MatchTypeContent {
		source = m.Transcript
	}
	snippet := excerptAround(source, terms, snippetWindow)
	return snippet, highlightPositions(snippet, terms)
}

// foldedText pairs a lowercased copy of text with a byte offset map back to
// the original, so case-insensitive matches can be reported as offsets into
// the original bytes. Case folding can change a rune's byte length, so the
// lowered offsets cannot be used directly.
type foldedText struct {
	original string
	lowered  string
	offsets  []int
}

func foldText(text string) *foldedText {
	var b strings.Builder
	b.Grow(len(text))
	offsets := make([]int, 0, len(text)+1)
	for i, r := range text {
		lr := unicode.ToLower(r)
		for n := utf8.RuneLen(lr); n > 0; n-- {
			offsets = append(offsets, i)
		}
		b.WriteRune(lr)
	}
	offsets = append(offsets, len(text))
	return &foldedText{original: text, lowered: b.String(), offsets: offsets}
}

// matches returns the original-byte offsets of every case-insensitive
// occurrence of term.
func (f *foldedText) matches(term string) []models.HighlightPosition {
	term = strings.ToLower(term)
	if term == "" {
		return nil
	}
	var positions []models.HighlightPosition
	from := 0
	for {
		i := strings.Index(f.lowered[from:], term)
		if i < 0 {
			break
		}
		start := from + i
		end := start + len(term)
		positions = append(positions, models.HighlightPosition{
			Start: f.offsets[start],
			End:   f.offsets[end],
		})
		from = end
	}
	return positions
}

// first returns the earliest original-byte offset of any term, or -1.
func (f *foldedText) first(terms []string) int {
	first := -1
	for _, term := range terms {
		term = strings.ToLower(term)
		if term == "" {
			continue
		}
		if i := strings.Index(f.lowered, term); i >= 0 {
			orig := f.offsets[i]
			if first < 0 || orig < first {
				first = orig
			}
		}
	}
	return first
}

// excerptAround returns a window of text centered on the first term
// occurrence, snapped to rune boundaries and trimmed to a word boundary
// where possible.
func excerptAround(text string, terms []string, window int) string {
	if len(text) <= window {
		return text
	}
	first := foldText(text).first(terms)
	if first < 0 {
		return strings.TrimSpace(text[:runeFloor(text, window)])
	}
	start := first - window/3
	if start < 0 {
		start = 0
	}
	end := start + window
	if end > len(text) {
		end = len(text)
		start = end - window
	}
	start = runeFloor(text, start)
	end = runeCeil(text, end)
	out := text[start:end]
	if start > 0 {
		if i := strings.IndexByte(out, ' '); i >= 0 && i < 20 {
			out = out[i+1:]
		}
	}
	return strings.TrimSpace(out)
}

// runeFloor moves i back to the start of the rune containing it.
func runeFloor(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// runeCeil moves i forward past any continuation bytes.
func runeCeil(s string, i int) int {
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return i
}

// highlightPositions returns offsets of every case-insensitive term
// occurrence in snippet, ordered by start.
func highlightPositions(snippet string, terms []string) []models.HighlightPosition {
	folded := foldText(snippet)
	positions := []models.HighlightPosition{}
	for _, term := range terms {
		positions = append(positions, folded.matches(term)...)
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i].Start < positions[j].Start })
	return positions
}
