// Package store implements the search coordination store: the single owner
// of query, filters, results, suggestions, pagination, and the saved-search
// and history caches. All mutation goes through its operations; consumers
// read immutable snapshots and subscribe for change notification.
package store

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gugamistri/meetingmind-search/internal/debounce"
	"github.com/gugamistri/meetingmind-search/internal/gateway"
	"github.com/gugamistri/meetingmind-search/internal/models"
	"go.uber.org/zap"
)

// EmptyQueryMessage is the fixed validation message surfaced when a search
// is submitted with an empty query. Never sent to the backend.
const EmptyQueryMessage = "Please enter a search query"

// phase is the explicit primary-search state. Loading and error can never
// coexist because they are derived from a single phase value.
type phase int

const (
	phaseIdle phase = iota
	phaseSearching
	phaseResolved
	phaseFailed
)

// OpKind names an asynchronous store operation for per-operation loading
// indication.
type OpKind string

const (
	OpSearch        OpKind = "search"
	OpWithinMeeting OpKind = "within_meeting"
	OpSuggestions   OpKind = "suggestions"
	OpSaved         OpKind = "saved_searches"
	OpHistory       OpKind = "history"
	OpExport        OpKind = "export"
)

// Config holds the store's tunables.
type Config struct {
	ItemsPerPage       int
	SuggestionLimit    int
	SuggestionDebounce time.Duration
	IncludeHighlights  bool
}

func (c *Config) applyDefaults() {
	if c.ItemsPerPage <= 0 {
		c.ItemsPerPage = 20
	}
	if c.SuggestionLimit <= 0 {
		c.SuggestionLimit = 8
	}
	if c.SuggestionDebounce <= 0 {
		c.SuggestionDebounce = 300 * time.Millisecond
	}
}

// Snapshot is an immutable view of store state handed to subscribers and
// the presentation layer. Slices are copies; mutating them has no effect.
type Snapshot struct {
	Query         string                      `json:"query"`
	Filters       models.SearchFilters        `json:"filters"`
	Results       []models.SearchResult       `json:"results"`
	Suggestions   []models.SearchSuggestion   `json:"suggestions"`
	IsLoading     bool                        `json:"is_loading"`
	HasSearched   bool                        `json:"has_searched"`
	Error         string                      `json:"error,omitempty"`
	TotalResults  int                         `json:"total_results"`
	TotalMatches  int                         `json:"total_matches"`
	CurrentPage   int                         `json:"current_page"`
	ItemsPerPage  int                         `json:"items_per_page"`
	SavedSearches []models.SavedSearchEntry   `json:"saved_searches"`
	SearchHistory []models.SearchHistoryEntry `json:"search_history"`
	LoadingOps    map[OpKind]bool             `json:"loading_ops"`
}

// Store coordinates all search-related state and backend calls.
//
// TotalResults keeps the historical contract of "count of results in the
// current response", which makes "page X of Y" displays approximate.
// TotalMatches carries the backend-reported across-pages total for
// consumers that want the real number.
type Store struct {
	gw     gateway.SearchGateway
	logger *zap.Logger
	cfg    Config

	mu            sync.Mutex
	query         string
	filters       models.SearchFilters
	phase         phase
	errMsg        string
	hasSearched   bool
	results       []models.SearchResult
	suggestions   []models.SearchSuggestion
	totalResults  int
	totalMatches  int
	currentPage   int
	savedSearches []models.SavedSearchEntry
	searchHistory []models.SearchHistoryEntry
	loading       map[OpKind]bool

	// Monotonic dispatch tokens. A response is applied only when its token
	// is still the latest for its operation kind; stale responses are
	// discarded so a slow early request can never overwrite a later one.
	searchSeq  atomic.Uint64
	suggestSeq atomic.Uint64

	suggestDebounce *debounce.Debouncer[string]

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

// New creates a store over the given gateway.
func New(gw gateway.SearchGateway, cfg Config, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.applyDefaults()
	s := &Store{
		gw:            gw,
		logger:        logger,
		cfg:           cfg,
		filters:       models.NewSearchFilters(),
		results:       []models.SearchResult{},
		suggestions:   []models.SearchSuggestion{},
		savedSearches: []models.SavedSearchEntry{},
		searchHistory: []models.SearchHistoryEntry{},
		currentPage:   1,
		loading:       map[OpKind]bool{},
		subs:          map[int]func(Snapshot){},
	}
	s.suggestDebounce = debounce.New(cfg.SuggestionDebounce, func(partial string) {
		s.GetSuggestions(context.Background(), partial, "")
	})
	return s
}

// Close releases the store's timers. In-flight gateway calls are not
// cancelled; their responses are discarded by the sequence guard once a
// newer dispatch (or nothing at all) supersedes them.
func (s *Store) Close() {
	s.suggestDebounce.Stop()
}

// Subscribe registers fn to receive a snapshot after every state change.
// The returned function unsubscribes. fn is called outside the store lock;
// it may call store operations.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// Snapshot returns the current state as an immutable copy.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	ops := make(map[OpKind]bool, len(s.loading))
	for k, v := range s.loading {
		if v {
			ops[k] = true
		}
	}
	return Snapshot{
		Query:         s.query,
		Filters:       s.filters,
		Results:       append([]models.SearchResult{}, s.results...),
		Suggestions:   append([]models.SearchSuggestion{}, s.suggestions...),
		IsLoading:     s.phase == phaseSearching || s.loading[OpWithinMeeting],
		HasSearched:   s.hasSearched,
		Error:         s.errMsg,
		TotalResults:  s.totalResults,
		TotalMatches:  s.totalMatches,
		CurrentPage:   s.currentPage,
		ItemsPerPage:  s.cfg.ItemsPerPage,
		SavedSearches: append([]models.SavedSearchEntry{}, s.savedSearches...),
		SearchHistory: append([]models.SearchHistoryEntry{}, s.searchHistory...),
		LoadingOps:    ops,
	}
}

// publish snapshots state and notifies subscribers. Must be called without
// the state lock held.
func (s *Store) publish() {
	snap := s.Snapshot()
	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

// SetQuery replaces the current query text.
func (s *Store) SetQuery(q string) {
	s.mu.Lock()
	s.query = q
	s.mu.Unlock()
	s.publish()
}

// SetFilters replaces the whole filter object. Callers compose changes with
// the filter package and hand over the result; the store never patches
// filters piecemeal.
func (s *Store) SetFilters(f models.SearchFilters) {
	f.Normalize()
	s.mu.Lock()
	s.filters = f
	s.mu.Unlock()
	s.publish()
}

// ClearSearch is a hard reset to the canonical idle state: query, filters,
// results, suggestions, pagination, and error are all discarded. The
// saved-search and history caches survive; they mirror backend state.
func (s *Store) ClearSearch() {
	s.suggestDebounce.Cancel()
	// Invalidate in-flight search and suggestion responses.
	s.searchSeq.Add(1)
	s.suggestSeq.Add(1)

	s.mu.Lock()
	s.query = ""
	s.filters = models.NewSearchFilters()
	s.phase = phaseIdle
	s.errMsg = ""
	s.hasSearched = false
	s.results = []models.SearchResult{}
	s.suggestions = []models.SearchSuggestion{}
	s.totalResults = 0
	s.totalMatches = 0
	s.currentPage = 1
	delete(s.loading, OpSuggestions)
	s.mu.Unlock()
	s.publish()
}

// SuggestInput is the typing entry point for suggestion fetching: it
// debounces non-empty input before fetching, and clears suggestions
// immediately (cancelling any pending fetch) when the input empties.
func (s *Store) SuggestInput(text string) {
	if strings.TrimSpace(text) == "" {
		s.suggestDebounce.Cancel()
		s.GetSuggestions(context.Background(), "", "")
		return
	}
	s.suggestDebounce.Set(text)
}
