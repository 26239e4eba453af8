// Package backend is an in-process implementation of the search bridge over
// SQLite, used for local development and tests. It favors simplicity over
// ranking quality: matching is substring-based with fixed per-field weights.
package backend

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/gugamistri/meetingmind-search/internal/export"
	"github.com/gugamistri/meetingmind-search/internal/models"
	"go.uber.org/zap"
)

// Meeting is one recorded meeting as stored by the backend.
type Meeting struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	Participants     []string  `json:"participants"`
	Tags             []string  `json:"tags"`
	MeetingType      string    `json:"meeting_type"`
	Language         string    `json:"language"`
	Model            string    `json:"model"`
	SessionID        string    `json:"session_id"`
	ProcessedLocally bool      `json:"processed_locally"`
	Confidence       float64   `json:"confidence"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	DurationMinutes  int       `json:"duration_minutes"`
	Transcript       string    `json:"transcript"`
	TranscriptionID  string    `json:"transcription_id"`
}

// Service implements gateway.SearchGateway against a local SQLite database.
type Service struct {
	db        *sql.DB
	idx       *meetingIndex
	exportDir string
	logger    *zap.Logger
}

// New opens or creates the backend database at dbPath. exportDir receives
// export artifacts; it is created on demand.
func New(dbPath, exportDir string, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time keeps sqlite happy and makes ":memory:" safe
	// across the connection pool.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	idx, err := newMeetingIndex()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &Service{db: db, idx: idx, exportDir: exportDir, logger: logger}
	if err := s.reindex(context.Background()); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to build search index: %w", err)
	}
	return s, nil
}

// reindex rebuilds the in-memory search index from the meetings table.
func (s *Service) reindex(ctx context.Context) error {
	meetings, err := s.listMeetings(ctx, models.SearchFilters{})
	if err != nil {
		return err
	}
	for _, m := range meetings {
		if err := s.idx.Index(m); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS meetings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		participants TEXT,
		tags TEXT,
		meeting_type TEXT,
		language TEXT,
		model TEXT,
		session_id TEXT,
		processed_locally INTEGER,
		confidence REAL,
		start_time TIMESTAMP,
		end_time TIMESTAMP,
		duration_minutes INTEGER,
		transcript TEXT,
		transcription_id TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_meetings_start_time ON meetings(start_time);

	CREATE TABLE IF NOT EXISTS saved_searches (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		query TEXT NOT NULL,
		filters TEXT,
		description TEXT,
		is_favorite INTEGER DEFAULT 0,
		usage_count INTEGER DEFAULT 0,
		last_used TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS search_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		query TEXT NOT NULL,
		results_count INTEGER NOT NULL,
		filters TEXT,
		response_time_ms INTEGER,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_history_created_at ON search_history(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// Close closes the search index and the underlying database.
func (s *Service) Close() error {
	if err := s.idx.Close(); err != nil {
		_ = s.db.Close()
		return err
	}
	return s.db.Close()
}

// AddMeeting inserts a meeting and returns its assigned ID.
func (s *Service) AddMeeting(ctx context.Context, m *Meeting) (int64, error) {
	participants, err := json.Marshal(m.Participants)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal participants: %w", err)
	}
	tags, err := json.Marshal(m.Tags)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal tags: %w", err)
	}
	if m.DurationMinutes == 0 && !m.EndTime.IsZero() && m.EndTime.After(m.StartTime) {
		m.DurationMinutes = int(m.EndTime.Sub(m.StartTime) / time.Minute)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO meetings (title, participants, tags, meeting_type, language, model,
		 session_id, processed_locally, confidence, start_time, end_time,
		 duration_minutes, transcript, transcription_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Title, string(participants), string(tags), m.MeetingType, m.Language, m.Model,
		m.SessionID, m.ProcessedLocally, m.Confidence, m.StartTime, m.EndTime,
		m.DurationMinutes, m.Transcript, m.TranscriptionID,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	m.ID = id
	if err := s.idx.Index(m); err != nil {
		return 0, fmt.Errorf("failed to index meeting: %w", err)
	}
	return id, nil
}

// SaveSearchQuery implements gateway.SearchGateway.
func (s *Service) SaveSearchQuery(ctx context.Context, name, query string, filters models.SearchFilters, description string) (*models.SavedSearchEntry, error) {
	raw, err := json.Marshal(filters)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal filters: %w", err)
	}
	now := time.Now().UTC()
	entry := &models.SavedSearchEntry{
		ID:          uuid.New().String(),
		Name:        name,
		Query:       query,
		Filters:     string(raw),
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO saved_searches (id, name, query, filters, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Name, entry.Query, entry.Filters, entry.Description, entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// GetSavedSearches implements gateway.SearchGateway. Favorites first, then
// most recently updated.
func (s *Service) GetSavedSearches(ctx context.Context) ([]models.SavedSearchEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, query, COALESCE(filters, ''), COALESCE(description, ''),
		        is_favorite, usage_count, last_used, created_at, updated_at
		 FROM saved_searches
		 ORDER BY is_favorite DESC, updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.SavedSearchEntry{}
	for rows.Next() {
		var e models.SavedSearchEntry
		var lastUsed sql.NullTime
		if err := rows.Scan(&e.ID, &e.Name, &e.Query, &e.Filters, &e.Description,
			&e.IsFavorite, &e.UsageCount, &lastUsed, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		if lastUsed.Valid {
			t := lastUsed.Time
			e.LastUsed = &t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteSavedSearch implements gateway.SearchGateway.
func (s *Service) DeleteSavedSearch(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_searches WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("saved search not found: %s", id)
	}
	return nil
}

// UseSavedSearch implements gateway.SearchGateway: bumps the usage counter
// and last-used timestamp.
func (s *Service) UseSavedSearch(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE saved_searches
		 SET usage_count = usage_count + 1, last_used = ?, updated_at = ?
		 WHERE id = ?`,
		time.Now().UTC(), time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("saved search not found: %s", id)
	}
	return nil
}

// GetSearchHistory implements gateway.SearchGateway, newest first.
func (s *Service) GetSearchHistory(ctx context.Context, limit int) ([]models.SearchHistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, results_count, COALESCE(filters, ''), COALESCE(response_time_ms, 0), created_at
		 FROM search_history
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.SearchHistoryEntry{}
	for rows.Next() {
		var e models.SearchHistoryEntry
		if err := rows.Scan(&e.ID, &e.Query, &e.ResultsCount, &e.Filters, &e.ResponseTimeMs, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ClearSearchHistory implements gateway.SearchGateway.
func (s *Service) ClearSearchHistory(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM search_history`)
	return err
}

func (s *Service) recordHistory(ctx context.Context, query string, filters models.SearchFilters, resultsCount int, elapsed time.Duration) {
	raw, err := json.Marshal(filters)
	if err != nil {
		raw = nil
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO search_history (query, results_count, filters, response_time_ms, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		query, resultsCount, string(raw), elapsed.Milliseconds(), time.Now().UTC())
	if err != nil {
		s.logger.Warn("failed to record search history", zap.Error(err))
	}
}

// ExportSearchResults implements gateway.SearchGateway: renders the full
// (unpaginated) result set to a file and returns its path.
func (s *Service) ExportSearchResults(ctx context.Context, query string, filters models.SearchFilters, format models.ExportFormat) (string, error) {
	if err := format.Validate(); err != nil {
		return "", err
	}
	results, _, err := s.searchAll(ctx, query, filters)
	if err != nil {
		return "", err
	}
	dir := s.exportDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	name := fmt.Sprintf("search-export-%s.%s", uuid.New().String()[:8], export.Extension(format))
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()
	if err := export.Write(f, format, query, results); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	s.logger.Info("exported search results",
		zap.String("path", path),
		zap.String("format", string(format)),
		zap.Int("results", len(results)),
	)
	return path, nil
}
