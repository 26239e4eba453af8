package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gugamistri/meetingmind-search/internal/models"
	"github.com/gugamistri/meetingmind-search/internal/store"
	"go.uber.org/zap"
)

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.store.Snapshot())
}

type searchRequest struct {
	Query   *string               `json:"query,omitempty"`
	Filters *models.SearchFilters `json:"filters,omitempty"`
	Page    int                   `json:"page,omitempty"`
	Limit   int                   `json:"limit,omitempty"`
}

// handleSearch optionally updates query and filters, then performs the
// search. A validation failure is a 422 with the snapshot still returned
// so clients render the surfaced error message.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query != nil {
		s.store.SetQuery(*req.Query)
	}
	if req.Filters != nil {
		s.store.SetFilters(*req.Filters)
	}
	s.logger.Debug("search request", zap.Int("page", req.Page))

	err := s.store.PerformSearch(r.Context(), store.SearchOptions{Page: req.Page, Limit: req.Limit})
	var ve *store.ValidationError
	if errors.As(err, &ve) {
		s.respondJSON(w, http.StatusUnprocessableEntity, s.store.Snapshot())
		return
	}
	// Backend failures are already surfaced in the snapshot's error field;
	// the presentation contract is the snapshot, not the transport status.
	s.respondJSON(w, http.StatusOK, s.store.Snapshot())
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.store.ClearSearch()
	s.respondJSON(w, http.StatusOK, s.store.Snapshot())
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	partial := r.URL.Query().Get("q")
	typ := models.SuggestionType(r.URL.Query().Get("type"))
	s.store.GetSuggestions(r.Context(), partial, typ)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"suggestions": s.store.Snapshot().Suggestions,
	})
}

func (s *Server) handleSavedList(w http.ResponseWriter, r *http.Request) {
	if err := s.store.LoadSavedSearches(r.Context()); err != nil {
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"saved_searches": s.store.Snapshot().SavedSearches,
	})
}

type savedCreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (s *Server) handleSavedCreate(w http.ResponseWriter, r *http.Request) {
	var req savedCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	entry, err := s.store.SaveCurrentSearch(r.Context(), req.Name, req.Description)
	if err != nil {
		var ve *store.ValidationError
		if errors.As(err, &ve) {
			s.respondError(w, http.StatusUnprocessableEntity, ve.Message)
			return
		}
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleSavedDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.DeleteSavedSearch(r.Context(), id); err != nil {
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

// handleSavedUse applies a cached saved search by ID and runs it.
func (s *Server) handleSavedUse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var entry *models.SavedSearchEntry
	for _, e := range s.store.Snapshot().SavedSearches {
		if e.ID == id {
			entry = &e
			break
		}
	}
	if entry == nil {
		s.respondError(w, http.StatusNotFound, "saved search not found")
		return
	}
	s.logger.Debug("use saved search", zap.String("id", id), zap.String("query", entry.Query))
	if err := s.store.UseSavedSearch(r.Context(), *entry); err != nil {
		var ve *store.ValidationError
		if !errors.As(err, &ve) {
			s.respondError(w, http.StatusBadGateway, err.Error())
			return
		}
	}
	s.respondJSON(w, http.StatusOK, s.store.Snapshot())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	if err := s.store.LoadSearchHistory(r.Context(), limit); err != nil {
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"history": s.store.Snapshot().SearchHistory,
	})
}

func (s *Server) handleHistoryClear(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ClearSearchHistory(r.Context()); err != nil {
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

type exportRequest struct {
	Format models.ExportFormat `json:"format"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	path, err := s.store.ExportResults(r.Context(), req.Format)
	if err != nil {
		var ve *store.ValidationError
		if errors.As(err, &ve) {
			s.respondError(w, http.StatusUnprocessableEntity, ve.Message)
			return
		}
		if req.Format.Validate() != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"path": path})
}

func (s *Server) handleWithinMeeting(w http.ResponseWriter, r *http.Request) {
	meetingID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid meeting id")
		return
	}
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	matches, err := s.store.SearchWithinMeeting(r.Context(), meetingID, req.Query)
	if err != nil {
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"matches": matches})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
