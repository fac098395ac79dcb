package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/igusev/qlaunch/internal/backup"
	"github.com/igusev/qlaunch/internal/indexer"
	"github.com/igusev/qlaunch/internal/launcher"
	"github.com/igusev/qlaunch/internal/search"
	"github.com/igusev/qlaunch/internal/types"
)

const maxBodyBytes = 1 << 20

type searchResponse struct {
	Query   string       `json:"query"`
	Results []ResultView `json:"results"`
}

type usageRequest struct {
	Namespace      string `json:"namespace"`
	ID             string `json:"id"`
	Query          string `json:"query"`
	WasFirstResult bool   `json:"wasFirstResult"`
}

type bookmarkRequest struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

type favoriteRequest struct {
	Key string `json:"key"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"index":  s.backend.Status(),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	limit, ok := s.limitParam(w, r)
	if !ok {
		return
	}
	q := r.URL.Query().Get("q")
	results := s.backend.Search(r.Context(), q, limit)
	writeJSON(w, http.StatusOK, searchResponse{Query: q, Results: Views(results)})
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit, ok := s.limitParam(w, r)
	if !ok {
		return
	}
	var excluded []string
	for _, v := range r.URL.Query()["exclude"] {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				excluded = append(excluded, id)
			}
		}
	}
	results := s.backend.RecentItems(r.Context(), limit, excluded)
	writeJSON(w, http.StatusOK, searchResponse{Results: Views(results)})
}

// limitParam parses ?limit=, falling back to the configured default. 0 means unlimited.
func (s *Server) limitParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return s.cfg.DefaultLimit, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return 0, false
	}
	return n, true
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	var req usageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ns, err := types.ParseNamespace(req.Namespace)
	if err != nil && req.Namespace == string(search.ActionNamespace) {
		ns, err = search.ActionNamespace, nil
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	s.backend.ReportUsage(ns, req.ID, req.Query, req.WasFirstResult)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "namespace")
	if name == "all" {
		if err := s.backend.IndexAll(r.Context()); err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.backend.Status())
		return
	}

	ns, err := types.ParseNamespace(name)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err := s.backend.IndexNamespace(r.Context(), ns); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.backend.Status())
}

func (s *Server) handleResetIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.ResetIndex(r.Context()); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.backend.Status())
}

func (s *Server) handleResetAll(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.ResetAppData(r.Context()); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.backend.Status())
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	err := s.backend.RemoveFromIndex(r.Context(), chi.URLParam(r, "namespace"), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBookmark(w http.ResponseWriter, r *http.Request) {
	var req bookmarkRequest
	if !decodeBody(w, r, &req) {
		return
	}
	doc, err := s.backend.IndexWebURL(r.Context(), req.URL, req.Title)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"id":    doc.ID,
		"title": doc.Name,
		"url":   doc.IntentURI,
	})
}

func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request) {
	results, err := s.backend.Favorites(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: Views(results)})
}

func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	var req favoriteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.backend.AddFavorite(r.Context(), req.Key); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	removed, err := s.backend.RemoveFavorite(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		s.fail(w, err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "not a favorite")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="qlaunch-backup.json"`)
	if _, err := s.backend.ExportBackup(r.Context(), w); err != nil {
		s.log.Warn("backup export failed", zap.Error(err))
	}
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	report, err := s.backend.ImportBackup(r.Context(), http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.fail(w, err)
		return
	}

	sectionErrors := make(map[string]string, len(report.Errors))
	for section, err := range report.Errors {
		sectionErrors[section] = err.Error()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"version":         report.Version,
		"snippets":        report.Snippets,
		"searchShortcuts": report.SearchShortcuts,
		"favorites":       report.Favorites,
		"skipped":         report.Skipped,
		"errors":          sectionErrors,
	})
}

// fail maps launcher errors to status codes
func (s *Server) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, launcher.ErrUnknownNamespace), errors.Is(err, indexer.ErrNoSource):
		status = http.StatusNotFound
	case errors.Is(err, launcher.ErrWebIndexingDisabled):
		status = http.StatusForbidden
	case errors.Is(err, launcher.ErrInvalidFavorite), errors.Is(err, indexer.ErrInvalidURL),
		errors.Is(err, backup.ErrMalformedBackup):
		status = http.StatusBadRequest
	case errors.Is(err, backup.ErrUnsupportedVersion):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		s.log.Warn("request failed", zap.Error(err))
	}
	writeError(w, status, err.Error())
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
