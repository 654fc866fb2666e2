package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/rfpanel-core/internal/history"
)

// handleListExecutions returns recent button presses, newest first.
//
// Query parameters: page, label, status, limit (default 50, max 200), offset.
func (s *Server) handleListExecutions(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeUnavailable(w, "execution history not available")
		return
	}

	q := r.URL.Query()
	filter := history.Filter{
		Label:  q.Get("label"),
		Status: q.Get("status"),
	}

	var ok bool
	if filter.Page, ok = queryInt(w, q.Get("page"), "page"); !ok {
		return
	}
	if filter.Limit, ok = queryInt(w, q.Get("limit"), "limit"); !ok {
		return
	}
	if filter.Offset, ok = queryInt(w, q.Get("offset"), "offset"); !ok {
		return
	}

	result, err := s.history.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list executions", "error", err)
		writeInternalError(w, "failed to list executions")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleGetExecution returns one execution by ID.
func (s *Server) handleGetExecution(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeUnavailable(w, "execution history not available")
		return
	}

	id := chi.URLParam(r, "id")
	exec, err := s.history.Get(r.Context(), id)
	if errors.Is(err, history.ErrExecutionNotFound) {
		writeNotFound(w, "execution not found: "+id)
		return
	}
	if err != nil {
		s.logger.Error("failed to get execution", "id", id, "error", err)
		writeInternalError(w, "failed to get execution")
		return
	}
	writeJSON(w, http.StatusOK, exec)
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(w http.ResponseWriter, raw, name string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeBadRequest(w, name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}
