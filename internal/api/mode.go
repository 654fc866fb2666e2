package api

import (
	"encoding/json"
	"net/http"

	"github.com/nerrad567/rfpanel-core/internal/catalog"
)

// handleGetMode returns the panel's power mode.
func (s *Server) handleGetMode(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"mode": s.panel.Mode()})
}

// handleToggleMode flips the power mode.
func (s *Server) handleToggleMode(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"mode": s.panel.Toggle()})
}

// handleSetMode sets the power mode from {"mode": "ON"|"OFF"}.
func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	mode, err := catalog.ParsePowerState(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "mode must be ON or OFF")
		return
	}
	if err := s.panel.SetMode(mode); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"mode": mode})
}
