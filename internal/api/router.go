package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// defaultWSPath is used when websocket.path is empty.
const defaultWSPath = "/ws"

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(withRequestID, s.logRequests, s.recoverPanics, s.cors)
	r.Use(middleware.RequestSize(maxRequestBodySize))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Catalog (read-only)
		r.Get("/pages", s.handleListPages)
		r.Get("/pages/{page}/buttons", s.handleListPageButtons)
		r.Get("/tags", s.handleListTags)
		r.Get("/tags/{tag}/buttons", s.handleListTagButtons)

		// Panel mode
		r.Get("/mode", s.handleGetMode)
		r.Put("/mode", s.handleSetMode)
		r.Post("/mode/toggle", s.handleToggleMode)

		// Buttons
		r.Route("/buttons/{page}/{column}/{slot}", func(r chi.Router) {
			r.Get("/", s.handleGetButton)
			r.Post("/press", s.handlePressButton)
			r.Post("/resolve", s.handleResolveButton)
		})

		// Dispatch history
		r.Get("/executions", s.handleListExecutions)
		r.Get("/executions/{id}", s.handleGetExecution)

		r.Get(s.wsPath(), s.handleWebSocket)
	})

	return r
}

func (s *Server) wsPath() string {
	if s.wsCfg.Path == "" {
		return defaultWSPath
	}
	return s.wsCfg.Path
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	mqttStatus := "disabled"
	if s.mqtt != nil {
		mqttStatus = "disconnected"
		if s.mqtt.IsConnected() {
			mqttStatus = "connected"
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"mode":    s.panel.Mode(),
		"buttons": s.catalog.Len(),
		"mqtt":    mqttStatus,
	})
}
