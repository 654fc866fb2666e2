package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/rfpanel-core/internal/catalog"
	"github.com/nerrad567/rfpanel-core/internal/panel"
	"github.com/nerrad567/rfpanel-core/internal/power"
)

// SourceAPI is the execution source recorded for presses with an explicit state.
const SourceAPI = "api"

// pressRequest is the optional body of a press or resolve request.
type pressRequest struct {
	State string `json:"state"`
}

// handleListPages returns every page number in ascending order.
func (s *Server) handleListPages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"pages": s.catalog.ListPages(),
	})
}

// handleListPageButtons returns the buttons on one page.
// With ?column=L or R only that column is returned; otherwise L then R.
// An unknown page yields an empty list.
func (s *Server) handleListPageButtons(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil || page < 1 {
		writeBadRequest(w, "page must be a positive integer")
		return
	}

	columns := catalog.AllColumns()
	if c := r.URL.Query().Get("column"); c != "" {
		column, err := catalog.ParseColumn(c)
		if err != nil {
			writeBadRequest(w, err.Error())
			return
		}
		columns = []catalog.Column{column}
	}

	buttons := []catalog.Button{}
	for _, column := range columns {
		buttons = append(buttons, s.catalog.ListButtons(page, column)...)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"page":    page,
		"buttons": buttons,
		"count":   len(buttons),
	})
}

// handleListTags returns every distinct tag in the catalog.
func (s *Server) handleListTags(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"tags": s.catalog.Tags(),
	})
}

// handleListTagButtons returns the buttons carrying a tag, in catalog order.
// ?exclude=Label drops buttons with that label, as macro expansion does.
func (s *Server) handleListTagButtons(w http.ResponseWriter, r *http.Request) {
	tag, err := url.PathUnescape(chi.URLParam(r, "tag"))
	if err != nil {
		writeBadRequest(w, "invalid tag")
		return
	}
	exclude := r.URL.Query().Get("exclude")

	buttons := s.catalog.FindButtonsByTag(tag, exclude)
	if buttons == nil {
		buttons = []catalog.Button{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tag":     tag,
		"buttons": buttons,
		"count":   len(buttons),
	})
}

// handleGetButton returns a single button.
func (s *Server) handleGetButton(w http.ResponseWriter, r *http.Request) {
	ref, ok := parseButtonRef(w, r)
	if !ok {
		return
	}
	button, err := s.catalog.Button(ref)
	if err != nil {
		writeNotFound(w, "button not found: "+ref.String())
		return
	}
	writeJSON(w, http.StatusOK, button)
}

// handlePressButton presses a button.
//
// Without a state the press goes through the panel session: it uses the
// current mode and is subject to debounce. With an explicit state it goes
// straight to the dispatcher.
func (s *Server) handlePressButton(w http.ResponseWriter, r *http.Request) {
	ref, ok := parseButtonRef(w, r)
	if !ok {
		return
	}
	req, ok := decodePressRequest(w, r)
	if !ok {
		return
	}

	var (
		exec *power.Execution
		err  error
	)
	if req.State == "" {
		exec, err = s.panel.Tap(r.Context(), ref)
	} else {
		exec, err = s.dispatcher.Press(r.Context(), ref, catalog.PowerState(req.State), SourceAPI)
	}
	if err != nil {
		s.writePressError(w, ref, err)
		return
	}

	writeJSON(w, http.StatusOK, exec)
}

// handleResolveButton returns the commands a press would send without
// sending them. The state defaults to the panel's current mode.
func (s *Server) handleResolveButton(w http.ResponseWriter, r *http.Request) {
	ref, ok := parseButtonRef(w, r)
	if !ok {
		return
	}
	req, ok := decodePressRequest(w, r)
	if !ok {
		return
	}

	state := s.panel.Mode()
	if req.State != "" {
		state = catalog.PowerState(req.State)
	}

	commands, err := s.dispatcher.Resolver().ResolveRef(ref, state)
	if err != nil {
		s.writePressError(w, ref, err)
		return
	}
	if commands == nil {
		commands = []power.Command{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"button":   ref,
		"state":    state,
		"commands": commands,
		"count":    len(commands),
	})
}

// writePressError maps dispatcher and panel errors to HTTP responses.
func (s *Server) writePressError(w http.ResponseWriter, ref catalog.ButtonRef, err error) {
	switch {
	case errors.Is(err, catalog.ErrButtonNotFound):
		writeNotFound(w, "button not found: "+ref.String())
	case errors.Is(err, power.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "state must be ON or OFF")
	case errors.Is(err, panel.ErrBounced):
		writeConflict(w, "tap ignored: repeated within bounce time")
	case errors.Is(err, power.ErrGatewayUnavailable):
		writeUnavailable(w, "transmit gateway not available")
	default:
		s.logger.Error("press failed", "button", ref.String(), "error", err)
		writeInternalError(w, "press failed")
	}
}

// parseButtonRef reads {page}/{column}/{slot} from the URL.
// It writes a 400 response and returns false on a malformed reference.
func parseButtonRef(w http.ResponseWriter, r *http.Request) (catalog.ButtonRef, bool) {
	page, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil || page < 1 {
		writeBadRequest(w, "page must be a positive integer")
		return catalog.ButtonRef{}, false
	}
	column, err := catalog.ParseColumn(chi.URLParam(r, "column"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return catalog.ButtonRef{}, false
	}
	slot, err := strconv.Atoi(chi.URLParam(r, "slot"))
	if err != nil || slot < 1 {
		writeBadRequest(w, "slot must be a positive integer")
		return catalog.ButtonRef{}, false
	}
	return catalog.ButtonRef{Page: page, Column: column, Slot: slot}, true
}

// decodePressRequest reads the optional JSON body. An empty body is allowed.
func decodePressRequest(w http.ResponseWriter, r *http.Request) (pressRequest, bool) {
	var req pressRequest
	if r.Body == nil {
		return req, true
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, fmt.Sprintf("invalid JSON body: %v", err))
		return req, false
	}
	return req, true
}
