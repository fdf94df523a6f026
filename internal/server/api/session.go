package api

import (
	"errors"
	"net/http"

	"github.com/ayusman/edorun/internal/session"
)

// SessionHandler serves the session snapshot and source and detection controls.
type SessionHandler struct {
	session Session
}

// NewSessionHandler creates a new SessionHandler for s.
func NewSessionHandler(s Session) *SessionHandler {
	return &SessionHandler{session: s}
}

type enabledRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// Snapshot handles GET /api/snapshot.
func (h *SessionHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// Source handles GET and POST /api/source.
func (h *SessionHandler) Source(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.session.Snapshot().Source)
	case http.MethodPost:
		var req session.SourceSpec
		if !decodeAndValidate(w, r, &req) {
			return
		}
		if err := h.session.SwitchSource(req); err != nil {
			if errors.Is(err, session.ErrUnknownImage) {
				writeError(w, http.StatusNotFound, "Image not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "Failed to switch source")
			return
		}
		// Open failures are reported through the snapshot error fields
		writeJSON(w, http.StatusOK, h.session.Snapshot())
	default:
		methodNotAllowed(w)
	}
}

// Enabled handles GET and POST /api/enabled.
func (h *SessionHandler) Enabled(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]bool{"enabled": h.session.IsEnabled()})
	case http.MethodPost:
		var req enabledRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		h.session.SetEnabled(*req.Enabled)
		writeJSON(w, http.StatusOK, map[string]bool{"enabled": h.session.IsEnabled()})
	default:
		methodNotAllowed(w)
	}
}
