package api

import (
	"log/slog"
	"net/http"

	"github.com/ayusman/edorun/internal/session"
	"github.com/ayusman/edorun/internal/store"
)

// SettingsHandler reads and updates the session tuning.
type SettingsHandler struct {
	session Session
	store   *store.Store // nil keeps changes in memory only
	logger  *slog.Logger
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(s Session, st *store.Store, logger *slog.Logger) *SettingsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsHandler{session: s, store: st, logger: logger}
}

// settingsRequest is a partial update; omitted fields keep their value.
type settingsRequest struct {
	MinVisibility     *float64 `json:"min_visibility" validate:"omitempty,gte=0,lte=1"`
	KneeAngleMax      *float64 `json:"knee_angle_max" validate:"omitempty,gt=0,lte=180"`
	RotationThreshold *float64 `json:"rotation_threshold" validate:"omitempty,gte=0,lte=1"`
	HoldMs            *int64   `json:"hold_ms" validate:"omitempty,gte=100,lte=10000"`
	Volume            *float64 `json:"volume" validate:"omitempty,gte=0,lte=1"`
	FadeMs            *int64   `json:"fade_ms" validate:"omitempty,gte=1,lte=5000"`
}

func (req settingsRequest) apply(t session.Tuning) session.Tuning {
	if req.MinVisibility != nil {
		t.MinVisibility = *req.MinVisibility
	}
	if req.KneeAngleMax != nil {
		t.KneeAngleMax = *req.KneeAngleMax
	}
	if req.RotationThreshold != nil {
		t.RotationThreshold = *req.RotationThreshold
	}
	if req.HoldMs != nil {
		t.HoldMs = *req.HoldMs
	}
	if req.Volume != nil {
		t.Volume = *req.Volume
	}
	if req.FadeMs != nil {
		t.FadeMs = *req.FadeMs
	}
	return t
}

// ServeHTTP handles GET and PUT /api/settings.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.session.Tuning())
	case http.MethodPut:
		h.update(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	t := req.apply(h.session.Tuning())
	if err := validate.Struct(t); err != nil {
		writeValidationErrors(w, err)
		return
	}

	if h.store != nil {
		if err := h.store.Settings().SetJSON(store.KeyTuning, t); err != nil {
			h.logger.Error("failed to persist settings", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to save settings")
			return
		}
	}

	h.session.SetTuning(t)
	h.logger.Info("settings updated", "hold_ms", t.HoldMs, "volume", t.Volume)
	writeJSON(w, http.StatusOK, t)
}
