package api

import (
	"net/http"

	"github.com/ayusman/edorun/internal/detector"
	"github.com/ayusman/edorun/internal/pose"
)

// EvaluateHandler runs the stance evaluator on posted landmarks.
// It does not touch the session hold state.
type EvaluateHandler struct {
	session Session
}

// NewEvaluateHandler creates a new EvaluateHandler. The session supplies the thresholds.
func NewEvaluateHandler(s Session) *EvaluateHandler {
	return &EvaluateHandler{session: s}
}

type evaluateRequest struct {
	Landmarks detector.Pose `json:"landmarks" validate:"max=64"`
}

// ServeHTTP handles POST /api/evaluate.
func (h *EvaluateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req evaluateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	th := pose.DefaultThresholds()
	if h.session != nil {
		th = h.session.Tuning().Thresholds()
	}
	writeJSON(w, http.StatusOK, pose.Evaluate(req.Landmarks, th))
}
