package session

import (
	"time"

	"github.com/ayusman/edorun/internal/detector"
	"github.com/ayusman/edorun/internal/hold"
	"github.com/ayusman/edorun/internal/pose"
)

// Labels are the display labels for the limb rotations.
type Labels struct {
	ArmLeft   string `json:"armLeft"`
	ArmRight  string `json:"armRight"`
	FootLeft  string `json:"footLeft"`
	FootRight string `json:"footRight"`
}

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	ID          string          `json:"id"`
	Source      SourceSpec      `json:"source"`
	Enabled     bool            `json:"enabled"`
	Status      hold.Status     `json:"status"`
	Progress    float64         `json:"holdProgress"`
	Evaluation  pose.Evaluation `json:"evaluation"`
	Labels      Labels          `json:"labels"`
	Landmarks   detector.Pose   `json:"landmarks"`
	FrameWidth  int             `json:"frameWidth"`
	FrameHeight int             `json:"frameHeight"`
	CameraError string          `json:"cameraError,omitempty"`
	ModelError  string          `json:"modelError,omitempty"`
	AudioError  string          `json:"audioError,omitempty"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.hold.State()
	snap := Snapshot{
		ID:          s.id,
		Source:      s.spec,
		Enabled:     s.enabled,
		Status:      st.Status,
		Progress:    st.Progress,
		Evaluation:  s.eval,
		Landmarks:   s.landmarks.Clone(),
		FrameWidth:  s.frameSize.X,
		FrameHeight: s.frameSize.Y,
		CameraError: s.cameraErr,
		ModelError:  s.modelErr,
		UpdatedAt:   s.updatedAt,
		Labels: Labels{
			ArmLeft:   s.eval.Arms.Left.Label(),
			ArmRight:  s.eval.Arms.Right.Label(),
			FootLeft:  s.eval.Feet.Left.Label(),
			FootRight: s.eval.Feet.Right.Label(),
		},
	}
	if s.config.Audio != nil {
		snap.AudioError = s.config.Audio.Error()
	}
	return snap
}
