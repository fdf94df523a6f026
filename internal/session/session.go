// Package session runs the frame loop that ties a frame source, the pose
// detector, the stance evaluator, the hold machine and audio together.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/ayusman/edorun/internal/audio"
	"github.com/ayusman/edorun/internal/capture"
	"github.com/ayusman/edorun/internal/detector"
	"github.com/ayusman/edorun/internal/hold"
	"github.com/ayusman/edorun/internal/pose"
)

// User-visible subsystem error messages.
const (
	msgCameraDenied   = "カメラの使用が許可されませんでした。デバイスの設定を確認してください。"
	msgCameraNotFound = "カメラが見つかりませんでした。"
	msgCameraFailed   = "カメラを開始できませんでした。デバイスの権限を確認してください。"
	msgImageFailed    = "画像を読み込めませんでした。"
	msgModelFailed    = "モデルの読み込みに失敗しました。環境を確認してください。"
)

// ErrUnknownImage is returned when switching to an image that is not configured.
var ErrUnknownImage = errors.New("unknown image")

// SourceSpec selects a frame source.
type SourceSpec struct {
	Kind   capture.Kind `json:"kind" validate:"required,oneof=camera image"`
	Camera int          `json:"camera" validate:"gte=0,lte=16"`
	Image  string       `json:"image,omitempty" validate:"required_if=Kind image,max=256"`
}

// SourceFactory creates the source for a spec.
type SourceFactory func(spec SourceSpec) (capture.Source, error)

// Config holds configuration options for a Session.
type Config struct {
	Detector detector.Detector
	Audio    *audio.Controller       // nil disables audio
	Motion   *capture.MotionDetector // nil runs inference on every camera frame
	Tuning   Tuning
	Images   map[string]string // image name to file path
	Sources  SourceFactory     // defaults to DefaultSources(Images)
	Logger   *slog.Logger
	Now      func() time.Time
}

// DefaultSources returns a factory for gocv cameras and the named still images.
func DefaultSources(images map[string]string) SourceFactory {
	return func(spec SourceSpec) (capture.Source, error) {
		switch spec.Kind {
		case capture.KindCamera:
			return capture.NewCamera(spec.Camera), nil
		case capture.KindImage:
			path, ok := images[spec.Image]
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownImage, spec.Image)
			}
			return capture.NewStillImage(path), nil
		default:
			return nil, fmt.Errorf("unknown source kind %q", spec.Kind)
		}
	}
}

// Session owns the hold state for one active input and drives it from frames.
type Session struct {
	id     string
	config Config
	logger *slog.Logger
	hold   *hold.Machine

	// audioMu orders Apply from a frame against Cancel from a reset
	audioMu sync.Mutex

	mu         sync.RWMutex
	source     capture.Source
	spec       SourceSpec
	enabled    bool
	generation uint64
	tuning     Tuning
	eval       pose.Evaluation
	landmarks  detector.Pose
	frame      gocv.Mat
	hasFrame   bool
	frameSize  image.Point
	updatedAt  time.Time
	cameraErr  string
	modelErr   string

	// inference cache: still images are inferred once per switch, cameras
	// reuse the last result while the motion gate reports no change
	cached     []detector.Pose
	haveCached bool

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a session. It is idle until Start is called.
func New(config Config) *Session {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Sources == nil {
		config.Sources = DefaultSources(config.Images)
	}
	if config.Tuning == (Tuning{}) {
		config.Tuning = DefaultTuning()
	}

	id := uuid.NewString()
	s := &Session{
		id:      id,
		config:  config,
		logger:  config.Logger.With("session", id),
		hold:    hold.NewMachine(config.Tuning.HoldDuration()),
		enabled: true,
		tuning:  config.Tuning,
		eval:    pose.DefaultEvaluation(),
		frame:   gocv.NewMat(),
	}
	s.applyTuningToAudio(config.Tuning)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Start opens the source for spec and begins the frame loop. It stops when ctx
// is done or Stop is called. Source failures are reported in the snapshot, not returned.
func (s *Session) Start(ctx context.Context, spec SourceSpec) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := s.SwitchSource(spec); err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.mu.Lock()
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	go s.run(loopCtx, done)

	s.logger.Info("session started", "source", spec.Kind)
	return nil
}

// Stop halts the frame loop, resets the hold state, stops audio and closes the
// source. No core updates happen after Stop returns.
func (s *Session) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	s.mu.Lock()
	src := s.source
	s.source = nil
	s.resetLocked()
	s.mu.Unlock()

	s.cancelAudio()
	if src != nil {
		if err := src.Close(); err != nil {
			s.logger.Warn("error closing source", "error", err)
		}
	}
	if s.config.Motion != nil {
		s.config.Motion.Reset()
	}

	s.logger.Info("session stopped")
}

// Close stops the session and releases the detector, audio and frame buffer.
func (s *Session) Close() error {
	s.Stop()

	var errs []error
	if s.config.Detector != nil {
		if err := s.config.Detector.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close detector: %w", err))
		}
	}
	if s.config.Audio != nil {
		if err := s.config.Audio.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close audio: %w", err))
		}
	}
	if s.config.Motion != nil {
		s.config.Motion.Close()
	}

	s.mu.Lock()
	s.frame.Close()
	s.hasFrame = false
	s.mu.Unlock()

	return errors.Join(errs...)
}

// SwitchSource replaces the frame source. The hold state, evaluation, sticky
// landmarks and audio are reset regardless of the current status.
func (s *Session) SwitchSource(spec SourceSpec) error {
	src, err := s.config.Sources(spec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	old := s.source
	s.source = src
	s.spec = spec
	s.resetLocked()
	s.mu.Unlock()

	s.cancelAudio()
	if s.config.Motion != nil {
		s.config.Motion.Reset()
	}
	if old != nil {
		if err := old.Close(); err != nil {
			s.logger.Warn("error closing source", "error", err)
		}
	}

	openErr := src.Open()

	s.mu.Lock()
	s.cameraErr = sourceErrorMessage(openErr)
	s.mu.Unlock()

	if openErr != nil {
		s.logger.Warn("source unavailable", "kind", spec.Kind, "error", openErr)
	} else {
		s.logger.Info("source switched", "kind", spec.Kind, "camera", spec.Camera, "image", spec.Image)
	}
	return nil
}

// resetLocked restores every piece of per-input state to its default (must hold mu).
func (s *Session) resetLocked() {
	s.generation++
	s.hold.Reset()
	s.eval = pose.DefaultEvaluation()
	s.landmarks = nil
	s.cached = nil
	s.haveCached = false
	s.modelErr = ""
	if s.hasFrame {
		s.frame.Close()
		s.frame = gocv.NewMat()
		s.hasFrame = false
	}
	s.frameSize = image.Point{}
}

// SetEnabled turns detection on or off. Disabling resets the hold state and stops audio.
func (s *Session) SetEnabled(enabled bool) {
	s.mu.Lock()
	changed := s.enabled != enabled
	s.enabled = enabled
	if changed && !enabled {
		s.generation++
		s.hold.Reset()
		s.eval = pose.DefaultEvaluation()
	}
	s.mu.Unlock()

	if changed && !enabled {
		s.cancelAudio()
	}
	if changed {
		s.logger.Info("detection toggled", "enabled", enabled)
	}
}

// IsEnabled reports whether detection is on.
func (s *Session) IsEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled
}

// Tuning returns the current policy.
func (s *Session) Tuning() Tuning {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tuning
}

// SetTuning replaces the policy. Thresholds apply from the next frame; a new
// hold duration applies to the current hold as well.
func (s *Session) SetTuning(t Tuning) {
	s.mu.Lock()
	s.tuning = t
	s.mu.Unlock()

	s.hold.SetDuration(t.HoldDuration())
	s.applyTuningToAudio(t)
	s.logger.Info("tuning updated",
		"min_visibility", t.MinVisibility,
		"knee_angle_max", t.KneeAngleMax,
		"rotation_threshold", t.RotationThreshold,
		"hold_ms", t.HoldMs)
}

func (s *Session) applyTuningToAudio(t Tuning) {
	if s.config.Audio == nil {
		return
	}
	s.config.Audio.SetVolume(t.Volume)
	s.config.Audio.SetFadeDuration(t.FadeDuration())
}

// Frame returns a copy of the most recent frame and the landmarks to draw on it.
// The caller must close the returned Mat.
func (s *Session) Frame() (gocv.Mat, detector.Pose, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.hasFrame {
		return gocv.NewMat(), nil, false
	}
	return s.frame.Clone(), s.landmarks.Clone(), true
}

// sourceErrorMessage maps a source open failure to its user-visible message.
func sourceErrorMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, capture.ErrImageNotLoaded):
		return msgImageFailed
	case errors.Is(err, capture.ErrCameraNotFound):
		return msgCameraNotFound
	case errors.Is(err, capture.ErrPermissionDenied):
		return msgCameraDenied
	default:
		return msgCameraFailed
	}
}
