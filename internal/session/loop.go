package session

import (
	"context"
	"image"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/edorun/internal/capture"
	"github.com/ayusman/edorun/internal/detector"
	"github.com/ayusman/edorun/internal/hold"
	"github.com/ayusman/edorun/internal/pose"
)

// frameInterval returns the tick period for a source.
func frameInterval(src capture.Source) time.Duration {
	fps := capture.DefaultFPS
	if src != nil && src.FPS() > 0 {
		fps = src.FPS()
	}
	return time.Second / time.Duration(fps)
}

// run is the frame loop. Each tick reads one frame, runs (or reuses) pose
// inference, and feeds the first pose through the evaluator, the hold machine
// and the audio controller.
func (s *Session) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	interval := frameInterval(s.currentSource())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.step()

			if next := frameInterval(s.currentSource()); next != interval {
				interval = next
				ticker.Reset(interval)
			}
		}
	}
}

func (s *Session) currentSource() capture.Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// step processes a single tick.
func (s *Session) step() {
	now := s.config.Now()

	s.mu.RLock()
	src, gen, enabled := s.source, s.generation, s.enabled
	s.mu.RUnlock()

	if s.config.Audio != nil {
		s.config.Audio.Tick(now)
	}
	if !enabled || src == nil || !src.IsOpen() {
		return
	}

	frame, err := src.ReadFrame()
	if err != nil {
		s.mu.Lock()
		if s.generation == gen {
			s.cameraErr = msgCameraFailed
		}
		s.mu.Unlock()
		s.logger.Debug("frame read failed", "error", err)
		return
	}
	defer frame.Close()

	poses, err := s.detect(frame, src.Kind(), gen)
	if err != nil {
		s.mu.Lock()
		if s.generation == gen {
			s.modelErr = msgModelFailed
		}
		s.mu.Unlock()
		s.logger.Warn("pose detection failed", "error", err)
		return
	}

	s.mu.Lock()
	if s.generation != gen {
		// The source was switched while this frame was in flight
		s.mu.Unlock()
		return
	}
	s.modelErr = ""
	s.cameraErr = ""
	s.storeFrameLocked(frame)
	s.mu.Unlock()

	s.observe(poses, now, gen)
}

// detect returns the poses for frame, reusing the cached result for still
// images and for camera frames without motion.
func (s *Session) detect(frame *gocv.Mat, kind capture.Kind, gen uint64) ([]detector.Pose, error) {
	s.mu.RLock()
	cached, haveCached := s.cached, s.haveCached
	s.mu.RUnlock()

	switch kind {
	case capture.KindImage:
		if haveCached {
			return cached, nil
		}
	case capture.KindCamera:
		if s.config.Motion != nil {
			moved, _ := s.config.Motion.Detect(frame)
			if !moved && haveCached {
				return cached, nil
			}
		}
	}

	if s.config.Detector == nil {
		return nil, nil
	}

	poses, err := s.config.Detector.Detect(frame)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.generation == gen {
		s.cached = poses
		s.haveCached = true
	}
	s.mu.Unlock()

	return poses, nil
}

func (s *Session) storeFrameLocked(frame *gocv.Mat) {
	if s.hasFrame {
		s.frame.Close()
	}
	s.frame = frame.Clone()
	s.hasFrame = true
	s.frameSize = image.Pt(frame.Cols(), frame.Rows())
}

// Observe feeds one tick's detection result through the evaluator, the hold
// machine and audio. Only the first pose is used; with no pose the frame counts
// as a non-match. The last non-empty landmarks stay available for drawing.
func (s *Session) Observe(poses []detector.Pose, now time.Time) (hold.Event, error) {
	s.mu.RLock()
	gen := s.generation
	s.mu.RUnlock()
	return s.observe(poses, now, gen)
}

func (s *Session) observe(poses []detector.Pose, now time.Time, gen uint64) (hold.Event, error) {
	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		st := s.hold.State()
		return hold.Event{State: st, Previous: st.Status}, nil
	}

	eval := pose.DefaultEvaluation()
	if len(poses) > 0 && len(poses[0]) > 0 {
		s.landmarks = poses[0].Clone()
		eval = pose.Evaluate(s.landmarks, s.tuning.Thresholds())
	}

	ev, err := s.hold.Update(eval.Match, now)
	if err != nil {
		s.mu.Unlock()
		s.logger.Error("hold update rejected", "error", err)
		return ev, err
	}

	s.eval = eval
	s.updatedAt = now
	s.mu.Unlock()

	s.logger.Debug("pose evaluated", "evaluation", eval, "status", ev.Status, "progress", ev.Progress)
	if ev.Previous != ev.Status {
		s.logger.Info("pose status changed", "from", ev.Previous, "to", ev.Status)
	}

	s.applyAudio(ev.Status, now, gen)
	return ev, nil
}

// applyAudio hands status to the audio controller unless a reset has bumped
// the generation since gen was read. Resets cancel audio under audioMu, so a
// stale status can never restart playback after the cancel.
func (s *Session) applyAudio(status hold.Status, now time.Time, gen uint64) {
	if s.config.Audio == nil {
		return
	}
	s.audioMu.Lock()
	defer s.audioMu.Unlock()

	s.mu.RLock()
	current := s.generation == gen
	s.mu.RUnlock()

	if current {
		s.config.Audio.Apply(status, now)
	}
	s.config.Audio.Tick(now)
}

// cancelAudio stops playback after a reset (call after bumping the generation).
func (s *Session) cancelAudio() {
	if s.config.Audio == nil {
		return
	}
	s.audioMu.Lock()
	defer s.audioMu.Unlock()
	s.config.Audio.Cancel()
}
