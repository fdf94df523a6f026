package session

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ayusman/edorun/internal/audio"
	"github.com/ayusman/edorun/internal/hold"
	"github.com/ayusman/edorun/internal/pose"
)

// Tuning groups the policy knobs that can be changed at runtime.
type Tuning struct {
	MinVisibility     float64 `json:"min_visibility" validate:"gte=0,lte=1"`
	KneeAngleMax      float64 `json:"knee_angle_max" validate:"gt=0,lte=180"`
	RotationThreshold float64 `json:"rotation_threshold" validate:"gte=0,lte=1"`
	HoldMs            int64   `json:"hold_ms" validate:"gte=100,lte=10000"`
	Volume            float64 `json:"volume" validate:"gte=0,lte=1"`
	FadeMs            int64   `json:"fade_ms" validate:"gte=1,lte=5000"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// DefaultTuning returns the default policy.
func DefaultTuning() Tuning {
	th := pose.DefaultThresholds()
	return Tuning{
		MinVisibility:     th.MinVisibility,
		KneeAngleMax:      th.KneeAngleMax,
		RotationThreshold: th.RotationThreshold,
		HoldMs:            hold.DefaultDuration.Milliseconds(),
		Volume:            audio.DefaultVolume,
		FadeMs:            audio.DefaultFadeDuration.Milliseconds(),
	}
}

// Thresholds returns the evaluator thresholds.
func (t Tuning) Thresholds() pose.Thresholds {
	return pose.Thresholds{
		MinVisibility:     t.MinVisibility,
		KneeAngleMax:      t.KneeAngleMax,
		RotationThreshold: t.RotationThreshold,
	}
}

// HoldDuration returns how long a match must be sustained.
func (t Tuning) HoldDuration() time.Duration {
	return time.Duration(t.HoldMs) * time.Millisecond
}

// FadeDuration returns the audio fade-out length.
func (t Tuning) FadeDuration() time.Duration {
	return time.Duration(t.FadeMs) * time.Millisecond
}

// Validate reports the first knob outside its allowed range.
func (t Tuning) Validate() error {
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("invalid tuning: %w", err)
	}
	return nil
}
