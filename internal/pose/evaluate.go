// Package pose evaluates a frame's body landmarks against the Edo-style running stance.
//
// Rotation is measured horizontally: each limb end's X offset from its anchor
// (wrist from shoulder, foot index from hip) is signed by the facing direction
// taken from shoulder ordering, so a positive displacement always means forward.
// Depth (Z) is not used.
package pose

import (
	"log/slog"

	"github.com/ayusman/edorun/internal/detector"
	"github.com/ayusman/edorun/internal/geometry"
)

// Default policy thresholds.
const (
	DefaultMinVisibility     = 0.5
	DefaultKneeAngleMax      = 165.0
	DefaultRotationThreshold = 0.05
)

// Thresholds holds the policy constants the evaluator classifies against.
type Thresholds struct {
	MinVisibility     float64 `json:"min_visibility"`     // landmarks below this confidence are absent
	KneeAngleMax      float64 `json:"knee_angle_max"`     // knee angles strictly below this count as bent
	RotationThreshold float64 `json:"rotation_threshold"` // normalized X displacement band counted as neutral
}

// DefaultThresholds returns the default evaluation thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinVisibility:     DefaultMinVisibility,
		KneeAngleMax:      DefaultKneeAngleMax,
		RotationThreshold: DefaultRotationThreshold,
	}
}

// Checks are the three conditions that make up a match.
type Checks struct {
	ArmsOpposed bool `json:"armsOpposed"`
	FeetOpposed bool `json:"feetOpposed"`
	KneesBent   bool `json:"kneesBent"`
}

// Angles holds the knee angles in degrees; nil means not computable this frame.
type Angles struct {
	LeftKnee  *float64 `json:"leftKnee"`
	RightKnee *float64 `json:"rightKnee"`
}

// SideDetail is the per-side rotation classification for a limb pair, with the
// facing-signed displacement each side was classified from.
type SideDetail struct {
	Left              geometry.Rotation `json:"left"`
	Right             geometry.Rotation `json:"right"`
	LeftDisplacement  *float64          `json:"leftDisplacement"`
	RightDisplacement *float64          `json:"rightDisplacement"`
}

// Evaluation is the immutable per-frame judgement of a landmark sequence.
type Evaluation struct {
	Match  bool       `json:"match"`
	Checks Checks     `json:"checks"`
	Angles Angles     `json:"angles"`
	Arms   SideDetail `json:"arms"`
	Feet   SideDetail `json:"feet"`
}

// DefaultEvaluation returns the degraded evaluation used when data is insufficient.
func DefaultEvaluation() Evaluation {
	return Evaluation{
		Arms: unknownSides(),
		Feet: unknownSides(),
	}
}

func unknownSides() SideDetail {
	return SideDetail{
		Left:  geometry.RotationUnknown,
		Right: geometry.RotationUnknown,
	}
}

// mandatory lists the landmarks that must be present for any classification.
var mandatory = [...]int{
	detector.LeftShoulder, detector.RightShoulder,
	detector.LeftElbow, detector.RightElbow,
	detector.LeftWrist, detector.RightWrist,
	detector.LeftHip, detector.RightHip,
	detector.LeftKnee, detector.RightKnee,
	detector.LeftAnkle, detector.RightAnkle,
}

// Evaluate judges a landmark sequence against the running stance.
// It has no side effects and is safe for concurrent use.
func Evaluate(landmarks detector.Pose, th Thresholds) Evaluation {
	var pts [detector.NumLandmarks]detector.Landmark
	for _, i := range mandatory {
		l, ok := landmarks.At(i, th.MinVisibility)
		if !ok {
			return DefaultEvaluation()
		}
		pts[i] = l
	}

	leftFoot, hasLeftFoot := landmarks.At(detector.LeftFootIndex, th.MinVisibility)
	rightFoot, hasRightFoot := landmarks.At(detector.RightFootIndex, th.MinVisibility)

	facing := facingSign(pts[detector.LeftShoulder], pts[detector.RightShoulder])

	eval := Evaluation{Feet: unknownSides()}

	// Arms: wrist relative to shoulder
	leftArm := facing * (pts[detector.LeftWrist].X - pts[detector.LeftShoulder].X)
	rightArm := facing * (pts[detector.RightWrist].X - pts[detector.RightShoulder].X)
	eval.Arms = sides(leftArm, rightArm, th.RotationThreshold)
	eval.Checks.ArmsOpposed = geometry.Opposed(eval.Arms.Left, eval.Arms.Right)

	// Knees: hip-knee-ankle
	leftKnee := geometry.Angle(pts[detector.LeftHip].Vec(), pts[detector.LeftKnee].Vec(), pts[detector.LeftAnkle].Vec())
	rightKnee := geometry.Angle(pts[detector.RightHip].Vec(), pts[detector.RightKnee].Vec(), pts[detector.RightAnkle].Vec())
	eval.Angles = Angles{LeftKnee: &leftKnee, RightKnee: &rightKnee}
	eval.Checks.KneesBent = leftKnee < th.KneeAngleMax && rightKnee < th.KneeAngleMax

	// Feet: foot index relative to hip, only with both feet visible
	if hasLeftFoot && hasRightFoot {
		leftLeg := facing * (leftFoot.X - pts[detector.LeftHip].X)
		rightLeg := facing * (rightFoot.X - pts[detector.RightHip].X)
		eval.Feet = sides(leftLeg, rightLeg, th.RotationThreshold)
		eval.Checks.FeetOpposed = geometry.Opposed(eval.Feet.Left, eval.Feet.Right)
	}

	eval.Match = eval.Checks.ArmsOpposed && eval.Checks.FeetOpposed && eval.Checks.KneesBent
	return eval
}

// facingSign returns +1 when the body faces image-right (the left shoulder has the
// larger X) and -1 otherwise.
func facingSign(leftShoulder, rightShoulder detector.Landmark) float64 {
	if leftShoulder.X > rightShoulder.X {
		return 1
	}
	return -1
}

func sides(left, right, threshold float64) SideDetail {
	l, r := geometry.ClassifyPair(left, right, threshold)
	return SideDetail{
		Left:              l,
		Right:             r,
		LeftDisplacement:  &left,
		RightDisplacement: &right,
	}
}

// LogValue implements slog.LogValuer so evaluations can be logged at the call site.
func (e Evaluation) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Bool("match", e.Match),
		slog.Bool("arms_opposed", e.Checks.ArmsOpposed),
		slog.Bool("feet_opposed", e.Checks.FeetOpposed),
		slog.Bool("knees_bent", e.Checks.KneesBent),
		slog.String("arms", string(e.Arms.Left)+"/"+string(e.Arms.Right)),
		slog.String("feet", string(e.Feet.Left)+"/"+string(e.Feet.Right)),
	}
	if e.Angles.LeftKnee != nil && e.Angles.RightKnee != nil {
		attrs = append(attrs,
			slog.Float64("left_knee", *e.Angles.LeftKnee),
			slog.Float64("right_knee", *e.Angles.RightKnee))
	}
	return slog.GroupValue(attrs...)
}
