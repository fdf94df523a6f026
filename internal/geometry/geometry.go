// Package geometry provides the angle and directional comparison helpers used by pose evaluation.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Rotation is a per-side rotation classification of a limb.
type Rotation string

const (
	// RotationInternal means the limb end sits behind its anchor along the forward axis.
	RotationInternal Rotation = "internal"
	// RotationExternal means the limb end sits ahead of its anchor along the forward axis.
	RotationExternal Rotation = "external"
	// RotationNeutral means the displacement is within the threshold band.
	RotationNeutral Rotation = "neutral"
	// RotationUnknown means there was not enough data to classify.
	RotationUnknown Rotation = "unknown"
)

// Label returns the display label for the rotation.
func (r Rotation) Label() string {
	switch r {
	case RotationInternal:
		return "内旋"
	case RotationExternal:
		return "外旋"
	case RotationNeutral:
		return "中立"
	default:
		return "不明"
	}
}

// Angle returns the interior angle at vertex b between rays b->a and b->c, in degrees.
// Only the image plane (X, Y) is considered. If either ray has zero length the limb is
// treated as fully extended and 180 is returned.
func Angle(a, b, c r3.Vec) float64 {
	ab := flatten(r3.Sub(a, b))
	cb := flatten(r3.Sub(c, b))

	abMag := r3.Norm(ab)
	cbMag := r3.Norm(cb)
	if abMag == 0 || cbMag == 0 {
		return 180
	}

	cos := r3.Dot(ab, cb) / (abMag * cbMag)
	cos = math.Min(math.Max(cos, -1), 1)
	return math.Acos(cos) * 180 / math.Pi
}

func flatten(v r3.Vec) r3.Vec {
	v.Z = 0
	return v
}

// Classify maps a signed displacement to a rotation using a symmetric threshold band.
// Displacements strictly greater than threshold are external, strictly less than
// -threshold are internal, everything else is neutral.
func Classify(diff, threshold float64) Rotation {
	switch {
	case diff > threshold:
		return RotationExternal
	case diff < -threshold:
		return RotationInternal
	default:
		return RotationNeutral
	}
}

// Compare returns the signed differential a-b and its classification.
// Swapping a and b negates the differential and swaps external and internal.
func Compare(a, b, threshold float64) (float64, Rotation) {
	diff := a - b
	return diff, Classify(diff, threshold)
}

// ClassifyPair classifies two sides' forward displacements and makes them complementary:
// when exactly one side is external, the other side is reported as internal.
// A side behind the band keeps its internal label whatever the other side is.
func ClassifyPair(left, right, threshold float64) (Rotation, Rotation) {
	l := Classify(left, threshold)
	r := Classify(right, threshold)

	switch {
	case l == RotationExternal && r != RotationExternal:
		r = RotationInternal
	case r == RotationExternal && l != RotationExternal:
		l = RotationInternal
	}
	return l, r
}

// Opposed reports whether exactly one of the two sides is forward (external).
func Opposed(left, right Rotation) bool {
	return (left == RotationExternal) != (right == RotationExternal)
}
