// Package detector provides pose detection interfaces and landmark types.
package detector

import "gonum.org/v1/gonum/spatial/r3"

// Pose landmark indices following the MediaPipe pose convention.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	Nose           = 0
	LeftEyeInner   = 1
	LeftEye        = 2
	LeftEyeOuter   = 3
	RightEyeInner  = 4
	RightEye       = 5
	RightEyeOuter  = 6
	LeftEar        = 7
	RightEar       = 8
	MouthLeft      = 9
	MouthRight     = 10
	LeftShoulder   = 11
	RightShoulder  = 12
	LeftElbow      = 13
	RightElbow     = 14
	LeftWrist      = 15
	RightWrist     = 16
	LeftPinky      = 17
	RightPinky     = 18
	LeftIndex      = 19
	RightIndex     = 20
	LeftThumb      = 21
	RightThumb     = 22
	LeftHip        = 23
	RightHip       = 24
	LeftKnee       = 25
	RightKnee      = 26
	LeftAnkle      = 27
	RightAnkle     = 28
	LeftHeel       = 29
	RightHeel      = 30
	LeftFootIndex  = 31
	RightFootIndex = 32
	NumLandmarks   = 33
)

// Connections lists the landmark pairs joined by a skeleton line.
var Connections = [][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 7}, {0, 4}, {4, 5}, {5, 6}, {6, 8}, {9, 10},
	{11, 12}, {11, 13}, {13, 15}, {15, 17}, {15, 19}, {15, 21}, {17, 19},
	{12, 14}, {14, 16}, {16, 18}, {16, 20}, {16, 22}, {18, 20},
	{11, 23}, {12, 24}, {23, 24}, {23, 25}, {24, 26}, {25, 27}, {26, 28},
	{27, 29}, {28, 30}, {29, 31}, {30, 32}, {27, 31}, {28, 32},
}

// Landmark is a single body keypoint in normalized image coordinates.
// X and Y are in 0..1; Z is relative depth where smaller is nearer the camera.
type Landmark struct {
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Z          float64  `json:"z"`
	Visibility *float64 `json:"visibility,omitempty"`
}

// Pose is the ordered landmark sequence for one detected body.
type Pose []Landmark

// Vec returns the landmark position as a vector.
func (l Landmark) Vec() r3.Vec {
	return r3.Vec{X: l.X, Y: l.Y, Z: l.Z}
}

// Visible reports whether the landmark's confidence meets the floor.
// Landmarks without a visibility value are always visible.
func (l Landmark) Visible(floor float64) bool {
	return l.Visibility == nil || *l.Visibility >= floor
}

// At returns the landmark at index i if present and visible.
func (p Pose) At(i int, floor float64) (Landmark, bool) {
	if i < 0 || i >= len(p) {
		return Landmark{}, false
	}
	l := p[i]
	if !l.Visible(floor) {
		return Landmark{}, false
	}
	return l, true
}

// Clone returns a deep copy of the pose.
func (p Pose) Clone() Pose {
	if p == nil {
		return nil
	}
	out := make(Pose, len(p))
	for i, l := range p {
		out[i] = l
		if l.Visibility != nil {
			v := *l.Visibility
			out[i].Visibility = &v
		}
	}
	return out
}

// Confidence returns a pointer to v for use as a landmark visibility.
func Confidence(v float64) *float64 {
	return &v
}
