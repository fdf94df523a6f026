package detector

import (
	"math"
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	poses []Pose
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetPoses sets the poses that will be returned by Detect.
func (m *MockDetector) SetPoses(poses []Pose) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.poses = poses
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured poses or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]Pose, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.poses, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// EdoRunLandmarks returns a preset pose of the Edo-style running stance.
// The body faces right: the left arm and foot reach forward, the right arm and
// foot trail behind, and both knees are bent at 120 degrees.
func EdoRunLandmarks() Pose {
	pose := basePose()

	pose[LeftShoulder] = point(0.52, 0.30, -0.05)
	pose[RightShoulder] = point(0.48, 0.30, 0.05)

	// Left arm swung forward, right arm swung back
	pose[LeftElbow] = point(0.58, 0.38, -0.10)
	pose[LeftWrist] = point(0.67, 0.42, -0.15)
	pose[RightElbow] = point(0.42, 0.38, 0.10)
	pose[RightWrist] = point(0.33, 0.42, 0.15)

	pose[LeftHip] = point(0.52, 0.55, -0.02)
	pose[RightHip] = point(0.48, 0.55, 0.02)

	pose[LeftKnee] = point(0.52, 0.70, -0.04)
	pose[RightKnee] = point(0.48, 0.70, 0.04)

	// Shins at 120 degrees to the thighs, mirrored
	shinX := 0.15 * math.Sin(120*math.Pi/180)
	shinY := -0.15 * math.Cos(120*math.Pi/180)
	pose[LeftAnkle] = point(0.52+shinX, 0.70+shinY, -0.05)
	pose[RightAnkle] = point(0.48-shinX, 0.70+shinY, 0.05)

	pose[LeftHeel] = point(0.52+shinX-0.01, 0.70+shinY+0.01, -0.05)
	pose[RightHeel] = point(0.48-shinX+0.01, 0.70+shinY+0.01, 0.05)
	pose[LeftFootIndex] = point(0.52+shinX+0.04, 0.70+shinY+0.015, -0.06)
	pose[RightFootIndex] = point(0.48-shinX-0.04, 0.70+shinY+0.015, 0.06)

	attachHands(pose)
	return pose
}

// StandingLandmarks returns a preset pose of a person standing still, facing right,
// with nearly straight knees and arms and feet hanging under the body.
func StandingLandmarks() Pose {
	pose := basePose()

	pose[LeftShoulder] = point(0.52, 0.30, -0.05)
	pose[RightShoulder] = point(0.48, 0.30, 0.05)

	pose[LeftElbow] = point(0.52, 0.42, -0.05)
	pose[LeftWrist] = point(0.53, 0.52, -0.05)
	pose[RightElbow] = point(0.48, 0.42, 0.05)
	pose[RightWrist] = point(0.49, 0.52, 0.05)

	pose[LeftHip] = point(0.52, 0.55, -0.02)
	pose[RightHip] = point(0.48, 0.55, 0.02)

	pose[LeftKnee] = point(0.52, 0.70, -0.02)
	pose[RightKnee] = point(0.48, 0.70, 0.02)

	pose[LeftAnkle] = point(0.525, 0.85, -0.02)
	pose[RightAnkle] = point(0.485, 0.85, 0.02)

	pose[LeftHeel] = point(0.515, 0.87, -0.02)
	pose[RightHeel] = point(0.475, 0.87, 0.02)
	pose[LeftFootIndex] = point(0.55, 0.87, -0.03)
	pose[RightFootIndex] = point(0.51, 0.87, 0.03)

	attachHands(pose)
	return pose
}

// basePose returns a full landmark sequence with the head filled in.
func basePose() Pose {
	pose := make(Pose, NumLandmarks)

	pose[Nose] = point(0.53, 0.15, -0.10)
	pose[LeftEyeInner] = point(0.535, 0.13, -0.09)
	pose[LeftEye] = point(0.54, 0.13, -0.09)
	pose[LeftEyeOuter] = point(0.545, 0.13, -0.09)
	pose[RightEyeInner] = point(0.525, 0.13, -0.09)
	pose[RightEye] = point(0.52, 0.13, -0.09)
	pose[RightEyeOuter] = point(0.515, 0.13, -0.09)
	pose[LeftEar] = point(0.53, 0.14, 0.0)
	pose[RightEar] = point(0.49, 0.14, 0.0)
	pose[MouthLeft] = point(0.535, 0.18, -0.09)
	pose[MouthRight] = point(0.525, 0.18, -0.09)

	return pose
}

// attachHands places the hand landmarks on top of their wrists.
func attachHands(pose Pose) {
	for _, i := range []int{LeftPinky, LeftIndex, LeftThumb} {
		pose[i] = pose[LeftWrist]
	}
	for _, i := range []int{RightPinky, RightIndex, RightThumb} {
		pose[i] = pose[RightWrist]
	}
}

func point(x, y, z float64) Landmark {
	return Landmark{X: x, Y: y, Z: z, Visibility: Confidence(0.99)}
}
