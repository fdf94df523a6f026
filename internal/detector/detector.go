package detector

import "gocv.io/x/gocv"

// Detector defines the interface for pose detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns detected poses, best first.
	// Returns an empty slice if no body is detected.
	Detect(frame *gocv.Mat) ([]Pose, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for pose detection.
type Config struct {
	// NumPoses is the maximum number of bodies to detect (default: 1).
	NumPoses int

	// MinConfidence is the minimum pose detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// ModelPath overrides the pose landmarker model used by the service.
	ModelPath string
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		NumPoses:        1,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}
