package capture

import (
	"testing"

	"gocv.io/x/gocv"
)

func TestNewMotionDetector(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		want      float64
	}{
		{name: "explicit threshold", threshold: 1.0, want: 1.0},
		{name: "high threshold", threshold: 5.0, want: 5.0},
		{name: "zero selects default", threshold: 0, want: DefaultMotionThreshold},
		{name: "negative selects default", threshold: -2, want: DefaultMotionThreshold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := NewMotionDetector(tt.threshold)
			defer md.Close()

			if md.Threshold() != tt.want {
				t.Errorf("Threshold() = %f, want %f", md.Threshold(), tt.want)
			}
			if md.primed {
				t.Error("motion detector should not be primed initially")
			}
		})
	}
}

func TestMotionDetector_FirstFrameCountsAsMotion(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	moved, _ := md.Detect(&frame)
	if !moved {
		t.Error("first frame should count as motion")
	}
}

func TestMotionDetector_NoMotion(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	frame1 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame1.Close()
	frame2 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame2.Close()

	md.Detect(&frame1)

	moved, changed := md.Detect(&frame2)
	if moved {
		t.Errorf("identical frames should not count as motion, changed = %f", changed)
	}
	if changed != 0 {
		t.Errorf("changed = %f, want 0", changed)
	}
}

func TestMotionDetector_WithMotion(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	black := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer black.Close()
	white := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer white.Close()
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	md.Detect(&black)

	moved, changed := md.Detect(&white)
	if !moved {
		t.Errorf("black to white should count as motion, changed = %f", changed)
	}
	if changed < 50.0 {
		t.Errorf("changed = %f, expected > 50%% for black to white", changed)
	}
}

func TestMotionDetector_Reset(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	md.Detect(&frame)
	md.Reset()

	if md.primed {
		t.Error("detector should not be primed after Reset")
	}
	if !md.prevGray.Empty() {
		t.Error("baseline should be empty after Reset")
	}

	// The same frame counts as motion again after a reset
	if moved, _ := md.Detect(&frame); !moved {
		t.Error("first frame after Reset should count as motion")
	}
}

func TestMotionDetector_EmptyFrame(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	empty := gocv.NewMat()
	defer empty.Close()

	if moved, _ := md.Detect(&empty); moved {
		t.Error("empty frame should not count as motion")
	}
	if moved, _ := md.Detect(nil); moved {
		t.Error("nil frame should not count as motion")
	}
}

func TestMotionDetector_SetThreshold(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	md.SetThreshold(5.0)
	if md.Threshold() != 5.0 {
		t.Errorf("Threshold() = %f, want 5.0", md.Threshold())
	}

	md.SetThreshold(-1.0)
	if md.Threshold() != 5.0 {
		t.Errorf("negative threshold should be ignored, got %f", md.Threshold())
	}
}

func TestMotionDetector_Close_Multiple(t *testing.T) {
	md := NewMotionDetector(1.0)
	md.Close()
	md.Close()
}
