package capture

import (
	"errors"
	"path/filepath"
	"testing"

	"gocv.io/x/gocv"
)

func TestStillImage_FromMat(t *testing.T) {
	img := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	defer img.Close()

	src := NewStillImageFromMat(img)
	defer src.Close()

	if src.Kind() != KindImage {
		t.Errorf("Kind() = %s, want %s", src.Kind(), KindImage)
	}
	if src.FPS() != StillFPS {
		t.Errorf("FPS() = %d, want %d", src.FPS(), StillFPS)
	}

	if _, err := src.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("ReadFrame() before Open error = %v, want ErrCameraNotOpen", err)
	}

	if err := src.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	// Every read serves an independent copy of the same image
	for i := 0; i < 3; i++ {
		frame, err := src.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() error = %v", err)
		}
		if frame.Cols() != 320 || frame.Rows() != 240 {
			t.Errorf("frame size = %dx%d, want 320x240", frame.Cols(), frame.Rows())
		}
		frame.Close()
	}

	// Reopening an in-memory image keeps it
	src.Close()
	if err := src.Open(); err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	frame, err := src.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() after reopen error = %v", err)
	}
	frame.Close()
}

func TestStillImage_FromFile(t *testing.T) {
	img := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer img.Close()

	path := filepath.Join(t.TempDir(), "pose.png")
	if !gocv.IMWrite(path, img) {
		t.Skip("skipping test - image encoding not available")
	}

	src := NewStillImage(path)
	if err := src.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Close()

	if src.Path() != path {
		t.Errorf("Path() = %q, want %q", src.Path(), path)
	}

	frame, err := src.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	defer frame.Close()

	if frame.Cols() != 160 || frame.Rows() != 120 {
		t.Errorf("frame size = %dx%d, want 160x120", frame.Cols(), frame.Rows())
	}
}

func TestStillImage_MissingFile(t *testing.T) {
	src := NewStillImage(filepath.Join(t.TempDir(), "missing.png"))

	err := src.Open()
	if !errors.Is(err, ErrImageNotLoaded) {
		t.Errorf("Open() error = %v, want ErrImageNotLoaded", err)
	}
	if src.IsOpen() {
		t.Error("source should not be open after a failed load")
	}
}
