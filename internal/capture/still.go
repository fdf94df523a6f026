package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// StillFPS is the re-evaluation rate of a still image (one frame per 200ms).
const StillFPS = 5

// ErrImageNotLoaded is returned when a still image cannot be decoded.
var ErrImageNotLoaded = errors.New("image could not be loaded")

// StillImage is a Source that serves the same decoded image on every read.
type StillImage struct {
	path    string
	mu      sync.Mutex
	image   gocv.Mat
	loaded  bool
	running bool
}

// NewStillImage creates a source for the image file at path.
// The file is decoded on Open.
func NewStillImage(path string) *StillImage {
	return &StillImage{path: path}
}

// NewStillImageFromMat creates a source serving a copy of img.
func NewStillImageFromMat(img gocv.Mat) *StillImage {
	return &StillImage{image: img.Clone(), loaded: true}
}

func (s *StillImage) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	if !s.loaded {
		img := gocv.IMRead(s.path, gocv.IMReadColor)
		if img.Empty() {
			img.Close()
			return fmt.Errorf("%w: %s", ErrImageNotLoaded, s.path)
		}
		s.image = img
		s.loaded = true
	}

	s.running = true
	return nil
}

// Close stops the source. The decoded image is released.
func (s *StillImage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = false
	if s.loaded && s.path != "" {
		s.image.Close()
		s.loaded = false
	}
	return nil
}

// ReadFrame returns a copy of the image. The caller must close it.
func (s *StillImage) ReadFrame() (*gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil, ErrCameraNotOpen
	}

	frame := s.image.Clone()
	return &frame, nil
}

func (s *StillImage) SetFPS(fps int) {}
func (s *StillImage) FPS() int       { return StillFPS }

func (s *StillImage) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *StillImage) Kind() Kind { return KindImage }

// Path returns the image file path, or "" for in-memory images.
func (s *StillImage) Path() string {
	return s.path
}
