// Package capture provides frame sources backed by GoCV (OpenCV): live cameras
// and still images.
package capture

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	"gocv.io/x/gocv"
)

// Default camera settings
const (
	DefaultFPS    = 30
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned when trying to read from a source that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrCameraNotFound is returned when the capture device does not exist.
	ErrCameraNotFound = errors.New("camera not found")
	// ErrPermissionDenied is returned when the capture device exists but cannot be accessed.
	ErrPermissionDenied = errors.New("camera permission denied")
)

// Kind identifies the type of frame source.
type Kind string

// Source kinds.
const (
	KindCamera Kind = "camera"
	KindImage  Kind = "image"
)

// Source defines the interface for frame source implementations.
type Source interface {
	Open() error
	Close() error
	// ReadFrame returns the next frame. The caller must close it.
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
	Kind() Kind
}

// cameraImpl manages video capture from a camera device using GoCV.
type cameraImpl struct {
	deviceID int
	capture  *gocv.VideoCapture
	mu       sync.Mutex
	running  bool
	fps      int
}

// NewCamera creates a new camera Source for the given device ID.
func NewCamera(deviceID int) Source {
	return &cameraImpl{
		deviceID: deviceID,
		fps:      DefaultFPS,
	}
}

// Open opens the camera for capturing frames at 640x480.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.deviceID)
	if err != nil {
		return fmt.Errorf("%w: %v", classifyOpenError(c.deviceID), err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("%w: device %d", classifyOpenError(c.deviceID), c.deviceID)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, DefaultWidth)
	capture.Set(gocv.VideoCaptureFrameHeight, DefaultHeight)
	capture.Set(gocv.VideoCaptureFPS, float64(c.fps))

	c.capture = capture
	c.running = true

	return nil
}

// Close closes the camera and releases resources.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame from the camera.
// The caller is responsible for closing the returned Mat.
func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, errors.New("failed to read frame from camera")
	}

	if mat.Empty() {
		mat.Close()
		return nil, errors.New("captured frame is empty")
	}

	return &mat, nil
}

// SetFPS sets the frames per second for capture.
// Values less than or equal to 0 are ignored.
func (c *cameraImpl) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps

	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the current frames per second setting.
func (c *cameraImpl) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fps
}

// IsOpen returns true if the camera is currently open and running.
func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}

func (c *cameraImpl) Kind() Kind { return KindCamera }

// classifyOpenError inspects the V4L2 device node to explain why a capture
// device failed to open. Other platforms report ErrCameraNotFound.
func classifyOpenError(deviceID int) error {
	if runtime.GOOS != "linux" {
		return ErrCameraNotFound
	}
	return classifyDeviceNode(devicePath(deviceID))
}

func devicePath(deviceID int) string {
	return fmt.Sprintf("/dev/video%d", deviceID)
}

// classifyDeviceNode maps the result of opening node onto the capture errors.
// A node that opens fine yields a plain error naming it.
func classifyDeviceNode(node string) error {
	f, err := os.Open(node)
	switch {
	case err == nil:
		f.Close()
		return fmt.Errorf("open %s failed", node)
	case errors.Is(err, os.ErrPermission):
		return ErrPermissionDenied
	default:
		return ErrCameraNotFound
	}
}
