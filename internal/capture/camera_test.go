package capture

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestClassifyDeviceNode(t *testing.T) {
	dir := t.TempDir()

	readable := filepath.Join(dir, "video0")
	if err := os.WriteFile(readable, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	locked := filepath.Join(dir, "video1")
	if err := os.WriteFile(locked, nil, 0o000); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		node       string
		want       error
		needsPerms bool
	}{
		{name: "missing node", node: filepath.Join(dir, "video7"), want: ErrCameraNotFound},
		{name: "node without access", node: locked, want: ErrPermissionDenied, needsPerms: true},
		{name: "node opens but capture failed", node: readable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.needsPerms && (runtime.GOOS == "windows" || os.Geteuid() == 0) {
				t.Skip("file modes are not enforced for this user")
			}

			err := classifyDeviceNode(tt.node)
			if err == nil {
				t.Fatal("classifyDeviceNode() returned nil")
			}
			if tt.want != nil {
				if !errors.Is(err, tt.want) {
					t.Errorf("classifyDeviceNode() = %v, want %v", err, tt.want)
				}
				return
			}
			if errors.Is(err, ErrCameraNotFound) || errors.Is(err, ErrPermissionDenied) {
				t.Errorf("classifyDeviceNode() = %v, want a plain error", err)
			}
		})
	}
}

func TestClassifyOpenError_NonLinux(t *testing.T) {
	if runtime.GOOS == "linux" {
		t.Skip("device nodes are inspected on linux")
	}
	if err := classifyOpenError(0); !errors.Is(err, ErrCameraNotFound) {
		t.Errorf("classifyOpenError() = %v, want ErrCameraNotFound", err)
	}
}

func TestDevicePath(t *testing.T) {
	if got := devicePath(3); got != "/dev/video3" {
		t.Errorf("devicePath(3) = %q", got)
	}
}

func TestCamera_SourceContract(t *testing.T) {
	var src Source = NewCamera(2)

	if src.Kind() != KindCamera {
		t.Errorf("Kind() = %s, want %s", src.Kind(), KindCamera)
	}
	if src.IsOpen() {
		t.Error("IsOpen() should return false before Open()")
	}
	if _, err := src.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("ReadFrame() error = %v, want ErrCameraNotOpen", err)
	}
	if err := src.Close(); err != nil {
		t.Errorf("Close() before Open() = %v, want nil", err)
	}

	src.SetFPS(0)
	if src.FPS() != DefaultFPS {
		t.Errorf("FPS() = %d after ignored update, want %d", src.FPS(), DefaultFPS)
	}
}

func TestCamera_OpenMissingDevice(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if runtime.GOOS != "linux" {
		t.Skip("device nodes are inspected on linux")
	}
	const id = 63
	if _, err := os.Stat(devicePath(id)); err == nil {
		t.Skipf("%s exists", devicePath(id))
	}

	cam := NewCamera(id)
	err := cam.Open()
	if !errors.Is(err, ErrCameraNotFound) {
		t.Errorf("Open() error = %v, want ErrCameraNotFound", err)
	}
	if cam.IsOpen() {
		t.Error("IsOpen() should return false after a failed Open()")
	}
}

func TestCamera_OpenClose_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cam := NewCamera(0)
	if err := cam.Open(); err != nil {
		t.Skipf("skipping test - camera not available: %v", err)
	}
	defer cam.Close()

	mat, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() failed: %v", err)
	}
	defer mat.Close()
	if mat.Empty() {
		t.Error("ReadFrame() returned empty mat")
	}

	if err := cam.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
	if cam.IsOpen() {
		t.Error("IsOpen() should return false after Close()")
	}
}
