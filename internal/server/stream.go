package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/edorun/internal/render"
	"github.com/ayusman/edorun/internal/server/api"
)

const (
	defaultStreamInterval = 66 * time.Millisecond // ~15 FPS
	maxStreamDimension    = 4096
)

// StreamHandler serves MJPEG frames of the session with the pose overlay.
type StreamHandler struct {
	session  api.Session
	interval time.Duration
}

// NewStreamHandler creates a new StreamHandler for the given session.
func NewStreamHandler(s api.Session, interval time.Duration) *StreamHandler {
	if interval <= 0 {
		interval = defaultStreamInterval
	}
	return &StreamHandler{session: s, interval: interval}
}

// ServeHTTP streams MJPEG frames to connected clients.
// Optional w and h query parameters cover-fit the frame to that size.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	width, height, err := displaySize(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		buf, ok := h.render(width, height)
		if ok {
			fmt.Fprintf(w, "--frame\r\n")
			fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
			fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(buf))
			if _, err := w.Write(buf); err != nil {
				return
			}
			fmt.Fprintf(w, "\r\n")

			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

// render draws the overlay on the latest frame and encodes it as JPEG.
func (h *StreamHandler) render(width, height int) ([]byte, bool) {
	frame, landmarks, ok := h.session.Frame()
	if !ok {
		return nil, false
	}
	defer frame.Close()

	if width == 0 || height == 0 {
		width, height = frame.Cols(), frame.Rows()
	}

	img, mapper, ok := render.Fit(frame, width, height)
	defer img.Close()
	if !ok {
		return nil, false
	}

	snap := h.session.Snapshot()
	overlay := render.NewOverlay(render.DefaultStyle(), h.session.Tuning().MinVisibility)
	overlay.Skeleton(&img, mapper, landmarks)
	overlay.Status(&img, snap.Status, snap.Progress)

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		return nil, false
	}
	defer buf.Close()

	// GetBytes aliases native memory released by Close
	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, true
}

func displaySize(r *http.Request) (int, int, error) {
	q := r.URL.Query()
	if q.Get("w") == "" && q.Get("h") == "" {
		return 0, 0, nil
	}
	width, err := strconv.Atoi(q.Get("w"))
	if err != nil || width <= 0 || width > maxStreamDimension {
		return 0, 0, fmt.Errorf("invalid width %q", q.Get("w"))
	}
	height, err := strconv.Atoi(q.Get("h"))
	if err != nil || height <= 0 || height > maxStreamDimension {
		return 0, 0, fmt.Errorf("invalid height %q", q.Get("h"))
	}
	return width, height, nil
}
