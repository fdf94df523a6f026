package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/edorun/internal/server/api"
)

const (
	defaultStateInterval = 66 * time.Millisecond // ~15 FPS
	writeTimeout         = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// StateHandler broadcasts session snapshots via WebSocket.
type StateHandler struct {
	session  api.Session
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]bool

	stop      chan struct{}
	closeOnce sync.Once
}

// NewStateHandler creates a StateHandler and starts its broadcaster.
func NewStateHandler(s api.Session, interval time.Duration, logger *slog.Logger) *StateHandler {
	if interval <= 0 {
		interval = defaultStateInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	h := &StateHandler{
		session:  s,
		interval: interval,
		logger:   logger,
		clients:  make(map[*websocket.Conn]bool),
		stop:     make(chan struct{}),
	}
	go h.broadcast()
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *StateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade error", "error", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	// Send the current state right away so clients don't wait for the next tick
	h.sendLocked(conn, h.encode())
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Clients returns the number of connected clients.
func (h *StateHandler) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close stops the broadcaster.
func (h *StateHandler) Close() {
	h.closeOnce.Do(func() { close(h.stop) })
}

// broadcast sends snapshots to all connected clients.
func (h *StateHandler) broadcast() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
		}

		h.mu.Lock()
		if len(h.clients) > 0 {
			msg := h.encode()
			for conn := range h.clients {
				h.sendLocked(conn, msg)
			}
		}
		h.mu.Unlock()
	}
}

func (h *StateHandler) encode() []byte {
	msg, err := json.Marshal(h.session.Snapshot())
	if err != nil {
		h.logger.Error("failed to encode snapshot", "error", err)
		return nil
	}
	return msg
}

// sendLocked writes msg to conn. Writes are serialized by h.mu.
func (h *StateHandler) sendLocked(conn *websocket.Conn, msg []byte) {
	if msg == nil {
		return
	}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		h.logger.Debug("websocket write failed", "error", err)
	}
}
