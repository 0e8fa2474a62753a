package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ayusman/handcast/internal/preview"
)

const writeWait = 2 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// LandmarksHandler pushes every transmitted payload to WebSocket clients as
// JSON.
type LandmarksHandler struct {
	hub    *preview.Hub
	logger *zap.Logger
}

// NewLandmarksHandler creates a new LandmarksHandler reading from hub.
func NewLandmarksHandler(hub *preview.Hub, logger *zap.Logger) *LandmarksHandler {
	return &LandmarksHandler{hub: hub, logger: logger}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *LandmarksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	updates, cancel := h.hub.SubscribePayloads()
	defer cancel()

	// The reader only exists to notice the client closing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case u := <-updates:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(u); err != nil {
				h.logger.Debug("websocket write failed", zap.Error(err))
				return
			}
		}
	}
}
