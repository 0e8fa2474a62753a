package server

import (
	"fmt"
	"net/http"

	"github.com/ayusman/handcast/internal/preview"
)

// StreamHandler serves the annotated preview frames as MJPEG.
type StreamHandler struct {
	hub *preview.Hub
}

// NewStreamHandler creates a new StreamHandler reading from hub.
func NewStreamHandler(hub *preview.Hub) *StreamHandler {
	return &StreamHandler{hub: hub}
}

// ServeHTTP streams frames until the client goes away.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	frames, cancel := h.hub.SubscribeFrames()
	defer cancel()

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case jpeg := <-frames:
			if err := writePart(w, jpeg); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

func writePart(w http.ResponseWriter, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpeg)); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	_, err := fmt.Fprint(w, "\r\n")
	return err
}
