// Package api provides HTTP API handlers for recorded sessions.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/handcast/internal/store"
)

// SessionHandler handles HTTP requests for session resources.
type SessionHandler struct {
	store *store.Store
}

// NewSessionHandler creates a new SessionHandler with the given store.
func NewSessionHandler(s *store.Store) *SessionHandler {
	return &SessionHandler{store: s}
}

// ServeHTTP routes /api/sessions, /api/sessions/{id} and
// /api/sessions/{id}/frames.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions")
	path = strings.Trim(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	id, sub, _ := strings.Cut(path, "/")
	switch {
	case sub == "frames" && r.Method == http.MethodGet:
		h.frames(w, r, id)
	case sub == "" && r.Method == http.MethodGet:
		h.get(w, r, id)
	case sub == "" && r.Method == http.MethodDelete:
		h.delete(w, r, id)
	case sub == "" || sub == "frames":
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	default:
		http.NotFound(w, r)
	}
}

type sessionResponse struct {
	ID          string `json:"id"`
	StartedAt   string `json:"started_at"`
	EndedAt     string `json:"ended_at,omitempty"`
	FrameWidth  int    `json:"frame_width"`
	FrameHeight int    `json:"frame_height"`
	Gesture     bool   `json:"gesture"`
	Frames      int    `json:"frames"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

type frameResponse struct {
	Sequence   int   `json:"sequence"`
	CapturedAt int64 `json:"captured_at_ms"`
	Values     []int `json:"values"`
}

type listFramesResponse struct {
	SessionID string          `json:"session_id"`
	Frames    []frameResponse `json:"frames"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toResponse(s *store.Session) sessionResponse {
	resp := sessionResponse{
		ID:          s.ID,
		StartedAt:   s.StartedAt.Format(time.RFC3339),
		FrameWidth:  s.FrameWidth,
		FrameHeight: s.FrameHeight,
		Gesture:     s.Gesture,
		Frames:      s.Frames,
	}
	if s.EndedAt != nil {
		resp.EndedAt = s.EndedAt.Format(time.RFC3339)
	}
	return resp
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.Sessions().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	response := listSessionsResponse{
		Sessions: make([]sessionResponse, 0, len(sessions)),
	}
	for _, s := range sessions {
		response.Sessions = append(response.Sessions, toResponse(s))
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	session, err := h.store.Sessions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(session))
}

func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Sessions().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) frames(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := h.store.Sessions().GetByID(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	frames, err := h.store.Frames().ListBySession(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list frames")
		return
	}

	response := listFramesResponse{
		SessionID: id,
		Frames:    make([]frameResponse, 0, len(frames)),
	}
	for _, f := range frames {
		response.Frames = append(response.Frames, frameResponse{
			Sequence:   f.Sequence,
			CapturedAt: f.CapturedAt.UnixMilli(),
			Values:     f.Payload.Values(),
		})
	}

	writeJSON(w, http.StatusOK, response)
}
