package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/ayusman/handcast/internal/gesture"
	"github.com/ayusman/handcast/internal/payload"
)

// Frame is a payload recorded during a session.
type Frame struct {
	ID         int64
	SessionID  string
	Sequence   int
	CapturedAt time.Time
	Payload    payload.Payload
}

// FrameRepository provides access to recorded frames.
type FrameRepository struct {
	db *sql.DB
}

// Frames returns the frame repository for this store.
func (s *Store) Frames() *FrameRepository {
	return &FrameRepository{db: s.db}
}

// Append stores a frame and bumps the session's frame count in one transaction.
func (r *FrameRepository) Append(f *Frame) error {
	coords, err := payload.ListFormat{}.Marshal(payload.Payload{Coords: f.Payload.Coords})
	if err != nil {
		return err
	}

	var signal sql.NullInt64
	if f.Payload.Signal != nil {
		signal = sql.NullInt64{Int64: int64(*f.Payload.Signal), Valid: true}
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO frames (session_id, sequence, captured_at_ms, coords, signal)
		 VALUES (?, ?, ?, ?, ?)`,
		f.SessionID, f.Sequence, f.CapturedAt.UnixMilli(), string(coords), signal,
	)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`UPDATE sessions SET frames = frames + 1 WHERE id = ?`, f.SessionID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	f.ID, _ = result.LastInsertId()
	return nil
}

// ListBySession returns a session's frames in sequence order.
func (r *FrameRepository) ListBySession(sessionID string) ([]Frame, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, sequence, captured_at_ms, coords, signal
		 FROM frames
		 WHERE session_id = ?
		 ORDER BY sequence`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var frames []Frame
	for rows.Next() {
		var f Frame
		var capturedMs int64
		var coords string
		var signal sql.NullInt64
		if err := rows.Scan(&f.ID, &f.SessionID, &f.Sequence, &capturedMs, &coords, &signal); err != nil {
			return nil, err
		}

		p, err := payload.ListFormat{}.Unmarshal([]byte(coords))
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", f.ID, err)
		}
		if signal.Valid {
			s := gesture.Signal(signal.Int64)
			p.Signal = &s
		}

		f.Payload = p
		f.CapturedAt = time.UnixMilli(capturedMs)
		frames = append(frames, f)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return frames, nil
}

// Recorder appends frames to a single session with increasing sequence numbers.
type Recorder struct {
	store   *Store
	session *Session
	mu      sync.Mutex
	next    int
}

// NewRecorder creates a session and returns a Recorder bound to it. width and
// height are the requested capture size; SetFrameSize replaces them with the
// size the camera actually delivers.
func NewRecorder(s *Store, width, height int, withGesture bool) (*Recorder, error) {
	sess := &Session{
		FrameWidth:  width,
		FrameHeight: height,
		Gesture:     withGesture,
	}
	if err := s.Sessions().Create(sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &Recorder{store: s, session: sess}, nil
}

// SessionID returns the ID of the session being recorded.
func (r *Recorder) SessionID() string {
	return r.session.ID
}

// SetFrameSize stores the actual frame size on the session when it differs
// from what is recorded.
func (r *Recorder) SetFrameSize(width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if width == r.session.FrameWidth && height == r.session.FrameHeight {
		return nil
	}
	if err := r.store.Sessions().SetFrameSize(r.session.ID, width, height); err != nil {
		return fmt.Errorf("set frame size: %w", err)
	}
	r.session.FrameWidth, r.session.FrameHeight = width, height
	return nil
}

// Record appends one payload captured at the given time.
func (r *Recorder) Record(p payload.Payload, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f := &Frame{
		SessionID:  r.session.ID,
		Sequence:   r.next,
		CapturedAt: at,
		Payload:    p,
	}
	if err := r.store.Frames().Append(f); err != nil {
		return fmt.Errorf("record frame %d: %w", r.next, err)
	}
	r.next++
	return nil
}

// Close marks the session ended.
func (r *Recorder) Close() error {
	return r.store.Sessions().End(r.session.ID, time.Now())
}
