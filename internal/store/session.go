package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Session is one recorded capture run.
type Session struct {
	ID          string
	StartedAt   time.Time
	EndedAt     *time.Time
	FrameWidth  int
	FrameHeight int
	Gesture     bool
	Frames      int
}

// SessionRepository provides CRUD operations for sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a session. A new ID is generated when sess.ID is empty and
// StartedAt defaults to now.
func (r *SessionRepository) Create(sess *Session) error {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, started_at, frame_width, frame_height, gesture)
		 VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.StartedAt, sess.FrameWidth, sess.FrameHeight, sess.Gesture,
	)
	return err
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	row := r.db.QueryRow(
		`SELECT id, started_at, ended_at, frame_width, frame_height, gesture, frames
		 FROM sessions WHERE id = ?`,
		id,
	)

	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return sess, err
}

// List returns all sessions, newest first.
func (r *SessionRepository) List() ([]*Session, error) {
	rows, err := r.db.Query(
		`SELECT id, started_at, ended_at, frame_width, frame_height, gesture, frames
		 FROM sessions ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// End records the end time of a session.
func (r *SessionRepository) End(id string, at time.Time) error {
	result, err := r.db.Exec(`UPDATE sessions SET ended_at = ? WHERE id = ?`, at, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetFrameSize records the size of the frames captured in a session.
func (r *SessionRepository) SetFrameSize(id string, width, height int) error {
	result, err := r.db.Exec(
		`UPDATE sessions SET frame_width = ?, frame_height = ? WHERE id = ?`,
		width, height, id,
	)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a session and, through the foreign key, its frames.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	sess := &Session{}
	var ended sql.NullTime

	err := row.Scan(&sess.ID, &sess.StartedAt, &ended, &sess.FrameWidth, &sess.FrameHeight, &sess.Gesture, &sess.Frames)
	if err != nil {
		return nil, err
	}

	if ended.Valid {
		t := ended.Time
		sess.EndedAt = &t
	}
	return sess, nil
}
