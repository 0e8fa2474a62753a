package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Sessions table - one row per capture run
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			started_at DATETIME NOT NULL,
			ended_at DATETIME,
			frame_width INTEGER NOT NULL,
			frame_height INTEGER NOT NULL,
			gesture INTEGER NOT NULL DEFAULT 0,
			frames INTEGER NOT NULL DEFAULT 0
		)`,

		// Frames table - payloads sent during a session, coordinates stored
		// in the list wire format
		`CREATE TABLE IF NOT EXISTS frames (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			sequence INTEGER NOT NULL,
			captured_at_ms INTEGER NOT NULL,
			coords TEXT NOT NULL,
			signal INTEGER
		)`,

		`CREATE UNIQUE INDEX IF NOT EXISTS idx_frames_session_sequence ON frames(session_id, sequence)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
