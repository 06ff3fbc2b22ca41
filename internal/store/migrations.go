package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Settings table - key/value pairs, including the applied engine settings document
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Action events table - one row per emitted press, release or tap
		`CREATE TABLE IF NOT EXISTS action_events (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			gesture_key TEXT NOT NULL,
			kind TEXT NOT NULL CHECK(kind IN ('press', 'release', 'tap')),
			action TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_action_events_created_at ON action_events(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_action_events_session_id ON action_events(session_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
