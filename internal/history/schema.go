package history

import "database/sql"

type migration struct {
	version int
	up      []string
}

var migrations = []migration{
	{
		version: 1,
		up: []string{
			`CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER PRIMARY KEY,
				applied_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
			)`,

			`CREATE TABLE sessions (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				base_dir TEXT NOT NULL,
				series_name TEXT NOT NULL DEFAULT '',
				output_format TEXT NOT NULL,
				dry_run INTEGER NOT NULL DEFAULT 0,
				started_at INTEGER NOT NULL,
				undone_at INTEGER
			)`,

			`CREATE TABLE renames (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				session_id INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
				old_path TEXT NOT NULL,
				new_path TEXT NOT NULL,
				kind TEXT NOT NULL CHECK (kind IN ('video', 'companion')),
				created_at INTEGER NOT NULL
			)`,

			`CREATE INDEX idx_renames_session ON renames(session_id)`,

			`INSERT INTO schema_version (version) VALUES (1)`,
		},
	},
}

// applyMigrations applies any pending schema migrations
func applyMigrations(db *sql.DB) error {
	var currentVersion int
	err := db.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&currentVersion)
	if err != nil {
		// fresh database
		currentVersion = 0
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}

		for _, stmt := range m.up {
			if _, err := tx.Exec(stmt); err != nil {
				tx.Rollback()
				return err
			}
		}

		if err := tx.Commit(); err != nil {
			return err
		}
	}

	return nil
}
