package history

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Kind distinguishes the video rename from its companions.
type Kind string

const (
	KindVideo     Kind = "video"
	KindCompanion Kind = "companion"
)

// Session is one invocation of the renamer against a directory.
type Session struct {
	ID           int64
	BaseDir      string
	SeriesName   string
	OutputFormat string
	DryRun       bool
	StartedAt    time.Time
	UndoneAt     *time.Time
	RenameCount  int
}

// Undone reports whether the session has been reverted.
func (s Session) Undone() bool {
	return s.UndoneAt != nil
}

// Rename is a single recorded path change.
type Rename struct {
	ID        int64
	SessionID int64
	OldPath   string
	NewPath   string
	Kind      Kind
	CreatedAt time.Time
}

// BeginSession creates a session row and returns its ID.
func (d *DB) BeginSession(baseDir, seriesName, outputFormat string, dryRun bool) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	res, err := d.db.Exec(`
		INSERT INTO sessions (base_dir, series_name, output_format, dry_run, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, baseDir, seriesName, outputFormat, boolToInt(dryRun), time.Now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to begin session: %w", err)
	}
	return res.LastInsertId()
}

// RecordRename appends a rename to a session.
func (d *DB) RecordRename(sessionID int64, oldPath, newPath string, kind Kind) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, err := d.db.Exec(`
		INSERT INTO renames (session_id, old_path, new_path, kind, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, sessionID, oldPath, newPath, string(kind), time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to record rename: %w", err)
	}
	return nil
}

const sessionColumns = `
	s.id, s.base_dir, s.series_name, s.output_format, s.dry_run,
	s.started_at, s.undone_at,
	(SELECT COUNT(*) FROM renames r WHERE r.session_id = s.id)
`

// RecentSessions returns the newest sessions first.
func (d *DB) RecentSessions(limit int) ([]Session, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := d.db.Query(`SELECT `+sessionColumns+` FROM sessions s ORDER BY s.id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// GetSession returns a session by ID.
func (d *DB) GetSession(id int64) (Session, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	row := d.db.QueryRow(`SELECT `+sessionColumns+` FROM sessions s WHERE s.id = ?`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("session %d: %w", id, ErrNoSession)
	}
	return s, err
}

// LastSession returns the newest session that renamed something and has
// not been undone.
func (d *DB) LastSession() (Session, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	row := d.db.QueryRow(`
		SELECT ` + sessionColumns + `
		FROM sessions s
		WHERE s.undone_at IS NULL AND s.dry_run = 0
		  AND EXISTS (SELECT 1 FROM renames r WHERE r.session_id = s.id)
		ORDER BY s.id DESC
		LIMIT 1
	`)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNoSession
	}
	return s, err
}

// SessionRenames returns a session's renames newest first, the order in
// which they must be reverted.
func (d *DB) SessionRenames(sessionID int64) ([]Rename, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.Query(`
		SELECT id, session_id, old_path, new_path, kind, created_at
		FROM renames
		WHERE session_id = ?
		ORDER BY id DESC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var renames []Rename
	for rows.Next() {
		var r Rename
		var kind string
		var created int64
		if err := rows.Scan(&r.ID, &r.SessionID, &r.OldPath, &r.NewPath, &kind, &created); err != nil {
			return nil, err
		}
		r.Kind = Kind(kind)
		r.CreatedAt = time.Unix(0, created)
		renames = append(renames, r)
	}
	return renames, rows.Err()
}

// MarkUndone flags a session as reverted.
func (d *DB) MarkUndone(sessionID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	res, err := d.db.Exec(`UPDATE sessions SET undone_at = ? WHERE id = ? AND undone_at IS NULL`,
		time.Now().UnixNano(), sessionID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("session %d: %w", sessionID, ErrNoSession)
	}
	return nil
}

// Stats summarises the ledger.
type Stats struct {
	Sessions int
	Renames  int
	Undone   int
}

// GetStats counts sessions and renames.
func (d *DB) GetStats() (Stats, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var st Stats
	err := d.db.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM sessions),
			(SELECT COUNT(*) FROM renames),
			(SELECT COUNT(*) FROM sessions WHERE undone_at IS NOT NULL)
	`).Scan(&st.Sessions, &st.Renames, &st.Undone)
	return st, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (Session, error) {
	var s Session
	var dryRun int
	var started int64
	var undone sql.NullInt64
	if err := row.Scan(&s.ID, &s.BaseDir, &s.SeriesName, &s.OutputFormat, &dryRun, &started, &undone, &s.RenameCount); err != nil {
		return Session{}, err
	}
	s.DryRun = dryRun != 0
	s.StartedAt = time.Unix(0, started)
	if undone.Valid {
		t := time.Unix(0, undone.Int64)
		s.UndoneAt = &t
	}
	return s, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
