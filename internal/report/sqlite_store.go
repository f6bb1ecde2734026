package report

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps reports in a single table. Rows come back in insertion
// order.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens or creates the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("%w: create db dir: %w", ErrPersistence, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %w", ErrPersistence, err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.configure(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("%w: sqlite pragma %q: %w", ErrPersistence, p, err)
		}
	}
	return nil
}

func (s *SQLiteStore) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS reports (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			type TEXT NOT NULL CHECK (type IN ('lost', 'found')),
			item TEXT NOT NULL DEFAULT '',
			color TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			date_iso TEXT NOT NULL DEFAULT '',
			user_id TEXT NOT NULL DEFAULT '',
			username TEXT NOT NULL DEFAULT '',
			text TEXT NOT NULL DEFAULT '',
			channel TEXT NOT NULL DEFAULT '',
			chat_id TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_type ON reports(type, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_user ON reports(user_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("%w: init schema: %w", ErrPersistence, err)
		}
	}
	return nil
}

// Append inserts r in a single statement.
func (s *SQLiteStore) Append(ctx context.Context, r Report) error {
	r, err := prepare(r, s.now)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports (id, type, item, color, location, date_iso, user_id, username, text, channel, chat_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, string(r.Type), r.Item, r.Color, r.Location, r.DateISO,
		r.UserID, r.Username, r.Text, r.Channel, r.ChatID,
		r.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("%w: insert report: %w", ErrPersistence, err)
	}
	return nil
}

// Query scans every report and keeps those accepted by keep.
func (s *SQLiteStore) Query(ctx context.Context, keep func(Report) bool) ([]Report, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, item, color, location, date_iso, user_id, username, text, channel, chat_id, created_at
		FROM reports
		ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: query reports: %w", ErrPersistence, err)
	}
	defer rows.Close()

	var out []Report
	for rows.Next() {
		var (
			r       Report
			typ     string
			created string
		)
		if err := rows.Scan(&r.ID, &typ, &r.Item, &r.Color, &r.Location, &r.DateISO,
			&r.UserID, &r.Username, &r.Text, &r.Channel, &r.ChatID, &created); err != nil {
			return nil, fmt.Errorf("%w: scan report: %w", ErrPersistence, err)
		}
		r.Type = Type(typ)
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			r.CreatedAt = t
		}
		if keep == nil || keep(r) {
			out = append(out, r)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate reports: %w", ErrPersistence, err)
	}
	return out, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
