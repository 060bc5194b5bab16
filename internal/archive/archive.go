package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS video_analyses (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	video_url TEXT NOT NULL,
	video_title TEXT,
	hook TEXT,
	transcript TEXT,
	script_base TEXT,
	platform TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	synced_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_video_analyses_user ON video_analyses(user_id, created_at);

CREATE TABLE IF NOT EXISTS viral_hooks (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	idea_input TEXT NOT NULL,
	hook_text TEXT NOT NULL,
	hook_type TEXT,
	retention_score REAL,
	niche TEXT,
	notes TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	synced_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_viral_hooks_user ON viral_hooks(user_id, created_at);

CREATE TABLE IF NOT EXISTS sync_log (
	user_id TEXT PRIMARY KEY,
	analyses INTEGER NOT NULL DEFAULT 0,
	hooks INTEGER NOT NULL DEFAULT 0,
	synced_at TEXT NOT NULL
);
`

// Archive is a local SQLite mirror of a user's saved analyses and hooks.
type Archive struct {
	conn *sql.DB
	now  func() time.Time
}

// Open creates or opens the archive at path.
func Open(path string) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	// SQLite only supports one writer.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("initialize archive schema: %w", err)
	}

	return &Archive{conn: conn, now: time.Now}, nil
}

// Close releases the database handle.
func (a *Archive) Close() error {
	return a.conn.Close()
}

// Ping verifies the database is reachable.
func (a *Archive) Ping(ctx context.Context) error {
	return a.conn.PingContext(ctx)
}

// timeLayout has fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
