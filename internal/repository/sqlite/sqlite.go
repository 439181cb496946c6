// Package sqlite implements repository.Store on SQLite.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite, so no C compiler is needed and
// cross-compiling keeps working.
//
// IN-MEMORY BY DEFAULT:
// The service keeps its data in process memory, so the configured DSN
// defaults to ":memory:". A file path also works for local debugging.
//
// ONE CONNECTION:
// An in-memory SQLite database belongs to the connection that created it.
// A pool with two connections would see two different databases, so the
// pool is pinned to one connection. That also serializes writers, which is
// what the per-kind ID counters need. The catch: while a transaction (or an
// unclosed *sql.Rows) holds the connection, any other query on db.conn
// blocks forever. Code in this package therefore reads every row before
// issuing the next statement, and runs all statements of a transaction on
// the tx itself.
//
// IDs:
// Every table uses INTEGER PRIMARY KEY AUTOINCREMENT. Plain INTEGER PRIMARY
// KEY may reuse the largest ID after a delete; AUTOINCREMENT never does.
//
// NESTED VALUES:
// Tags, widgets, insight details and metadata are stored as JSON text.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	// registers the "sqlite" driver with database/sql
	_ "modernc.org/sqlite"

	"github.com/sakif/social-pulse/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// DB wraps a single-connection sql.DB and implements repository.Store.
type DB struct {
	conn *sql.DB
	now  func() time.Time
}

// Option configures a DB.
type Option func(*DB)

// WithClock overrides the time source used for CreatedAt/UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(db *DB) { db.now = now }
}

// New opens the database at dsn and creates the schema.
//
// dsn examples:
//   - ":memory:"        → in-memory database (the default)
//   - "data/pulse.db"   → file-based database
func New(dsn string, opts ...Option) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0) // dropping the connection would drop an in-memory database

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode lets readers proceed during a write on file databases.
	// For ":memory:" SQLite ignores it and keeps the "memory" journal.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn, now: time.Now}
	for _, opt := range opts {
		opt(db)
	}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection. For ":memory:" this discards all data.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates every table. CREATE TABLE IF NOT EXISTS keeps it
// idempotent for file databases.
func (db *DB) migrate() error {
	statements := []struct {
		name string
		sql  string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id            INTEGER PRIMARY KEY AUTOINCREMENT,
				username      TEXT NOT NULL UNIQUE,
				email         TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL DEFAULT '',
				full_name     TEXT NOT NULL DEFAULT '',
				avatar_url    TEXT NOT NULL DEFAULT '',
				provider      TEXT NOT NULL DEFAULT '',
				provider_id   TEXT NOT NULL DEFAULT '',
				last_login    DATETIME,
				created_at    DATETIME NOT NULL,
				updated_at    DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_users_provider ON users(provider, provider_id);`},
		{"social_accounts", `
			CREATE TABLE IF NOT EXISTS social_accounts (
				id            INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id       INTEGER NOT NULL,
				platform      TEXT NOT NULL,
				handle        TEXT NOT NULL,
				display_name  TEXT NOT NULL DEFAULT '',
				profile_url   TEXT NOT NULL DEFAULT '',
				avatar_url    TEXT NOT NULL DEFAULT '',
				access_token  TEXT NOT NULL DEFAULT '',
				refresh_token TEXT NOT NULL DEFAULT '',
				token_expiry  DATETIME,
				is_connected  INTEGER NOT NULL DEFAULT 1,
				followers     INTEGER NOT NULL DEFAULT 0,
				created_at    DATETIME NOT NULL,
				updated_at    DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_social_accounts_user ON social_accounts(user_id);`},
		{"content_items", `
			CREATE TABLE IF NOT EXISTS content_items (
				id                INTEGER PRIMARY KEY AUTOINCREMENT,
				social_account_id INTEGER NOT NULL,
				title             TEXT NOT NULL DEFAULT '',
				description       TEXT NOT NULL DEFAULT '',
				url               TEXT NOT NULL DEFAULT '',
				thumbnail_url     TEXT NOT NULL DEFAULT '',
				published_at      DATETIME,
				platform          TEXT NOT NULL DEFAULT '',
				content_type      TEXT NOT NULL DEFAULT '',
				views             INTEGER NOT NULL DEFAULT 0,
				likes             INTEGER NOT NULL DEFAULT 0,
				comments          INTEGER NOT NULL DEFAULT 0,
				shares            INTEGER NOT NULL DEFAULT 0,
				engagement        INTEGER NOT NULL DEFAULT 0,
				engagement_rate   TEXT NOT NULL DEFAULT '0.0%',
				is_bookmarked     INTEGER NOT NULL DEFAULT 0,
				tags              TEXT NOT NULL DEFAULT '[]',
				metadata          TEXT NOT NULL DEFAULT 'null',
				created_at        DATETIME NOT NULL,
				updated_at        DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_content_items_account ON content_items(social_account_id);`},
		{"analytics_snapshots", `
			CREATE TABLE IF NOT EXISTS analytics_snapshots (
				id                INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id           INTEGER NOT NULL,
				social_account_id INTEGER,
				date              DATETIME NOT NULL,
				platform          TEXT NOT NULL DEFAULT '',
				followers         INTEGER NOT NULL DEFAULT 0,
				views             INTEGER NOT NULL DEFAULT 0,
				likes             INTEGER NOT NULL DEFAULT 0,
				comments          INTEGER NOT NULL DEFAULT 0,
				shares            INTEGER NOT NULL DEFAULT 0,
				engagement        INTEGER NOT NULL DEFAULT 0,
				engagement_rate   TEXT NOT NULL DEFAULT '0.0%',
				metadata          TEXT NOT NULL DEFAULT 'null',
				created_at        DATETIME NOT NULL,
				updated_at        DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_snapshots_user ON analytics_snapshots(user_id);
			CREATE INDEX IF NOT EXISTS idx_snapshots_account ON analytics_snapshots(social_account_id);`},
		{"dashboard_layouts", `
			CREATE TABLE IF NOT EXISTS dashboard_layouts (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id    INTEGER NOT NULL,
				name       TEXT NOT NULL,
				layout     TEXT NOT NULL DEFAULT '{"widgets":[]}',
				is_default INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_layouts_user ON dashboard_layouts(user_id);`},
		{"ai_insights", `
			CREATE TABLE IF NOT EXISTS ai_insights (
				id                INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id           INTEGER NOT NULL,
				social_account_id INTEGER,
				title             TEXT NOT NULL,
				summary           TEXT NOT NULL DEFAULT '',
				details           TEXT NOT NULL DEFAULT '[]',
				recommendations   TEXT NOT NULL DEFAULT '[]',
				metadata          TEXT NOT NULL DEFAULT 'null',
				created_at        DATETIME NOT NULL,
				updated_at        DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_insights_user ON ai_insights(user_id);`},
	}

	for _, st := range statements {
		if _, err := db.conn.Exec(st.sql); err != nil {
			return fmt.Errorf("creating %s table: %w", st.name, err)
		}
	}
	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn in a transaction, committing on success.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// collect drains rows through scan. It always returns a non-nil slice so
// empty results serialize as [].
func collect[T any](rows *sql.Rows, scan func(scanner) (*T, error)) ([]T, error) {
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return out, nil
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding json column: %w", err)
	}
	return string(b), nil
}

func decodeJSON(raw string, v any) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decoding json column: %w", err)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func intPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
