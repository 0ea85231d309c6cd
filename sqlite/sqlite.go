// Package sqlite stores search index shards in SQLite so large
// documentation sets can be searched without their generated data files.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// schemaVersion is stored in PRAGMA user_version. Databases written with a
// different version are rejected rather than migrated; the index can always
// be imported again from the documentation set.
const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS shards (
	key          TEXT PRIMARY KEY,
	content_hash TEXT NOT NULL,
	entry_count  INTEGER NOT NULL DEFAULT 0,
	imported_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS search_entries (
	shard_key    TEXT NOT NULL REFERENCES shards(key) ON DELETE CASCADE,
	position     INTEGER NOT NULL,
	key          TEXT NOT NULL,
	display_name TEXT NOT NULL,
	target       TEXT NOT NULL,
	scope        TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (shard_key, position)
);

CREATE INDEX IF NOT EXISTS idx_search_entries_key ON search_entries(key);
`

// DB is a handle on a search index database.
type DB struct {
	db   *sql.DB
	path string
}

// NewDB returns a DB for the file at path. ":memory:" gives a private
// in-memory index.
func NewDB(path string) *DB {
	return &DB{path: path}
}

// Open connects, applies connection settings and creates the schema.
func (db *DB) Open() error {
	conn, err := sql.Open("sqlite3", db.path)
	if err != nil {
		return fmt.Errorf("open index database: %w", err)
	}
	// One writer at a time; imports run in a single transaction anyway.
	conn.SetMaxOpenConns(1)

	if err := db.configure(conn); err != nil {
		conn.Close()
		return err
	}
	db.db = conn
	return nil
}

func (db *DB) configure(conn *sql.DB) error {
	if err := conn.Ping(); err != nil {
		return fmt.Errorf("connect to index database: %w", err)
	}

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	// WAL is unavailable for in-memory databases.
	if db.path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}

	var version int
	if err := conn.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	switch version {
	case 0:
		if _, err := conn.Exec(schema); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := conn.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
			return fmt.Errorf("write schema version: %w", err)
		}
	case schemaVersion:
	default:
		return fmt.Errorf("index database %s has schema version %d, want %d; delete it and import again", db.path, version, schemaVersion)
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.db == nil {
		return nil
	}
	return db.db.Close()
}

// QueryRowContext executes a query that returns a single row.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.db.QueryRowContext(ctx, query, args...)
}

// QueryContext executes a query that returns rows.
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// ExecContext executes a statement that doesn't return rows.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}

// BeginTx starts a transaction.
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return db.db.BeginTx(ctx, opts)
}
