// Package sqlite implements repository.FileStore on a local SQLite file.
//
// It exists so the site can run without a GitHub repository (local
// development, demos, integration tests). Revisions are git blob SHAs, so
// the admin UI sees the same kind of identifier it gets from GitHub, and
// writes follow the same compare-and-swap rules.
//
// modernc.org/sqlite is a pure-Go driver: no CGO, no system libsqlite.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a *sql.DB connection pool for the file store.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
// Use ":memory:" for an in-memory database in tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// One connection serialises writers, which is what the compare-and-swap
	// in Write relies on. It also keeps ":memory:" databases from being
	// silently split across pool connections.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the tables. Idempotent.
//
// files holds the current revision of each path; commits is append-only and
// plays the part of the git history.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS files (
			path       TEXT PRIMARY KEY,
			sha        TEXT NOT NULL,
			content    BLOB NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating files table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS commits (
			id         TEXT PRIMARY KEY,
			path       TEXT NOT NULL,
			sha        TEXT NOT NULL,
			message    TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_commits_path_created_at ON commits(path, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating commits table: %w", err)
	}

	return nil
}
