// Package db manages the small SQLite key/value database backing the
// sqlite session adapter.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver with database/sql
)

// DB wraps a *sql.DB with the path it was opened from.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the SQLite database at path and initialises the schema.
func Open(path string) (*DB, error) {
	sqldb, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("db.Open: %w", err)
	}
	d := &DB{db: sqldb, path: path}
	if err := d.createSchema(); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("db.Open createSchema: %w", err)
	}
	return d, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Path returns the file the database was opened from.
func (d *DB) Path() string { return d.path }

// ---------------------------------------------------------------------------
// Schema
// ---------------------------------------------------------------------------

func (d *DB) createSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
	}
	for _, s := range stmts {
		if _, err := d.db.Exec(s); err != nil {
			return fmt.Errorf("createSchema exec: %w\nSQL: %s", err, s)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Key/value
// ---------------------------------------------------------------------------

// Get returns the value for key, or ("", false, nil) if not set.
func (d *DB) Get(key string) (string, bool, error) {
	var val string
	err := d.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("db.Get %s: %w", key, err)
	}
	return val, true, nil
}

// Set upserts a key-value pair.
func (d *DB) Set(key, value string) error {
	_, err := d.db.Exec(
		`INSERT OR REPLACE INTO kv (key, value, updated_at) VALUES (?, ?, ?)`,
		key, value, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("db.Set %s: %w", key, err)
	}
	return nil
}

// Delete removes keys in a single transaction. Absent keys are ignored.
func (d *DB) Delete(keys ...string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("db.Delete begin: %w", err)
	}
	for _, k := range keys {
		res, err := tx.Exec(`DELETE FROM kv WHERE key = ?`, k)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("db.Delete %s: %w", k, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			slog.Debug("db.Delete: key not present", "key", k)
		}
	}
	return tx.Commit()
}
