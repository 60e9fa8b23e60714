// Package sqlite implements campusnav.Store on a SQLite file via
// mattn/go-sqlite3.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/meikuraledutech/campusnav"
)

// Store is a campusnav.Store backed by SQLite.
type Store struct {
	db *sql.DB
}

var _ campusnav.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path. It enables WAL mode;
// call CreateSchema before first use.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: busy timeout: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Paths reference nodes by (kind, id) without foreign keys: a path may
// outlive the building or waypoint it points at.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS buildings (
    building_id INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT NOT NULL,
    code        TEXT,
    latitude    REAL NOT NULL,
    longitude   REAL NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    floor_count INTEGER NOT NULL DEFAULT 1,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS waypoints (
    waypoint_id   INTEGER PRIMARY KEY AUTOINCREMENT,
    name          TEXT NOT NULL,
    code          TEXT NOT NULL,
    latitude      REAL NOT NULL,
    longitude     REAL NOT NULL,
    waypoint_type TEXT NOT NULL DEFAULT '',
    description   TEXT NOT NULL DEFAULT '',
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS paths (
    path_id          INTEGER PRIMARY KEY AUTOINCREMENT,
    source_kind      TEXT NOT NULL CHECK (source_kind IN ('building', 'waypoint')),
    source_id        INTEGER NOT NULL,
    destination_kind TEXT NOT NULL CHECK (destination_kind IN ('building', 'waypoint')),
    destination_id   INTEGER NOT NULL,
    distance         REAL NOT NULL,
    path_type        TEXT NOT NULL DEFAULT 'walkway',
    accessibility    INTEGER NOT NULL DEFAULT 1,
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_paths_source ON paths(source_kind, source_id);

CREATE TABLE IF NOT EXISTS campus_meta (
    id      INTEGER PRIMARY KEY CHECK (id = 1),
    version INTEGER NOT NULL
);

INSERT OR IGNORE INTO campus_meta (id, version) VALUES (1, 0);
`

// CreateSchema creates the tables if they don't exist.
func (s *Store) CreateSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("sqlite: create schema: %w", err)
	}
	return nil
}

// DropSchema drops every table.
func (s *Store) DropSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
DROP TABLE IF EXISTS paths;
DROP TABLE IF EXISTS waypoints;
DROP TABLE IF EXISTS buildings;
DROP TABLE IF EXISTS campus_meta;`)
	if err != nil {
		return fmt.Errorf("sqlite: drop schema: %w", err)
	}
	return nil
}

// write runs fn in a transaction and bumps the data version with it.
func (s *Store) write(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE campus_meta SET version = version + 1 WHERE id = 1`); err != nil {
		return fmt.Errorf("sqlite: bump version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// deleteRow deletes by id and returns notFound when no row matched.
func (s *Store) deleteRow(ctx context.Context, query string, id int64, notFound error) error {
	return s.write(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, id)
		if err != nil {
			return fmt.Errorf("sqlite: delete: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: delete: %w", err)
		}
		if n == 0 {
			return notFound
		}
		return nil
	})
}

// Version returns the data generation.
func (s *Store) Version(ctx context.Context) (int64, error) {
	var v int64
	if err := s.db.QueryRowContext(ctx, `SELECT version FROM campus_meta WHERE id = 1`).Scan(&v); err != nil {
		return 0, fmt.Errorf("sqlite: version: %w", err)
	}
	return v, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
