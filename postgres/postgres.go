package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meikuraledutech/campusnav"
)

// PGStore implements campusnav.Store using PostgreSQL via pgx.
type PGStore struct {
	db *pgxpool.Pool
}

var (
	_ campusnav.Store    = (*PGStore)(nil)
	_ campusnav.Importer = (*PGStore)(nil)
)

// New creates a new PGStore backed by the given pgx connection pool.
func New(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

// write runs fn in a transaction and bumps the data version in the same
// transaction.
func (s *PGStore) write(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("campusnav: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE campus_meta SET version = version + 1 WHERE id = 1`); err != nil {
		return fmt.Errorf("campusnav: bump version: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("campusnav: commit: %w", err)
	}
	return nil
}

// deleteRow deletes by id and returns notFound when no row matched.
func (s *PGStore) deleteRow(ctx context.Context, query string, id int64, notFound error) error {
	return s.write(ctx, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, query, id)
		if err != nil {
			return fmt.Errorf("campusnav: delete: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return notFound
		}
		return nil
	})
}

// Version returns the data generation.
func (s *PGStore) Version(ctx context.Context) (int64, error) {
	var v int64
	if err := s.db.QueryRow(ctx, `SELECT version FROM campus_meta WHERE id = 1`).Scan(&v); err != nil {
		return 0, fmt.Errorf("campusnav: version: %w", err)
	}
	return v, nil
}

// isNoRows checks if the error is a "no rows" error from pgx.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
