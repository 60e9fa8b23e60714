package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/meikuraledutech/campusnav"
)

// AddPath inserts a single directed path.
// Endpoints are not checked against existing nodes. Returns the path ID.
func (s *PGStore) AddPath(ctx context.Context, p *campusnav.Path) (int64, error) {
	err := s.write(ctx, func(tx pgx.Tx) error {
		return insertPath(ctx, tx, p)
	})
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}

// AddPaths inserts several paths in one transaction. Returns their IDs in
// order; nothing is stored if any insert fails.
func (s *PGStore) AddPaths(ctx context.Context, ps []campusnav.Path) ([]int64, error) {
	batch := append([]campusnav.Path(nil), ps...)
	err := s.write(ctx, func(tx pgx.Tx) error {
		for i := range batch {
			if err := insertPath(ctx, tx, &batch[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(batch))
	for i, p := range batch {
		ids[i] = p.ID
	}
	return ids, nil
}

func insertPath(ctx context.Context, tx pgx.Tx, p *campusnav.Path) error {
	if !p.Source.Kind.Valid() || !p.Destination.Kind.Valid() {
		return fmt.Errorf("campusnav: insert path: invalid endpoint kind")
	}
	*p = p.WithDefaults()

	if p.ID == 0 {
		err := tx.QueryRow(ctx,
			`INSERT INTO paths (source_kind, source_id, destination_kind, destination_id, distance, path_type, accessibility)
			 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING path_id`,
			p.Source.Kind.String(), p.Source.ID, p.Destination.Kind.String(), p.Destination.ID,
			p.Distance, p.PathType, p.Accessible,
		).Scan(&p.ID)
		if err != nil {
			return fmt.Errorf("campusnav: insert path: %w", err)
		}
		return nil
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO paths (path_id, source_kind, source_id, destination_kind, destination_id, distance, path_type, accessibility)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.Source.Kind.String(), p.Source.ID, p.Destination.Kind.String(), p.Destination.ID,
		p.Distance, p.PathType, p.Accessible,
	); err != nil {
		return fmt.Errorf("campusnav: insert path %d: %w", p.ID, err)
	}
	return syncIdentity(ctx, tx, "paths", "path_id")
}

// ListPaths returns all paths ordered by id.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListPaths(ctx context.Context) ([]campusnav.Path, error) {
	rows, err := s.db.Query(ctx,
		`SELECT path_id, source_kind, source_id, destination_kind, destination_id, distance, path_type, accessibility
		 FROM paths ORDER BY path_id`)
	if err != nil {
		return nil, fmt.Errorf("campusnav: list paths: %w", err)
	}
	defer rows.Close()

	paths := []campusnav.Path{}
	for rows.Next() {
		var p campusnav.Path
		var srcKind, destKind string
		if err := rows.Scan(&p.ID, &srcKind, &p.Source.ID, &destKind, &p.Destination.ID,
			&p.Distance, &p.PathType, &p.Accessible); err != nil {
			return nil, fmt.Errorf("campusnav: scan path: %w", err)
		}
		if p.Source.Kind, err = campusnav.ParseKind(srcKind); err != nil {
			return nil, fmt.Errorf("campusnav: path %d: %w", p.ID, err)
		}
		if p.Destination.Kind, err = campusnav.ParseKind(destKind); err != nil {
			return nil, fmt.Errorf("campusnav: path %d: %w", p.ID, err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("campusnav: rows paths: %w", err)
	}

	return paths, nil
}

// DeletePath deletes a path by its ID.
// Returns ErrPathNotFound if the path doesn't exist.
func (s *PGStore) DeletePath(ctx context.Context, id int64) error {
	return s.deleteRow(ctx, `DELETE FROM paths WHERE path_id = $1`, id, campusnav.ErrPathNotFound)
}
