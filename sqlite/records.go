package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/meikuraledutech/campusnav"
)

// AddBuilding inserts b. If b.ID is zero an id is assigned.
func (s *Store) AddBuilding(ctx context.Context, b *campusnav.Building) (int64, error) {
	if err := s.write(ctx, func(tx *sql.Tx) error { return insertBuilding(ctx, tx, b) }); err != nil {
		return 0, err
	}
	return b.ID, nil
}

func insertBuilding(ctx context.Context, tx *sql.Tx, b *campusnav.Building) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO buildings (building_id, name, code, latitude, longitude, description, floor_count)
		 VALUES (NULLIF(?, 0), ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.Code, b.Latitude, b.Longitude, b.Description, b.FloorCount,
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert building: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: insert building: %w", err)
	}
	b.ID = id
	return nil
}

// GetBuilding returns nil, nil if not found.
func (s *Store) GetBuilding(ctx context.Context, id int64) (*campusnav.Building, error) {
	var b campusnav.Building
	err := s.db.QueryRowContext(ctx,
		`SELECT building_id, name, COALESCE(code, ''), latitude, longitude, description, floor_count
		 FROM buildings WHERE building_id = ?`, id,
	).Scan(&b.ID, &b.Name, &b.Code, &b.Latitude, &b.Longitude, &b.Description, &b.FloorCount)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite: get building: %w", err)
	}
	return &b, nil
}

// ListBuildings returns all buildings ordered by id.
func (s *Store) ListBuildings(ctx context.Context) ([]campusnav.Building, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT building_id, name, COALESCE(code, ''), latitude, longitude, description, floor_count
		 FROM buildings ORDER BY building_id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list buildings: %w", err)
	}
	defer rows.Close()

	out := []campusnav.Building{}
	for rows.Next() {
		var b campusnav.Building
		if err := rows.Scan(&b.ID, &b.Name, &b.Code, &b.Latitude, &b.Longitude, &b.Description, &b.FloorCount); err != nil {
			return nil, fmt.Errorf("sqlite: scan building: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: rows buildings: %w", err)
	}
	return out, nil
}

// DeleteBuilding deletes a building. Paths referencing it are kept.
func (s *Store) DeleteBuilding(ctx context.Context, id int64) error {
	return s.deleteRow(ctx, `DELETE FROM buildings WHERE building_id = ?`, id, campusnav.ErrBuildingNotFound)
}

// AddWaypoint inserts w. If w.ID is zero an id is assigned.
func (s *Store) AddWaypoint(ctx context.Context, w *campusnav.Waypoint) (int64, error) {
	if err := s.write(ctx, func(tx *sql.Tx) error { return insertWaypoint(ctx, tx, w) }); err != nil {
		return 0, err
	}
	return w.ID, nil
}

func insertWaypoint(ctx context.Context, tx *sql.Tx, w *campusnav.Waypoint) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO waypoints (waypoint_id, name, code, latitude, longitude, waypoint_type, description)
		 VALUES (NULLIF(?, 0), ?, ?, ?, ?, ?, ?)`,
		w.ID, w.Name, w.Code, w.Latitude, w.Longitude, w.WaypointType, w.Description,
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert waypoint: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: insert waypoint: %w", err)
	}
	w.ID = id
	return nil
}

// GetWaypoint returns nil, nil if not found.
func (s *Store) GetWaypoint(ctx context.Context, id int64) (*campusnav.Waypoint, error) {
	var w campusnav.Waypoint
	err := s.db.QueryRowContext(ctx,
		`SELECT waypoint_id, name, code, latitude, longitude, waypoint_type, description
		 FROM waypoints WHERE waypoint_id = ?`, id,
	).Scan(&w.ID, &w.Name, &w.Code, &w.Latitude, &w.Longitude, &w.WaypointType, &w.Description)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite: get waypoint: %w", err)
	}
	return &w, nil
}

// ListWaypoints returns all waypoints ordered by id.
func (s *Store) ListWaypoints(ctx context.Context) ([]campusnav.Waypoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT waypoint_id, name, code, latitude, longitude, waypoint_type, description
		 FROM waypoints ORDER BY waypoint_id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list waypoints: %w", err)
	}
	defer rows.Close()

	out := []campusnav.Waypoint{}
	for rows.Next() {
		var w campusnav.Waypoint
		if err := rows.Scan(&w.ID, &w.Name, &w.Code, &w.Latitude, &w.Longitude, &w.WaypointType, &w.Description); err != nil {
			return nil, fmt.Errorf("sqlite: scan waypoint: %w", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: rows waypoints: %w", err)
	}
	return out, nil
}

// DeleteWaypoint deletes a waypoint. Paths referencing it are kept.
func (s *Store) DeleteWaypoint(ctx context.Context, id int64) error {
	return s.deleteRow(ctx, `DELETE FROM waypoints WHERE waypoint_id = ?`, id, campusnav.ErrWaypointNotFound)
}

// AddPath inserts p. Endpoints are not checked against existing nodes. An
// empty PathType is stored as walkway.
func (s *Store) AddPath(ctx context.Context, p *campusnav.Path) (int64, error) {
	if err := s.write(ctx, func(tx *sql.Tx) error { return insertPath(ctx, tx, p) }); err != nil {
		return 0, err
	}
	return p.ID, nil
}

// AddPaths inserts ps in one transaction.
func (s *Store) AddPaths(ctx context.Context, ps []campusnav.Path) ([]int64, error) {
	batch := append([]campusnav.Path(nil), ps...)
	err := s.write(ctx, func(tx *sql.Tx) error {
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

func insertPath(ctx context.Context, tx *sql.Tx, p *campusnav.Path) error {
	if !p.Source.Kind.Valid() || !p.Destination.Kind.Valid() {
		return fmt.Errorf("sqlite: insert path: invalid endpoint kind")
	}
	*p = p.WithDefaults()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO paths (path_id, source_kind, source_id, destination_kind, destination_id, distance, path_type, accessibility)
		 VALUES (NULLIF(?, 0), ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Source.Kind.String(), p.Source.ID, p.Destination.Kind.String(), p.Destination.ID,
		p.Distance, p.PathType, p.Accessible,
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert path: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: insert path: %w", err)
	}
	p.ID = id
	return nil
}

// ListPaths returns all paths ordered by id.
func (s *Store) ListPaths(ctx context.Context) ([]campusnav.Path, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path_id, source_kind, source_id, destination_kind, destination_id, distance, path_type, accessibility
		 FROM paths ORDER BY path_id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list paths: %w", err)
	}
	defer rows.Close()

	out := []campusnav.Path{}
	for rows.Next() {
		var p campusnav.Path
		var srcKind, destKind string
		if err := rows.Scan(&p.ID, &srcKind, &p.Source.ID, &destKind, &p.Destination.ID,
			&p.Distance, &p.PathType, &p.Accessible); err != nil {
			return nil, fmt.Errorf("sqlite: scan path: %w", err)
		}
		if p.Source.Kind, err = campusnav.ParseKind(srcKind); err != nil {
			return nil, fmt.Errorf("sqlite: path %d: %w", p.ID, err)
		}
		if p.Destination.Kind, err = campusnav.ParseKind(destKind); err != nil {
			return nil, fmt.Errorf("sqlite: path %d: %w", p.ID, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: rows paths: %w", err)
	}
	return out, nil
}

// DeletePath deletes a path.
func (s *Store) DeletePath(ctx context.Context, id int64) error {
	return s.deleteRow(ctx, `DELETE FROM paths WHERE path_id = ?`, id, campusnav.ErrPathNotFound)
}
