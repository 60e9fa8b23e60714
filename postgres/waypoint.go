package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/meikuraledutech/campusnav"
)

const waypointColumns = `waypoint_id, name, code, latitude, longitude, waypoint_type, description`

// AddWaypoint inserts a single waypoint.
// If w.ID is zero an id is generated. Returns the waypoint ID.
func (s *PGStore) AddWaypoint(ctx context.Context, w *campusnav.Waypoint) (int64, error) {
	err := s.write(ctx, func(tx pgx.Tx) error {
		return insertWaypoint(ctx, tx, w)
	})
	if err != nil {
		return 0, err
	}
	return w.ID, nil
}

func insertWaypoint(ctx context.Context, tx pgx.Tx, w *campusnav.Waypoint) error {
	if w.ID == 0 {
		err := tx.QueryRow(ctx,
			`INSERT INTO waypoints (name, code, latitude, longitude, waypoint_type, description)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING waypoint_id`,
			w.Name, w.Code, w.Latitude, w.Longitude, w.WaypointType, w.Description,
		).Scan(&w.ID)
		if err != nil {
			return fmt.Errorf("campusnav: insert waypoint: %w", err)
		}
		return nil
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO waypoints (waypoint_id, name, code, latitude, longitude, waypoint_type, description)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		w.ID, w.Name, w.Code, w.Latitude, w.Longitude, w.WaypointType, w.Description,
	); err != nil {
		return fmt.Errorf("campusnav: insert waypoint %d: %w", w.ID, err)
	}
	return syncIdentity(ctx, tx, "waypoints", "waypoint_id")
}

// GetWaypoint fetches a single waypoint by its ID.
// Returns nil, nil if not found.
func (s *PGStore) GetWaypoint(ctx context.Context, id int64) (*campusnav.Waypoint, error) {
	var w campusnav.Waypoint
	err := s.db.QueryRow(ctx,
		`SELECT `+waypointColumns+` FROM waypoints WHERE waypoint_id = $1`, id,
	).Scan(&w.ID, &w.Name, &w.Code, &w.Latitude, &w.Longitude, &w.WaypointType, &w.Description)

	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("campusnav: get waypoint: %w", err)
	}

	return &w, nil
}

// ListWaypoints returns all waypoints ordered by id.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListWaypoints(ctx context.Context) ([]campusnav.Waypoint, error) {
	rows, err := s.db.Query(ctx, `SELECT `+waypointColumns+` FROM waypoints ORDER BY waypoint_id`)
	if err != nil {
		return nil, fmt.Errorf("campusnav: list waypoints: %w", err)
	}
	defer rows.Close()

	waypoints := []campusnav.Waypoint{}
	for rows.Next() {
		var w campusnav.Waypoint
		if err := rows.Scan(&w.ID, &w.Name, &w.Code, &w.Latitude, &w.Longitude, &w.WaypointType, &w.Description); err != nil {
			return nil, fmt.Errorf("campusnav: scan waypoint: %w", err)
		}
		waypoints = append(waypoints, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("campusnav: rows waypoints: %w", err)
	}

	return waypoints, nil
}

// DeleteWaypoint deletes a waypoint by its ID.
// Paths that reference it are left in place.
// Returns ErrWaypointNotFound if the waypoint doesn't exist.
func (s *PGStore) DeleteWaypoint(ctx context.Context, id int64) error {
	return s.deleteRow(ctx, `DELETE FROM waypoints WHERE waypoint_id = $1`, id, campusnav.ErrWaypointNotFound)
}
