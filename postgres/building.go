package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/meikuraledutech/campusnav"
)

const buildingColumns = `building_id, name, COALESCE(code, ''), latitude, longitude, description, floor_count`

// AddBuilding inserts a single building.
// If b.ID is zero an id is generated. Returns the building ID.
func (s *PGStore) AddBuilding(ctx context.Context, b *campusnav.Building) (int64, error) {
	err := s.write(ctx, func(tx pgx.Tx) error {
		return insertBuilding(ctx, tx, b)
	})
	if err != nil {
		return 0, err
	}
	return b.ID, nil
}

func insertBuilding(ctx context.Context, tx pgx.Tx, b *campusnav.Building) error {
	if b.ID == 0 {
		err := tx.QueryRow(ctx,
			`INSERT INTO buildings (name, code, latitude, longitude, description, floor_count)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING building_id`,
			b.Name, b.Code, b.Latitude, b.Longitude, b.Description, b.FloorCount,
		).Scan(&b.ID)
		if err != nil {
			return fmt.Errorf("campusnav: insert building: %w", err)
		}
		return nil
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO buildings (building_id, name, code, latitude, longitude, description, floor_count)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		b.ID, b.Name, b.Code, b.Latitude, b.Longitude, b.Description, b.FloorCount,
	); err != nil {
		return fmt.Errorf("campusnav: insert building %d: %w", b.ID, err)
	}
	return syncIdentity(ctx, tx, "buildings", "building_id")
}

// GetBuilding fetches a single building by its ID.
// Returns nil, nil if not found.
func (s *PGStore) GetBuilding(ctx context.Context, id int64) (*campusnav.Building, error) {
	var b campusnav.Building
	err := s.db.QueryRow(ctx,
		`SELECT `+buildingColumns+` FROM buildings WHERE building_id = $1`, id,
	).Scan(&b.ID, &b.Name, &b.Code, &b.Latitude, &b.Longitude, &b.Description, &b.FloorCount)

	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("campusnav: get building: %w", err)
	}

	return &b, nil
}

// ListBuildings returns all buildings ordered by id.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListBuildings(ctx context.Context) ([]campusnav.Building, error) {
	rows, err := s.db.Query(ctx, `SELECT `+buildingColumns+` FROM buildings ORDER BY building_id`)
	if err != nil {
		return nil, fmt.Errorf("campusnav: list buildings: %w", err)
	}
	defer rows.Close()

	buildings := []campusnav.Building{}
	for rows.Next() {
		var b campusnav.Building
		if err := rows.Scan(&b.ID, &b.Name, &b.Code, &b.Latitude, &b.Longitude, &b.Description, &b.FloorCount); err != nil {
			return nil, fmt.Errorf("campusnav: scan building: %w", err)
		}
		buildings = append(buildings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("campusnav: rows buildings: %w", err)
	}

	return buildings, nil
}

// DeleteBuilding deletes a building by its ID.
// Paths that reference it are left in place.
// Returns ErrBuildingNotFound if the building doesn't exist.
func (s *PGStore) DeleteBuilding(ctx context.Context, id int64) error {
	return s.deleteRow(ctx, `DELETE FROM buildings WHERE building_id = $1`, id, campusnav.ErrBuildingNotFound)
}

// syncIdentity moves the identity sequence of table past explicitly inserted
// ids so later generated ids do not collide.
func syncIdentity(ctx context.Context, tx pgx.Tx, table, column string) error {
	_, err := tx.Exec(ctx, fmt.Sprintf(
		`SELECT setval(pg_get_serial_sequence('%[1]s', '%[2]s'), GREATEST((SELECT MAX(%[2]s) FROM %[1]s), 1))`,
		table, column))
	if err != nil {
		return fmt.Errorf("campusnav: sync %s identity: %w", table, err)
	}
	return nil
}
