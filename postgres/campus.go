package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/meikuraledutech/campusnav"
)

// ReplaceCampus saves a full campus (buildings, waypoints, paths) in one
// transaction, replacing whatever was stored before.
// Records without IDs get generated ones; c is updated with the final IDs.
func (s *PGStore) ReplaceCampus(ctx context.Context, c *campusnav.Campus) error {
	for i := range c.Paths {
		p := &c.Paths[i]
		if !p.Source.Kind.Valid() || !p.Destination.Kind.Valid() {
			return fmt.Errorf("campusnav: path %d: invalid endpoint kind", i)
		}
	}

	return s.write(ctx, func(tx pgx.Tx) error {
		// Replace semantics: clear existing rows first.
		for _, table := range []string{"paths", "waypoints", "buildings"} {
			if _, err := tx.Exec(ctx, `DELETE FROM `+table); err != nil {
				return fmt.Errorf("campusnav: delete %s: %w", table, err)
			}
		}

		for i := range c.Buildings {
			if err := insertBuilding(ctx, tx, &c.Buildings[i]); err != nil {
				return err
			}
		}
		for i := range c.Waypoints {
			if err := insertWaypoint(ctx, tx, &c.Waypoints[i]); err != nil {
				return err
			}
		}
		for i := range c.Paths {
			if err := insertPath(ctx, tx, &c.Paths[i]); err != nil {
				return err
			}
		}
		return nil
	})
}
