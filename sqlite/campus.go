package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/meikuraledutech/campusnav"
)

var _ campusnav.Importer = (*Store)(nil)

// ReplaceCampus deletes every record and inserts c in a single transaction.
// Assigned ids are written back into c.
func (s *Store) ReplaceCampus(ctx context.Context, c *campusnav.Campus) error {
	return s.write(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"paths", "waypoints", "buildings"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("sqlite: clear %s: %w", table, err)
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
