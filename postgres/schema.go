package postgres

import "context"

// Paths reference nodes by (kind, id) with no foreign keys: deleting a
// building or waypoint leaves its paths behind, and the graph builder skips
// them.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS buildings (
    building_id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
    name        VARCHAR(100) NOT NULL,
    code        VARCHAR(20),
    latitude    NUMERIC(10, 8) NOT NULL,
    longitude   NUMERIC(11, 8) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    floor_count INTEGER NOT NULL DEFAULT 1,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS waypoints (
    waypoint_id   BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
    name          VARCHAR(100) NOT NULL,
    code          VARCHAR(20) NOT NULL,
    latitude      DOUBLE PRECISION NOT NULL,
    longitude     DOUBLE PRECISION NOT NULL,
    waypoint_type VARCHAR(50) NOT NULL DEFAULT '',
    description   TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS paths (
    path_id          BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
    source_kind      TEXT NOT NULL CHECK (source_kind IN ('building', 'waypoint')),
    source_id        BIGINT NOT NULL,
    destination_kind TEXT NOT NULL CHECK (destination_kind IN ('building', 'waypoint')),
    destination_id   BIGINT NOT NULL,
    distance         DOUBLE PRECISION NOT NULL,
    path_type        VARCHAR(20) NOT NULL DEFAULT 'walkway',
    accessibility    BOOLEAN NOT NULL DEFAULT TRUE,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_paths_source      ON paths(source_kind, source_id);
CREATE INDEX IF NOT EXISTS idx_paths_destination ON paths(destination_kind, destination_id);

CREATE TABLE IF NOT EXISTS campus_meta (
    id      INTEGER PRIMARY KEY CHECK (id = 1),
    version BIGINT NOT NULL
);

INSERT INTO campus_meta (id, version) VALUES (1, 0) ON CONFLICT (id) DO NOTHING;
`

// CreateSchema creates the campus tables if they don't exist.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops the campus tables.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS paths, waypoints, buildings, campus_meta CASCADE;`)
	return err
}
