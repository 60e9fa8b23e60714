package campusnav

import (
	"context"
	"errors"
)

var (
	ErrBuildingNotFound = errors.New("campusnav: building not found")
	ErrWaypointNotFound = errors.New("campusnav: waypoint not found")
	ErrPathNotFound     = errors.New("campusnav: path not found")
)

// Store defines the contract for persisting and retrieving campus records.
//
// Get methods return nil, nil when the record does not exist. Delete methods
// return the matching ErrXxxNotFound when nothing was deleted. Stores apply
// Path.WithDefaults before saving a path. Deleting a
// building or waypoint leaves its paths in place; the graph builder skips
// paths whose endpoints no longer exist.
type Store interface {
	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// Buildings
	AddBuilding(ctx context.Context, b *Building) (int64, error)
	GetBuilding(ctx context.Context, id int64) (*Building, error)
	ListBuildings(ctx context.Context) ([]Building, error)
	DeleteBuilding(ctx context.Context, id int64) error

	// Waypoints
	AddWaypoint(ctx context.Context, w *Waypoint) (int64, error)
	GetWaypoint(ctx context.Context, id int64) (*Waypoint, error)
	ListWaypoints(ctx context.Context) ([]Waypoint, error)
	DeleteWaypoint(ctx context.Context, id int64) error

	// Paths
	AddPath(ctx context.Context, p *Path) (int64, error)
	// AddPaths inserts ps in one write; either all are stored or none.
	AddPaths(ctx context.Context, ps []Path) ([]int64, error)
	ListPaths(ctx context.Context) ([]Path, error)
	DeletePath(ctx context.Context, id int64) error

	// Version returns the data generation. It increases on every successful
	// write to buildings, waypoints or paths.
	Version(ctx context.Context) (int64, error)
}

// Importer is implemented by stores that can replace every record in one
// transaction.
type Importer interface {
	ReplaceCampus(ctx context.Context, c *Campus) error
}
