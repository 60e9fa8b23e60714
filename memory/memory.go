// Package memory implements campusnav.Store in process memory. It backs the
// demo and the tests, and serves a campus file without a database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/meikuraledutech/campusnav"
)

// Store is a concurrency-safe in-memory campusnav.Store.
type Store struct {
	mu        sync.RWMutex
	buildings map[int64]campusnav.Building
	waypoints map[int64]campusnav.Waypoint
	paths     map[int64]campusnav.Path
	nextID    struct{ building, waypoint, path int64 }
	version   int64
}

var (
	_ campusnav.Store    = (*Store)(nil)
	_ campusnav.Importer = (*Store)(nil)
)

// New returns an empty store.
func New() *Store {
	s := &Store{}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.buildings = make(map[int64]campusnav.Building)
	s.waypoints = make(map[int64]campusnav.Waypoint)
	s.paths = make(map[int64]campusnav.Path)
	s.nextID.building, s.nextID.waypoint, s.nextID.path = 0, 0, 0
}

// CreateSchema is a no-op; the maps always exist.
func (s *Store) CreateSchema(ctx context.Context) error { return nil }

// DropSchema removes every record.
func (s *Store) DropSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	s.version++
	return nil
}

// assignID returns id when set, else the next free id. Explicit ids move the
// counter past them.
func assignID(id int64, next *int64) int64 {
	if id == 0 {
		*next++
		return *next
	}
	if id > *next {
		*next = id
	}
	return id
}

// AddBuilding inserts b. An empty ID is auto-assigned.
func (s *Store) AddBuilding(ctx context.Context, b *campusnav.Building) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.buildings[b.ID]; ok && b.ID != 0 {
		return 0, fmt.Errorf("memory: building %d already exists", b.ID)
	}
	b.ID = assignID(b.ID, &s.nextID.building)
	s.buildings[b.ID] = *b
	s.version++
	return b.ID, nil
}

// GetBuilding returns nil, nil if not found.
func (s *Store) GetBuilding(ctx context.Context, id int64) (*campusnav.Building, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.buildings[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

// ListBuildings returns buildings ordered by id.
func (s *Store) ListBuildings(ctx context.Context) ([]campusnav.Building, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]campusnav.Building, 0, len(s.buildings))
	for _, b := range s.buildings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DeleteBuilding removes a building. Its paths are kept.
func (s *Store) DeleteBuilding(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.buildings[id]; !ok {
		return campusnav.ErrBuildingNotFound
	}
	delete(s.buildings, id)
	s.version++
	return nil
}

// AddWaypoint inserts w. An empty ID is auto-assigned.
func (s *Store) AddWaypoint(ctx context.Context, w *campusnav.Waypoint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.waypoints[w.ID]; ok && w.ID != 0 {
		return 0, fmt.Errorf("memory: waypoint %d already exists", w.ID)
	}
	w.ID = assignID(w.ID, &s.nextID.waypoint)
	s.waypoints[w.ID] = *w
	s.version++
	return w.ID, nil
}

// GetWaypoint returns nil, nil if not found.
func (s *Store) GetWaypoint(ctx context.Context, id int64) (*campusnav.Waypoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.waypoints[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

// ListWaypoints returns waypoints ordered by id.
func (s *Store) ListWaypoints(ctx context.Context) ([]campusnav.Waypoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]campusnav.Waypoint, 0, len(s.waypoints))
	for _, w := range s.waypoints {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DeleteWaypoint removes a waypoint. Its paths are kept.
func (s *Store) DeleteWaypoint(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.waypoints[id]; !ok {
		return campusnav.ErrWaypointNotFound
	}
	delete(s.waypoints, id)
	s.version++
	return nil
}

// AddPath inserts p. Endpoints are not checked. An empty PathType is stored
// as walkway.
func (s *Store) AddPath(ctx context.Context, p *campusnav.Path) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.insertPaths([]campusnav.Path{*p})
	if err != nil {
		return 0, err
	}
	*p = stored[0]
	return p.ID, nil
}

// AddPaths inserts ps together. A duplicate id rejects the whole batch.
func (s *Store) AddPaths(ctx context.Context, ps []campusnav.Path) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.insertPaths(ps)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(stored))
	for i, p := range stored {
		ids[i] = p.ID
	}
	return ids, nil
}

// insertPaths stages ps and commits them only if every id is free. The caller
// holds s.mu.
func (s *Store) insertPaths(ps []campusnav.Path) ([]campusnav.Path, error) {
	next := s.nextID.path
	staged := make([]campusnav.Path, 0, len(ps))
	taken := make(map[int64]bool, len(ps))
	for _, p := range ps {
		p = p.WithDefaults()
		if _, ok := s.paths[p.ID]; (ok || taken[p.ID]) && p.ID != 0 {
			return nil, fmt.Errorf("memory: path %d already exists", p.ID)
		}
		p.ID = assignID(p.ID, &next)
		if taken[p.ID] {
			return nil, fmt.Errorf("memory: path %d already exists", p.ID)
		}
		taken[p.ID] = true
		staged = append(staged, p)
	}

	for _, p := range staged {
		s.paths[p.ID] = p
	}
	s.nextID.path = next
	s.version++
	return staged, nil
}

// ListPaths returns paths ordered by id.
func (s *Store) ListPaths(ctx context.Context) ([]campusnav.Path, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]campusnav.Path, 0, len(s.paths))
	for _, p := range s.paths {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DeletePath removes a path.
func (s *Store) DeletePath(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.paths[id]; !ok {
		return campusnav.ErrPathNotFound
	}
	delete(s.paths, id)
	s.version++
	return nil
}

// Version returns the number of writes so far.
func (s *Store) Version(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version, nil
}

// ReplaceCampus swaps every record for the contents of c in one step.
// Assigned ids are written back into c on success. On error neither the store
// nor c is changed.
func (s *Store) ReplaceCampus(ctx context.Context, c *campusnav.Campus) error {
	work := campusnav.Campus{
		Buildings: append([]campusnav.Building(nil), c.Buildings...),
		Waypoints: append([]campusnav.Waypoint(nil), c.Waypoints...),
		Paths:     append([]campusnav.Path(nil), c.Paths...),
	}

	next := New()
	for i := range work.Buildings {
		if _, err := next.AddBuilding(ctx, &work.Buildings[i]); err != nil {
			return err
		}
	}
	for i := range work.Waypoints {
		if _, err := next.AddWaypoint(ctx, &work.Waypoints[i]); err != nil {
			return err
		}
	}
	for i := range work.Paths {
		if _, err := next.AddPath(ctx, &work.Paths[i]); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.buildings, s.waypoints, s.paths = next.buildings, next.waypoints, next.paths
	s.nextID = next.nextID
	s.version++
	s.mu.Unlock()

	copy(c.Buildings, work.Buildings)
	copy(c.Waypoints, work.Waypoints)
	copy(c.Paths, work.Paths)
	return nil
}
