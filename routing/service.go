// Package routing answers route requests between campus buildings. Each
// request runs graph build, shortest-path search and itinerary assembly in
// sequence; with caching enabled the built graph is reused until the store's
// data version changes.
package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/meikuraledutech/campusnav"
	"github.com/meikuraledutech/campusnav/geoindex"
	"github.com/meikuraledutech/campusnav/graph"
	"github.com/meikuraledutech/campusnav/metrics"
	"github.com/meikuraledutech/campusnav/route"
)

// ErrInvalidRequest reports a malformed route request.
var ErrInvalidRequest = errors.New("routing: invalid request")

// Request asks for a walking route between two buildings.
type Request struct {
	StartBuildingID int64 `json:"start_building_id"`
	EndBuildingID   int64 `json:"end_building_id"`
	// AccessibleOnly restricts the route to paths flagged accessible.
	AccessibleOnly bool `json:"accessible_only"`
}

// Endpoint describes the start or end building of a route.
type Endpoint struct {
	BuildingID int64   `json:"building_id"`
	Name       string  `json:"name"`
	Code       string  `json:"code"`
	Latitude   float64 `json:"lat"`
	Longitude  float64 `json:"lng"`
}

// Result is a found route.
type Result struct {
	Start Endpoint `json:"start"`
	End   Endpoint `json:"end"`
	*route.Itinerary
}

// Options configure a Service.
type Options struct {
	Mode         graph.Mode
	WalkingSpeed float64
	// Cache reuses built graphs while the store version is unchanged.
	Cache bool
	// Timeout bounds the store reads of one request. Zero means no bound.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Service orchestrates Builder -> Engine -> Assembler.
type Service struct {
	store     campusnav.Store
	assembler route.Assembler
	mode      graph.Mode
	cache     *GraphCache
	timeout   time.Duration
	log       *slog.Logger
}

// New creates a Service reading from store.
func New(store campusnav.Store, opts Options) *Service {
	s := &Service{
		store:     store,
		assembler: route.Assembler{WalkingSpeed: opts.WalkingSpeed},
		mode:      opts.Mode,
		timeout:   opts.Timeout,
		log:       opts.Logger,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if opts.Cache {
		s.cache = NewGraphCache()
	}
	return s
}

// Route computes the shortest walking route for req.
//
// It returns ErrInvalidRequest for missing ids and an error wrapping
// graph.ErrUnknownNode when either id is not a building. A strict build over
// bad data fails with graph.ErrDanglingPath or another build error. When the
// buildings are not connected it returns nil, nil.
func (s *Service) Route(ctx context.Context, req Request) (*Result, error) {
	res, err := s.route(ctx, req)
	metrics.RoutesTotal.WithLabelValues(outcome(res, err)).Inc()
	return res, err
}

func (s *Service) route(ctx context.Context, req Request) (*Result, error) {
	if req.StartBuildingID <= 0 || req.EndBuildingID <= 0 {
		return nil, fmt.Errorf("%w: start and end buildings required", ErrInvalidRequest)
	}

	snap, err := s.load(ctx, req.AccessibleOnly)
	if err != nil {
		return nil, err
	}
	g := snap.graph

	start := campusnav.BuildingNode(req.StartBuildingID)
	end := campusnav.BuildingNode(req.EndBuildingID)
	for _, id := range []campusnav.NodeID{start, end} {
		if !g.Has(id) {
			return nil, fmt.Errorf("routing: %w: building %d", graph.ErrUnknownNode, id.ID)
		}
	}

	p, err := graph.ShortestPath(g, start, end)
	if err != nil {
		return nil, fmt.Errorf("routing: %w", err)
	}
	if p == nil {
		s.log.Info("routing: no route", "start", req.StartBuildingID, "end", req.EndBuildingID,
			"accessible_only", req.AccessibleOnly)
		return nil, nil
	}

	it, err := s.assembler.Assemble(g, p)
	if err != nil {
		return nil, fmt.Errorf("routing: %w", err)
	}

	startNode, _ := g.Node(start)
	endNode, _ := g.Node(end)
	s.log.Info("routing: route found", "start", req.StartBuildingID, "end", req.EndBuildingID,
		"distance", it.TotalDistance, "nodes", len(it.Steps))

	return &Result{
		Start:     endpoint(startNode),
		End:       endpoint(endNode),
		Itinerary: it,
	}, nil
}

// Nearest returns up to k nodes closest to the coordinate. A zero kind
// matches buildings and waypoints.
func (s *Service) Nearest(ctx context.Context, lat, lon float64, k int, kind campusnav.Kind) ([]geoindex.Match, error) {
	snap, err := s.load(ctx, false)
	if err != nil {
		return nil, err
	}
	return snap.index.Nearest(lat, lon, k, kind), nil
}

// Graph returns the routing graph the next request would use, with the
// report of its build.
func (s *Service) Graph(ctx context.Context, accessibleOnly bool) (*graph.Graph, graph.BuildReport, error) {
	snap, err := s.load(ctx, accessibleOnly)
	if err != nil {
		return nil, graph.BuildReport{}, err
	}
	return snap.graph, snap.report, nil
}

// Invalidate drops cached graphs. Call it after the store's version counter
// restarts, as it does when the schema is dropped and created again.
func (s *Service) Invalidate() {
	if s.cache != nil {
		s.cache.Invalidate()
	}
}

// load returns a built graph, from the cache when it is current.
func (s *Service) load(ctx context.Context, accessibleOnly bool) (*snapshot, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var version int64
	if s.cache != nil {
		// Read the version before the records: a write racing the read leaves
		// a snapshot tagged older than its data, which is rebuilt next time.
		v, err := s.store.Version(ctx)
		if err != nil {
			return nil, fmt.Errorf("routing: read version: %w", err)
		}
		version = v
		if snap := s.cache.get(accessibleOnly, version); snap != nil {
			metrics.GraphCacheLookups.WithLabelValues("hit").Inc()
			return snap, nil
		}
		metrics.GraphCacheLookups.WithLabelValues("miss").Inc()
	}

	snap, err := s.build(ctx, accessibleOnly)
	if err != nil {
		return nil, err
	}
	snap.version = version

	if s.cache != nil {
		s.cache.put(accessibleOnly, snap)
	}
	return snap, nil
}

func (s *Service) build(ctx context.Context, accessibleOnly bool) (*snapshot, error) {
	began := time.Now()
	defer func() { metrics.GraphBuildDuration.Observe(time.Since(began).Seconds()) }()

	buildings, err := s.store.ListBuildings(ctx)
	if err != nil {
		return nil, fmt.Errorf("routing: list buildings: %w", err)
	}
	waypoints, err := s.store.ListWaypoints(ctx)
	if err != nil {
		return nil, fmt.Errorf("routing: list waypoints: %w", err)
	}
	paths, err := s.store.ListPaths(ctx)
	if err != nil {
		return nil, fmt.Errorf("routing: list paths: %w", err)
	}

	g, rep, err := graph.Build(graph.Input{
		Buildings: buildings,
		Waypoints: waypoints,
		Paths:     paths,
	}, graph.BuildOptions{
		Mode:           s.mode,
		AccessibleOnly: accessibleOnly,
		Logger:         s.log,
	})
	if err != nil {
		return nil, fmt.Errorf("routing: %w", err)
	}

	metrics.GraphSkippedRecords.WithLabelValues("duplicate_node").Add(float64(rep.DuplicateNodes))
	metrics.GraphSkippedRecords.WithLabelValues("invalid_weight").Add(float64(rep.InvalidWeights))
	metrics.GraphSkippedRecords.WithLabelValues("dangling_path").Add(float64(rep.DanglingPaths))
	if rep.Skipped() > 0 {
		s.log.Warn("routing: graph built with skipped records",
			"duplicate_nodes", rep.DuplicateNodes,
			"invalid_weights", rep.InvalidWeights,
			"dangling_paths", rep.DanglingPaths)
	}

	return &snapshot{graph: g, index: geoindex.FromGraph(g), report: rep}, nil
}

func endpoint(n graph.Node) Endpoint {
	return Endpoint{
		BuildingID: n.ID.ID,
		Name:       n.Name,
		Code:       n.Code,
		Latitude:   n.Latitude,
		Longitude:  n.Longitude,
	}
}

func outcome(res *Result, err error) string {
	switch {
	case err == nil && res != nil:
		return "found"
	case err == nil:
		return "no_route"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid"
	case errors.Is(err, graph.ErrUnknownNode):
		return "unknown_building"
	default:
		return "error"
	}
}
