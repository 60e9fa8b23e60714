package graph

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/meikuraledutech/campusnav"
)

// Mode selects what the builder does with bad records.
type Mode int

const (
	// Lenient skips bad records, counts them in the report and logs a warning.
	Lenient Mode = iota
	// Strict aborts the build on the first bad record.
	Strict
)

func (m Mode) String() string {
	if m == Strict {
		return "strict"
	}
	return "lenient"
}

// ParseMode parses "lenient" or "strict". The empty string is Lenient.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lenient":
		return Lenient, nil
	case "strict":
		return Strict, nil
	}
	return Lenient, fmt.Errorf("graph: unknown build mode %q", s)
}

// Input is the snapshot of store records a graph is built from.
type Input struct {
	Buildings []campusnav.Building
	Waypoints []campusnav.Waypoint
	Paths     []campusnav.Path
}

// BuildOptions tune a build. The zero value builds leniently with every path.
type BuildOptions struct {
	Mode Mode
	// AccessibleOnly drops paths not flagged accessible.
	AccessibleOnly bool
	Logger         *slog.Logger
}

// BuildReport counts what the builder left out.
type BuildReport struct {
	Nodes           int `json:"nodes"`
	Edges           int `json:"edges"`
	DuplicateNodes  int `json:"duplicate_nodes"`
	InvalidWeights  int `json:"invalid_weights"`
	DanglingPaths   int `json:"dangling_paths"`
	InaccessibleCut int `json:"inaccessible_paths"`
}

// Skipped returns the number of records dropped as bad data. Paths left out by
// the accessibility filter are not bad data and are not counted.
func (r BuildReport) Skipped() int {
	return r.DuplicateNodes + r.InvalidWeights + r.DanglingPaths
}

// Build materializes a Graph from the input records. Every building and
// waypoint becomes a node and every path whose endpoints both resolve becomes
// one directed edge weighted by its distance.
func Build(in Input, opts BuildOptions) (*Graph, BuildReport, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	g := New()
	var rep BuildReport

	// skip reports whether a bad record may be dropped; in strict mode it
	// never is.
	skip := func(err error, attrs ...any) bool {
		if opts.Mode == Strict {
			return false
		}
		log.Warn("graph: skipping record", append(attrs, "error", err)...)
		return true
	}

	for _, b := range in.Buildings {
		err := g.AddNode(Node{
			ID:        b.Node(),
			Name:      b.Name,
			Code:      b.Code,
			Latitude:  b.Latitude,
			Longitude: b.Longitude,
		})
		if err != nil {
			if !skip(err, "building_id", b.ID) {
				return nil, rep, fmt.Errorf("graph: build: %w", err)
			}
			rep.DuplicateNodes++
		}
	}

	for _, w := range in.Waypoints {
		err := g.AddNode(Node{
			ID:        w.Node(),
			Name:      w.Name,
			Code:      w.Code,
			Latitude:  w.Latitude,
			Longitude: w.Longitude,
		})
		if err != nil {
			if !skip(err, "waypoint_id", w.ID) {
				return nil, rep, fmt.Errorf("graph: build: %w", err)
			}
			rep.DuplicateNodes++
		}
	}

	for _, p := range in.Paths {
		if opts.AccessibleOnly && !p.Accessible {
			rep.InaccessibleCut++
			continue
		}
		err := g.AddEdge(p.Source, p.Destination, p.Distance)
		if err == nil {
			continue
		}
		if !skip(err, "path_id", p.ID) {
			if errors.Is(err, ErrUnknownNode) {
				return nil, rep, fmt.Errorf("graph: build: path %d: %w: %v", p.ID, ErrDanglingPath, err)
			}
			return nil, rep, fmt.Errorf("graph: build: path %d: %w", p.ID, err)
		}
		switch {
		case errors.Is(err, ErrInvalidWeight):
			rep.InvalidWeights++
		case errors.Is(err, ErrUnknownNode):
			rep.DanglingPaths++
		}
	}

	rep.Nodes = g.Len()
	rep.Edges = g.EdgeCount()
	return g, rep, nil
}
