// Package route turns a raw shortest path into the itinerary shown to a
// walker: ordered steps, directions, distance and time estimate.
package route

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/meikuraledutech/campusnav"
	"github.com/meikuraledutech/campusnav/graph"
)

// DefaultWalkingSpeed is an average pedestrian pace in meters per second.
const DefaultWalkingSpeed = 1.4

// ErrBrokenPath means the path does not match the graph it was computed on.
// It signals a programming error, never bad user input.
var ErrBrokenPath = errors.New("route: path does not match graph")

// Step is one node of the route.
type Step struct {
	Sequence       int            `json:"sequence"`
	Kind           campusnav.Kind `json:"type"`
	ID             int64          `json:"id"`
	Name           string         `json:"name"`
	Code           string         `json:"code"`
	Latitude       float64        `json:"lat"`
	Longitude      float64        `json:"lng"`
	DistanceToNext float64        `json:"distance_to_next"`
}

// Direction is one human-readable instruction.
type Direction struct {
	Step        int     `json:"step"`
	Instruction string  `json:"instruction"`
	Distance    float64 `json:"distance"`
}

// Itinerary is the assembled route.
type Itinerary struct {
	Steps            []Step      `json:"route"`
	TotalDistance    float64     `json:"total_distance"`
	EstimatedMinutes int         `json:"estimated_time_minutes"`
	WaypointCount    int         `json:"waypoints_count"`
	Directions       []Direction `json:"directions"`
}

// Assembler builds itineraries. The zero value walks at DefaultWalkingSpeed.
type Assembler struct {
	// WalkingSpeed in meters per second.
	WalkingSpeed float64
}

// Assemble converts p, computed on g, into an itinerary. Segment weights are
// taken from p and checked against the edges of g.
func (a Assembler) Assemble(g *graph.Graph, p *graph.Path) (*Itinerary, error) {
	if p == nil || len(p.Nodes) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrBrokenPath)
	}
	if len(p.Segments) != len(p.Nodes)-1 {
		return nil, fmt.Errorf("%w: %d nodes but %d segments", ErrBrokenPath, len(p.Nodes), len(p.Segments))
	}

	it := &Itinerary{
		Steps:      make([]Step, 0, len(p.Nodes)),
		Directions: make([]Direction, 0, len(p.Nodes)+1),
	}

	resolved := make([]graph.Node, len(p.Nodes))
	for i, id := range p.Nodes {
		n, ok := g.Node(id)
		if !ok {
			return nil, fmt.Errorf("%w: node %s not in graph", ErrBrokenPath, id)
		}
		resolved[i] = n
	}

	total := 0.0
	for i, n := range resolved {
		step := Step{
			Sequence:  i + 1,
			Kind:      n.ID.Kind,
			ID:        n.ID.ID,
			Name:      n.Name,
			Code:      n.Code,
			Latitude:  n.Latitude,
			Longitude: n.Longitude,
		}
		if i < len(p.Segments) {
			w := p.Segments[i]
			if !g.HasEdge(n.ID, p.Nodes[i+1], w) {
				return nil, fmt.Errorf("%w: no edge %s -> %s weighing %v", ErrBrokenPath, n.ID, p.Nodes[i+1], w)
			}
			step.DistanceToNext = w
			total += w
		}
		if n.ID.Kind == campusnav.KindWaypoint {
			it.WaypointCount++
		}
		it.Steps = append(it.Steps, step)
	}

	start, end := resolved[0], resolved[len(resolved)-1]
	it.Directions = append(it.Directions, Direction{Step: 1, Instruction: "Start at " + start.Name})
	for i, w := range p.Segments {
		it.Directions = append(it.Directions, Direction{
			Step:        len(it.Directions) + 1,
			Instruction: "Walk " + formatMeters(w) + " towards " + resolved[i+1].Name,
			Distance:    round2(w),
		})
	}
	it.Directions = append(it.Directions, Direction{
		Step:        len(it.Directions) + 1,
		Instruction: "Arrive at " + end.Name,
	})

	it.TotalDistance = round2(total)
	it.EstimatedMinutes = a.Minutes(total)
	return it, nil
}

// Minutes estimates the walking time for meters, rounded to whole minutes.
// Any non-zero distance takes at least one minute.
func (a Assembler) Minutes(meters float64) int {
	if meters <= 0 {
		return 0
	}
	speed := a.WalkingSpeed
	if speed <= 0 {
		speed = DefaultWalkingSpeed
	}
	m := int(math.Round(meters / speed / 60))
	if m < 1 {
		m = 1
	}
	return m
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatMeters(v float64) string {
	return strconv.FormatFloat(round2(v), 'f', -1, 64) + "m"
}
