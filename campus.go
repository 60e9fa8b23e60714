package campusnav

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the two sorts of routable node.
type Kind uint8

const (
	KindBuilding Kind = iota + 1
	KindWaypoint
)

func (k Kind) String() string {
	switch k {
	case KindBuilding:
		return "building"
	case KindWaypoint:
		return "waypoint"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindBuilding || k == KindWaypoint
}

// MarshalText encodes the kind as "building" or "waypoint".
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("campusnav: invalid kind %d", k)
	}
	return []byte(k.String()), nil
}

// UnmarshalText accepts "building" or "waypoint" (case-insensitive).
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind parses the text form of a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "building":
		return KindBuilding, nil
	case "waypoint":
		return KindWaypoint, nil
	}
	return 0, fmt.Errorf("campusnav: unknown kind %q", s)
}

// NodeID identifies a node in the campus graph. Building 7 and waypoint 7 are
// different nodes.
type NodeID struct {
	Kind Kind  `json:"kind" yaml:"kind"`
	ID   int64 `json:"id" yaml:"id"`
}

// BuildingNode returns the NodeID of building id.
func BuildingNode(id int64) NodeID { return NodeID{Kind: KindBuilding, ID: id} }

// WaypointNode returns the NodeID of waypoint id.
func WaypointNode(id int64) NodeID { return NodeID{Kind: KindWaypoint, ID: id} }

func (n NodeID) String() string {
	return n.Kind.String() + ":" + strconv.FormatInt(n.ID, 10)
}

// Less orders node ids by kind, then id.
func (n NodeID) Less(o NodeID) bool {
	if n.Kind != o.Kind {
		return n.Kind < o.Kind
	}
	return n.ID < o.ID
}

// Building is a campus building.
type Building struct {
	ID          int64   `json:"building_id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Code        string  `json:"code" yaml:"code"`
	Latitude    float64 `json:"latitude" yaml:"latitude"`
	Longitude   float64 `json:"longitude" yaml:"longitude"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	FloorCount  int     `json:"floor_count,omitempty" yaml:"floor_count,omitempty"`
}

// Node returns the graph identity of the building.
func (b Building) Node() NodeID { return BuildingNode(b.ID) }

// Waypoint is a non-building routing point: an intersection, entrance or
// path junction.
type Waypoint struct {
	ID           int64   `json:"waypoint_id" yaml:"id"`
	Name         string  `json:"name" yaml:"name"`
	Code         string  `json:"code" yaml:"code"`
	Latitude     float64 `json:"latitude" yaml:"latitude"`
	Longitude    float64 `json:"longitude" yaml:"longitude"`
	WaypointType string  `json:"waypoint_type,omitempty" yaml:"waypoint_type,omitempty"`
	Description  string  `json:"description,omitempty" yaml:"description,omitempty"`
}

// Node returns the graph identity of the waypoint.
func (w Waypoint) Node() NodeID { return WaypointNode(w.ID) }

// Path types stored on Path.PathType.
const (
	PathWalkway  = "walkway"
	PathRoad     = "road"
	PathStairs   = "stairs"
	PathElevator = "elevator"
)

// Path is a directed walkable segment between two nodes. A segment that can be
// walked both ways is stored as two paths.
type Path struct {
	ID          int64   `json:"path_id" yaml:"id"`
	Source      NodeID  `json:"source" yaml:"source"`
	Destination NodeID  `json:"destination" yaml:"destination"`
	Distance    float64 `json:"distance" yaml:"distance"`
	PathType    string  `json:"path_type" yaml:"path_type"`
	Accessible  bool    `json:"accessibility" yaml:"accessible"`
}

// WithDefaults returns p with an empty PathType set to walkway.
func (p Path) WithDefaults() Path {
	if p.PathType == "" {
		p.PathType = PathWalkway
	}
	return p
}

// Reverse returns the same path walked the other way, without an ID.
func (p Path) Reverse() Path {
	r := p
	r.ID = 0
	r.Source, r.Destination = p.Destination, p.Source
	return r
}

// Campus is a complete set of campus records.
type Campus struct {
	Buildings []Building `json:"buildings" yaml:"buildings"`
	Waypoints []Waypoint `json:"waypoints" yaml:"waypoints"`
	Paths     []Path     `json:"paths" yaml:"paths"`
}
