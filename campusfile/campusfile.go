// Package campusfile reads a campus described in YAML and loads it into a
// store.
//
// Paths name their endpoints by building or waypoint code, or by an explicit
// "building:<id>" / "waypoint:<id>" reference:
//
//	buildings:
//	  - {code: MB, name: Main Block, latitude: 12.9716, longitude: 77.5946}
//	waypoints:
//	  - {code: W1, name: North Gate, latitude: 12.9720, longitude: 77.5950}
//	paths:
//	  - {from: MB, to: W1, accessible: true, bidirectional: true}
//
// A path without a distance gets the great-circle distance between its
// endpoints.
package campusfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/meikuraledutech/campusnav"
	"github.com/meikuraledutech/campusnav/geoindex"
)

// File is the on-disk layout.
type File struct {
	Buildings []campusnav.Building `yaml:"buildings"`
	Waypoints []campusnav.Waypoint `yaml:"waypoints"`
	Paths     []PathSpec           `yaml:"paths"`
}

// PathSpec is a path whose endpoints are given by reference.
type PathSpec struct {
	From          string   `yaml:"from"`
	To            string   `yaml:"to"`
	Distance      *float64 `yaml:"distance,omitempty"`
	Type          string   `yaml:"type,omitempty"`
	Accessible    bool     `yaml:"accessible"`
	Bidirectional bool     `yaml:"bidirectional"`
}

// Load reads and resolves the campus file at path.
func Load(path string) (*campusnav.Campus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("campusfile: %w", err)
	}
	defer f.Close()

	c, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("campusfile: %s: %w", path, err)
	}
	return c, nil
}

// Decode parses a campus file and resolves it into records. Unknown fields
// are rejected.
func Decode(r io.Reader) (*campusnav.Campus, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return f.Resolve()
}

// Resolve assigns missing ids in file order, resolves path references and
// fills in missing distances.
func (f *File) Resolve() (*campusnav.Campus, error) {
	c := &campusnav.Campus{
		Buildings: append([]campusnav.Building(nil), f.Buildings...),
		Waypoints: append([]campusnav.Waypoint(nil), f.Waypoints...),
	}

	type point struct{ lat, lon float64 }
	refMap := make(map[string]campusnav.NodeID)
	coords := make(map[campusnav.NodeID]point)

	register := func(code string, id campusnav.NodeID, p point) error {
		if _, dup := coords[id]; dup {
			return fmt.Errorf("duplicate %s", id)
		}
		coords[id] = p
		if code == "" {
			return nil
		}
		if prev, dup := refMap[code]; dup {
			return fmt.Errorf("code %q used by %s and %s", code, prev, id)
		}
		refMap[code] = id
		return nil
	}

	next := maxBuildingID(c.Buildings)
	for i := range c.Buildings {
		b := &c.Buildings[i]
		if b.ID == 0 {
			next++
			b.ID = next
		}
		if err := register(b.Code, b.Node(), point{b.Latitude, b.Longitude}); err != nil {
			return nil, err
		}
	}
	next = maxWaypointID(c.Waypoints)
	for i := range c.Waypoints {
		w := &c.Waypoints[i]
		if w.ID == 0 {
			next++
			w.ID = next
		}
		if err := register(w.Code, w.Node(), point{w.Latitude, w.Longitude}); err != nil {
			return nil, err
		}
	}

	resolve := func(ref string) (campusnav.NodeID, error) {
		if id, ok := refMap[ref]; ok {
			return id, nil
		}
		if id, ok := parseRef(ref); ok {
			if _, known := coords[id]; known {
				return id, nil
			}
		}
		return campusnav.NodeID{}, fmt.Errorf("unknown node ref %q", ref)
	}

	for i, ps := range f.Paths {
		src, err := resolve(ps.From)
		if err != nil {
			return nil, fmt.Errorf("path %d: %w", i, err)
		}
		dst, err := resolve(ps.To)
		if err != nil {
			return nil, fmt.Errorf("path %d: %w", i, err)
		}

		var dist float64
		if ps.Distance != nil {
			dist = *ps.Distance
		} else {
			a, b := coords[src], coords[dst]
			dist = geoindex.PathLength(a.lat, a.lon, b.lat, b.lon)
		}
		pathType := ps.Type
		if pathType == "" {
			pathType = campusnav.PathWalkway
		}

		p := campusnav.Path{
			Source:      src,
			Destination: dst,
			Distance:    dist,
			PathType:    pathType,
			Accessible:  ps.Accessible,
		}
		c.Paths = append(c.Paths, p)
		if ps.Bidirectional {
			c.Paths = append(c.Paths, p.Reverse())
		}
	}
	return c, nil
}

// parseRef parses "building:<id>" or "waypoint:<id>".
func parseRef(ref string) (campusnav.NodeID, bool) {
	kind, id, ok := strings.Cut(ref, ":")
	if !ok {
		return campusnav.NodeID{}, false
	}
	k, err := campusnav.ParseKind(kind)
	if err != nil {
		return campusnav.NodeID{}, false
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return campusnav.NodeID{}, false
	}
	return campusnav.NodeID{Kind: k, ID: n}, true
}

func maxBuildingID(bs []campusnav.Building) int64 {
	var m int64
	for _, b := range bs {
		m = max(m, b.ID)
	}
	return m
}

func maxWaypointID(ws []campusnav.Waypoint) int64 {
	var m int64
	for _, w := range ws {
		m = max(m, w.ID)
	}
	return m
}

// Apply writes c into store. Stores implementing campusnav.Importer replace
// their contents in one transaction; others get the records added one by
// one on top of what they hold.
func Apply(ctx context.Context, store campusnav.Store, c *campusnav.Campus) error {
	if imp, ok := store.(campusnav.Importer); ok {
		if err := imp.ReplaceCampus(ctx, c); err != nil {
			return fmt.Errorf("campusfile: import: %w", err)
		}
		return nil
	}

	for i := range c.Buildings {
		if _, err := store.AddBuilding(ctx, &c.Buildings[i]); err != nil {
			return fmt.Errorf("campusfile: building %q: %w", c.Buildings[i].Code, err)
		}
	}
	for i := range c.Waypoints {
		if _, err := store.AddWaypoint(ctx, &c.Waypoints[i]); err != nil {
			return fmt.Errorf("campusfile: waypoint %q: %w", c.Waypoints[i].Code, err)
		}
	}
	for i := range c.Paths {
		if _, err := store.AddPath(ctx, &c.Paths[i]); err != nil {
			return fmt.Errorf("campusfile: path %s -> %s: %w", c.Paths[i].Source, c.Paths[i].Destination, err)
		}
	}
	return nil
}
