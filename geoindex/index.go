// Package geoindex answers "what is near this coordinate" over campus nodes
// with an R-tree, and measures walking segment lengths on the sphere.
package geoindex

import (
	"math"
	"sort"
	"sync"

	"github.com/dhconnelly/rtreego"
	"github.com/meikuraledutech/campusnav"
	"github.com/meikuraledutech/campusnav/graph"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

const (
	tolerance   = 1e-7
	minChildren = 4
	maxChildren = 16
	dimensions  = 2
)

// Point is an indexed campus node.
type Point struct {
	Node      campusnav.NodeID `json:"node"`
	Name      string           `json:"name"`
	Code      string           `json:"code"`
	Latitude  float64          `json:"lat"`
	Longitude float64          `json:"lng"`
}

// Match is a Point with its distance from the query in meters.
type Match struct {
	Point
	Meters float64 `json:"distance_meters"`
}

type spatialItem struct {
	*Point
	rect *rtreego.Rect
}

func (si *spatialItem) Bounds() *rtreego.Rect {
	return si.rect
}

// Index is an R-tree over campus nodes. It keeps one tree for all nodes and
// one per kind so a kind-filtered query still returns k results.
type Index struct {
	mu    sync.RWMutex
	all   *rtreego.Rtree
	kinds map[campusnav.Kind]*rtreego.Rtree
	size  int
}

// New indexes points.
func New(points []Point) *Index {
	ix := &Index{
		all:   rtreego.NewTree(dimensions, minChildren, maxChildren),
		kinds: make(map[campusnav.Kind]*rtreego.Rtree),
	}
	ix.Insert(points...)
	return ix
}

// FromGraph indexes every node of g.
func FromGraph(g *graph.Graph) *Index {
	nodes := g.Nodes()
	points := make([]Point, 0, len(nodes))
	for _, n := range nodes {
		points = append(points, Point{
			Node:      n.ID,
			Name:      n.Name,
			Code:      n.Code,
			Latitude:  n.Latitude,
			Longitude: n.Longitude,
		})
	}
	return New(points)
}

// Insert adds points to the index.
func (ix *Index) Insert(points ...Point) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	for i := range points {
		p := points[i]
		item := &spatialItem{Point: &p, rect: rtreego.Point{p.Latitude, p.Longitude}.ToRect(tolerance)}
		ix.all.Insert(item)

		tree, ok := ix.kinds[p.Node.Kind]
		if !ok {
			tree = rtreego.NewTree(dimensions, minChildren, maxChildren)
			ix.kinds[p.Node.Kind] = tree
		}
		tree.Insert(item)
		ix.size++
	}
}

// Size returns the number of indexed points.
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.size
}

// Nearest returns up to k points closest to (lat, lon), nearest first. A zero
// kind matches every node.
func (ix *Index) Nearest(lat, lon float64, k int, kind campusnav.Kind) []Match {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	tree := ix.all
	if kind != 0 {
		tree = ix.kinds[kind]
	}
	if tree == nil || k <= 0 || tree.Size() == 0 {
		return nil
	}
	if k > tree.Size() {
		k = tree.Size()
	}

	results := tree.NearestNeighbors(k, rtreego.Point{lat, lon})
	matches := make([]Match, 0, len(results))
	for _, r := range results {
		item, ok := r.(*spatialItem)
		if !ok || item == nil || item.Point == nil {
			continue
		}
		matches = append(matches, Match{
			Point:  *item.Point,
			Meters: Distance(lat, lon, item.Latitude, item.Longitude),
		})
	}

	// The tree ranks by planar degrees; reorder by distance on the sphere.
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Meters != matches[j].Meters {
			return matches[i].Meters < matches[j].Meters
		}
		return matches[i].Node.Less(matches[j].Node)
	})
	return matches
}

// Distance returns the great-circle distance in meters between two
// coordinates given in decimal degrees.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	return geo.DistanceHaversine(orb.Point{lon1, lat1}, orb.Point{lon2, lat2})
}

// PathLength is Distance rounded to centimeters, the precision path
// distances are stored with.
func PathLength(lat1, lon1, lat2, lon2 float64) float64 {
	return math.Round(Distance(lat1, lon1, lat2, lon2)*100) / 100
}
