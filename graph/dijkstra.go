package graph

import (
	"fmt"
	"math"

	"github.com/meikuraledutech/campusnav"
	"github.com/tidwall/btree"
)

// Path is the result of a shortest-path search.
type Path struct {
	// Nodes runs from start to end inclusive.
	Nodes []campusnav.NodeID
	// Segments[i] is the weight of the edge Nodes[i] -> Nodes[i+1].
	Segments []float64
	Distance float64
}

type frontierItem struct {
	dist float64
	id   campusnav.NodeID
}

// frontierLess orders by distance, then node id, so ties are broken the same
// way for a given graph on every run.
func frontierLess(a, b frontierItem) bool {
	if a.dist != b.dist {
		return a.dist < b.dist
	}
	return a.id.Less(b.id)
}

type hop struct {
	from   campusnav.NodeID
	weight float64
}

// ShortestPath runs Dijkstra from start to end.
//
// It fails with ErrUnknownNode if either node is absent. It returns nil, nil
// when end is unreachable from start. A start equal to end yields a
// single-node path of distance 0.
func ShortestPath(g *Graph, start, end campusnav.NodeID) (*Path, error) {
	if !g.Has(start) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, start)
	}
	if !g.Has(end) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, end)
	}
	if start == end {
		return &Path{Nodes: []campusnav.NodeID{start}, Segments: []float64{}}, nil
	}

	dist := map[campusnav.NodeID]float64{start: 0}
	prev := make(map[campusnav.NodeID]hop)
	settled := make(map[campusnav.NodeID]bool)

	frontier := btree.NewBTreeG(frontierLess)
	frontier.Set(frontierItem{dist: 0, id: start})

	for frontier.Len() > 0 {
		cur, _ := frontier.PopMin()
		settled[cur.id] = true
		if cur.id == end {
			break
		}

		for _, e := range g.Neighbors(cur.id) {
			if settled[e.To] {
				continue
			}
			next := cur.dist + e.Weight
			old, seen := dist[e.To]
			if seen && next >= old {
				continue
			}
			if seen {
				frontier.Delete(frontierItem{dist: old, id: e.To})
			}
			dist[e.To] = next
			prev[e.To] = hop{from: cur.id, weight: e.Weight}
			frontier.Set(frontierItem{dist: next, id: e.To})
		}
	}

	total, ok := dist[end]
	if !ok || !settled[end] || math.IsInf(total, 1) {
		return nil, nil
	}

	var (
		nodes    = []campusnav.NodeID{end}
		segments []float64
	)
	for at := end; at != start; {
		h := prev[at]
		nodes = append(nodes, h.from)
		segments = append(segments, h.weight)
		at = h.from
	}
	reverse(nodes)
	reverse(segments)

	return &Path{Nodes: nodes, Segments: segments, Distance: total}, nil
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
