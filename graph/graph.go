// Package graph holds the campus routing graph: nodes keyed by
// campusnav.NodeID, directed weighted edges, the builder that materializes it
// from store records, and the shortest-path search over it.
//
// A Graph is single-owner while it is built and read-only afterwards, so a
// built graph may be shared by concurrent searches.
package graph

import (
	"errors"
	"fmt"
	"math"

	"github.com/meikuraledutech/campusnav"
)

var (
	ErrDuplicateNode = errors.New("graph: duplicate node")
	ErrInvalidWeight = errors.New("graph: invalid edge weight")
	ErrUnknownNode   = errors.New("graph: unknown node")
	// ErrDanglingPath reports a stored path whose endpoint does not exist. It
	// is a data fault and does not match ErrUnknownNode.
	ErrDanglingPath = errors.New("graph: dangling path")
)

// Node is the immutable snapshot of a building or waypoint taken at build time.
type Node struct {
	ID        campusnav.NodeID
	Name      string
	Code      string
	Latitude  float64
	Longitude float64
}

// Edge is an outgoing arc.
type Edge struct {
	To     campusnav.NodeID
	Weight float64
}

// Graph is an adjacency list keyed by node identity.
type Graph struct {
	nodes map[campusnav.NodeID]Node
	adj   map[campusnav.NodeID][]Edge
	order []campusnav.NodeID
	edges int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[campusnav.NodeID]Node),
		adj:   make(map[campusnav.NodeID][]Edge),
	}
}

// AddNode inserts n. It fails with ErrDuplicateNode if n.ID is already present.
func (g *Graph) AddNode(n Node) error {
	if _, ok := g.nodes[n.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
	}
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	return nil
}

// AddEdge appends a directed edge from → to. The weight must be finite and
// non-negative; both endpoints must already be nodes of the graph.
func (g *Graph) AddEdge(from, to campusnav.NodeID, weight float64) error {
	if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return fmt.Errorf("%w: %s -> %s: %v", ErrInvalidWeight, from, to, weight)
	}
	if _, ok := g.nodes[from]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, from)
	}
	if _, ok := g.nodes[to]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, to)
	}
	g.adj[from] = append(g.adj[from], Edge{To: to, Weight: weight})
	g.edges++
	return nil
}

// Neighbors returns the outgoing edges of id. The slice is owned by the graph
// and must not be modified.
func (g *Graph) Neighbors(id campusnav.NodeID) []Edge {
	return g.adj[id]
}

// Node returns the attributes of id.
func (g *Graph) Node(id campusnav.NodeID) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Has reports whether id is a node of the graph.
func (g *Graph) Has(id campusnav.NodeID) bool {
	_, ok := g.nodes[id]
	return ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return g.edges }

// EdgeWeight returns the smallest weight among the edges from → to.
func (g *Graph) EdgeWeight(from, to campusnav.NodeID) (float64, bool) {
	best, found := 0.0, false
	for _, e := range g.adj[from] {
		if e.To != to {
			continue
		}
		if !found || e.Weight < best {
			best, found = e.Weight, true
		}
	}
	return best, found
}

// HasEdge reports whether an edge from → to with exactly weight w exists.
func (g *Graph) HasEdge(from, to campusnav.NodeID, w float64) bool {
	for _, e := range g.adj[from] {
		if e.To == to && e.Weight == w {
			return true
		}
	}
	return false
}
