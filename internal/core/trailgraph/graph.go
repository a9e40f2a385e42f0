// Package trailgraph turns raw trail geometry into a weighted graph and
// answers multi-target shortest-path queries over it.
//
// The pipeline is: cluster raw trackpoints into stable node coordinates,
// build an undirected graph from segments, optionally simplify away
// collinear degree-2 nodes, then route from an origin to many destinations
// with A*. Every graph is request-scoped: built, queried, and discarded.
package trailgraph

import (
	"github.com/martivilar/camins/internal/core/domain"
	"github.com/martivilar/camins/internal/pkg/geospatial"
)

// edgeKey identifies an undirected edge by its two endpoints in a
// normalized order, so (a,b) and (b,a) map to the same key.
type edgeKey struct {
	a, b domain.GeoPoint
}

func newEdgeKey(a, b domain.GeoPoint) edgeKey {
	if b.Lat < a.Lat || (b.Lat == a.Lat && b.Lon < a.Lon) {
		a, b = b, a
	}
	return edgeKey{a: a, b: b}
}

// Graph is an undirected graph whose nodes are coordinates and whose edge
// weights are great-circle distances in kilometers between the endpoints.
// It is not safe for concurrent mutation; routing only reads it.
type Graph struct {
	adj     map[domain.GeoPoint]map[domain.GeoPoint]struct{}
	weights map[edgeKey]float64
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		adj:     make(map[domain.GeoPoint]map[domain.GeoPoint]struct{}),
		weights: make(map[edgeKey]float64),
	}
}

// Build constructs a graph from trail segments. Both endpoints of every
// segment become nodes; the connecting edge is weighted by great-circle
// distance. Self-loop segments contribute nothing and are dropped.
// Repeated segments over the same pair are idempotent: the weight derives
// purely from the endpoints.
func Build(segments []domain.Segment) *Graph {
	g := NewGraph()
	for _, s := range segments {
		if s.Start == s.End {
			continue
		}
		g.AddEdge(s.Start, s.End)
	}
	return g
}

// AddEdge inserts both endpoints and the undirected edge between them,
// weighted by their great-circle distance. Adding an existing edge
// recomputes the identical weight.
func (g *Graph) AddEdge(a, b domain.GeoPoint) {
	if a == b {
		return
	}
	g.addNode(a)
	g.addNode(b)
	g.adj[a][b] = struct{}{}
	g.adj[b][a] = struct{}{}
	g.weights[newEdgeKey(a, b)] = geospatial.Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
}

func (g *Graph) addNode(p domain.GeoPoint) {
	if _, ok := g.adj[p]; !ok {
		g.adj[p] = make(map[domain.GeoPoint]struct{})
	}
}

// RemoveNode deletes a node and all its incident edges.
func (g *Graph) RemoveNode(p domain.GeoPoint) {
	for n := range g.adj[p] {
		delete(g.adj[n], p)
		delete(g.weights, newEdgeKey(p, n))
	}
	delete(g.adj, p)
}

// HasNode reports whether p is a node of the graph.
func (g *Graph) HasNode(p domain.GeoPoint) bool {
	_, ok := g.adj[p]
	return ok
}

// Degree returns the number of edges incident to p.
func (g *Graph) Degree(p domain.GeoPoint) int {
	return len(g.adj[p])
}

// Neighbors returns the nodes adjacent to p in unspecified order.
func (g *Graph) Neighbors(p domain.GeoPoint) []domain.GeoPoint {
	ns := make([]domain.GeoPoint, 0, len(g.adj[p]))
	for n := range g.adj[p] {
		ns = append(ns, n)
	}
	return ns
}

// Weight returns the edge weight between a and b in kilometers.
// The second return is false if no such edge exists.
func (g *Graph) Weight(a, b domain.GeoPoint) (float64, bool) {
	w, ok := g.weights[newEdgeKey(a, b)]
	return w, ok
}

// Nodes returns all nodes in unspecified order.
func (g *Graph) Nodes() []domain.GeoPoint {
	ns := make([]domain.GeoPoint, 0, len(g.adj))
	for n := range g.adj {
		ns = append(ns, n)
	}
	return ns
}

// Edges returns every undirected edge exactly once.
func (g *Graph) Edges() []domain.Segment {
	es := make([]domain.Segment, 0, len(g.weights))
	for k := range g.weights {
		es = append(es, domain.Segment{Start: k.a, End: k.b})
	}
	return es
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.adj) }

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int { return len(g.weights) }
