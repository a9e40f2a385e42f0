package trailgraph

import (
	"math"

	"github.com/martivilar/camins/internal/core/domain"
	"github.com/martivilar/camins/internal/pkg/geospatial"
)

// Simplify removes degree-2 nodes that lie on a nearly straight line
// between their two neighbors, re-linking the neighbors directly. A node is
// collinear when the angle it forms deviates from 180° by less than
// epsilonDeg. The candidate list is computed once up front, so a chain of
// collinear nodes collapses to its endpoints in a single pass.
//
// The decision is purely local geometry: a collinear node is removed even
// if it happens to bridge otherwise-separate trail branches. The graph is
// mutated in place and returned for chaining.
func Simplify(g *Graph, epsilonDeg float64) *Graph {
	candidates := make([]domain.GeoPoint, 0)
	for _, n := range g.Nodes() {
		if g.Degree(n) == 2 {
			candidates = append(candidates, n)
		}
	}

	for _, node := range candidates {
		// An earlier removal may have re-linked this node or dropped it.
		if !g.HasNode(node) || g.Degree(node) != 2 {
			continue
		}
		ns := g.Neighbors(node)
		n1, n2 := ns[0], ns[1]

		angle := AngleOf(n1, node, n2)
		if math.Abs(180-angle) < epsilonDeg {
			g.RemoveNode(node)
			g.AddEdge(n1, n2)
		}
	}
	return g
}

// AngleOf returns the angle in degrees at p2 formed by p1-p2-p3, computed
// with the spherical law of cosines over the three pairwise great-circle
// distances. Degenerate triples (coincident points) yield 180, treating
// zero-length arms as straight-through. The cosine argument is clamped to
// [-1, 1]: rounding can push it just outside and Acos must never see that.
func AngleOf(p1, p2, p3 domain.GeoPoint) float64 {
	d1 := geospatial.Haversine(p1.Lat, p1.Lon, p2.Lat, p2.Lon)
	d2 := geospatial.Haversine(p2.Lat, p2.Lon, p3.Lat, p3.Lon)
	d3 := geospatial.Haversine(p1.Lat, p1.Lon, p3.Lat, p3.Lon)

	if d1 == 0 || d2 == 0 {
		return 180
	}

	cos := (d1*d1 + d2*d2 - d3*d3) / (2 * d1 * d2)
	cos = math.Max(-1, math.Min(1, cos))

	return math.Acos(cos) * 180 / math.Pi
}
