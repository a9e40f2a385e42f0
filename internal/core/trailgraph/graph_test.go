package trailgraph

import (
	"math"
	"testing"

	"github.com/martivilar/camins/internal/core/domain"
	"github.com/martivilar/camins/internal/pkg/geospatial"
)

func pt(lat, lon float64) domain.GeoPoint {
	return domain.GeoPoint{Lat: lat, Lon: lon}
}

func TestBuild_Basic(t *testing.T) {
	segs := []domain.Segment{
		{Start: pt(41.0, 2.0), End: pt(41.1, 2.0)},
		{Start: pt(41.1, 2.0), End: pt(41.2, 2.1)},
	}

	g := Build(segs)
	if g.NodeCount() != 3 {
		t.Fatalf("expected 3 nodes, got %d", g.NodeCount())
	}
	if g.EdgeCount() != 2 {
		t.Fatalf("expected 2 edges, got %d", g.EdgeCount())
	}

	w, ok := g.Weight(pt(41.0, 2.0), pt(41.1, 2.0))
	if !ok {
		t.Fatal("expected edge between first segment endpoints")
	}
	want := geospatial.Haversine(41.0, 2.0, 41.1, 2.0)
	if w != want {
		t.Errorf("weight = %f, want haversine %f", w, want)
	}
}

func TestBuild_Idempotent(t *testing.T) {
	segs := []domain.Segment{
		{Start: pt(41.0, 2.0), End: pt(41.1, 2.0)},
		{Start: pt(41.1, 2.0), End: pt(41.0, 2.0)}, // same pair, reversed
		{Start: pt(41.0, 2.0), End: pt(41.1, 2.0)}, // exact duplicate
	}

	g1 := Build(segs)
	g2 := Build(segs)

	if g1.NodeCount() != 2 || g1.EdgeCount() != 1 {
		t.Fatalf("duplicate segments must collapse: %d nodes, %d edges",
			g1.NodeCount(), g1.EdgeCount())
	}
	if g1.NodeCount() != g2.NodeCount() || g1.EdgeCount() != g2.EdgeCount() {
		t.Error("building twice from the same segments gave different graphs")
	}
	for _, e := range g1.Edges() {
		w1, _ := g1.Weight(e.Start, e.End)
		w2, ok := g2.Weight(e.Start, e.End)
		if !ok || w1 != w2 {
			t.Errorf("edge %v differs between builds", e)
		}
	}
}

func TestBuild_DropsSelfLoops(t *testing.T) {
	segs := []domain.Segment{
		{Start: pt(41.0, 2.0), End: pt(41.0, 2.0)},
	}
	g := Build(segs)
	if g.NodeCount() != 0 || g.EdgeCount() != 0 {
		t.Errorf("self-loop segment must be dropped, got %d nodes %d edges",
			g.NodeCount(), g.EdgeCount())
	}
}

func TestBuild_Empty(t *testing.T) {
	g := Build(nil)
	if g.NodeCount() != 0 || g.EdgeCount() != 0 {
		t.Errorf("empty input must yield empty graph")
	}
}

// Edge weights ARE great-circle distances, which is what makes the A*
// heuristic admissible. A regression here silently breaks optimality.
func TestEdgeWeights_EqualGreatCircle(t *testing.T) {
	segs := []domain.Segment{
		{Start: pt(41.38, 2.17), End: pt(41.40, 2.15)},
		{Start: pt(41.40, 2.15), End: pt(41.45, 2.25)},
		{Start: pt(41.45, 2.25), End: pt(41.38, 2.17)},
	}
	g := Build(segs)
	for _, e := range g.Edges() {
		w, _ := g.Weight(e.Start, e.End)
		gc := geospatial.Haversine(e.Start.Lat, e.Start.Lon, e.End.Lat, e.End.Lon)
		if math.Abs(w-gc) > 1e-12 {
			t.Errorf("edge %v: weight %f != great-circle %f", e, w, gc)
		}
	}
}

func TestRemoveNode(t *testing.T) {
	g := Build([]domain.Segment{
		{Start: pt(0, 0), End: pt(0, 1)},
		{Start: pt(0, 1), End: pt(0, 2)},
	})
	g.RemoveNode(pt(0, 1))

	if g.HasNode(pt(0, 1)) {
		t.Error("node still present after removal")
	}
	if g.EdgeCount() != 0 {
		t.Errorf("incident edges must go with the node, %d left", g.EdgeCount())
	}
	if g.Degree(pt(0, 0)) != 0 || g.Degree(pt(0, 2)) != 0 {
		t.Error("neighbor degrees not updated")
	}
}
