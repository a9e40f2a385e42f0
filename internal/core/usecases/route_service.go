package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/martivilar/camins/internal/core/domain"
	"github.com/martivilar/camins/internal/core/ports"
	"github.com/martivilar/camins/internal/core/trailgraph"
)

// ProgressFunc receives coarse progress in [0,1] while a route
// computation runs. May be nil.
type ProgressFunc func(fraction float64)

// RouteService runs multi-target route computations: trail segments for
// the requested region become a weighted graph, and every matching
// monument is routed from the origin over it.
type RouteService struct {
	segments       *SegmentService
	monuments      ports.MonumentRepository
	defaultEpsilon float64
}

// NewRouteService creates a new RouteService. defaultEpsilonDeg is the
// straightness tolerance used when a request asks for simplification
// without giving its own epsilon.
func NewRouteService(segments *SegmentService, monuments ports.MonumentRepository, defaultEpsilonDeg float64) *RouteService {
	if defaultEpsilonDeg <= 0 {
		defaultEpsilonDeg = 5
	}
	return &RouteService{segments: segments, monuments: monuments, defaultEpsilon: defaultEpsilonDeg}
}

// ComputeRoutes executes one RouteRequest end to end. Unreachable
// monuments and degenerate regions (too little trail data to form a
// graph) are reported in the result, never as errors; only infrastructure
// failures return one.
func (s *RouteService) ComputeRoutes(ctx context.Context, req domain.RouteRequest, progress ProgressFunc) (*domain.RouteResult, error) {
	report := func(f float64) {
		if progress != nil {
			progress(f)
		}
	}

	segs, err := s.segments.GetSegments(ctx, req.Bounds)
	if err != nil {
		return nil, fmt.Errorf("get segments: %w", err)
	}
	report(0.25)

	g := trailgraph.Build(segs)
	if req.Simplify {
		eps := req.EpsilonDeg
		if eps <= 0 {
			eps = s.defaultEpsilon
		}
		before := g.NodeCount()
		g = trailgraph.Simplify(g, eps)
		slog.Debug("graph simplified",
			"nodes_before", before, "nodes_after", g.NodeCount(), "epsilon_deg", eps)
	}
	report(0.5)

	monuments, err := s.monuments.ListByBounds(ctx, req.Bounds, req.MonumentTypes, 0)
	if err != nil {
		return nil, fmt.Errorf("list monuments: %w", err)
	}
	report(0.6)

	result := &domain.RouteResult{
		Origin:     req.Origin,
		GraphNodes: g.NodeCount(),
		GraphEdges: g.EdgeCount(),
		ComputedAt: time.Now().UTC(),
	}
	if g.NodeCount() < 2 {
		// Not enough trail data in the region to route over.
		result.Degenerate = true
		result.Unreachable = monuments
		report(1)
		return result, nil
	}

	dests := make([]domain.GeoPoint, len(monuments))
	for i, m := range monuments {
		dests[i] = m.Location
	}
	rs := trailgraph.MultiRoute(g, req.Origin, dests)
	report(0.9)

	// Both partitions preserve destination input order, so one walk over
	// the monuments resolves the mapping even when locations repeat.
	rIdx, uIdx := 0, 0
	for i, m := range monuments {
		if uIdx < len(rs.Unreachable) && rs.Unreachable[uIdx] == dests[i] {
			result.Unreachable = append(result.Unreachable, m)
			uIdx++
			continue
		}
		r := rs.Reachable[rIdx]
		rIdx++
		d := r.DistanceKm
		m.Distance = &d
		result.Reachable = append(result.Reachable, domain.MonumentRoute{
			Monument:   m,
			DistanceKm: r.DistanceKm,
			Path:       r.Path,
		})
	}
	result.Edges = rs.Edges

	slog.Info("routes computed",
		"monuments", len(monuments),
		"reachable", len(result.Reachable),
		"unreachable", len(result.Unreachable),
		"graph_nodes", result.GraphNodes,
		"graph_edges", result.GraphEdges)

	report(1)
	return result, nil
}
