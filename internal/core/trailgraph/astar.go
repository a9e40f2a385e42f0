package trailgraph

import (
	"container/heap"
	"math"
	"sort"
	"sync"

	"github.com/martivilar/camins/internal/core/domain"
	"github.com/martivilar/camins/internal/pkg/geospatial"
)

// Route is the shortest path to one reachable destination.
type Route struct {
	Destination domain.GeoPoint
	DistanceKm  float64
	Path        []domain.GeoPoint
}

// RouteSet partitions a multi-target query into reachable routes and
// unreachable destinations, plus the union of edges used by all reachable
// paths (for rendering and export).
type RouteSet struct {
	Reachable   []Route
	Unreachable []domain.GeoPoint
	Edges       []domain.Segment
}

// NearestNode scans all graph nodes and returns the one closest to p by
// great-circle distance. The second return is false for an empty graph.
// A linear scan keeps semantics obvious; graphs here are request-sized.
func NearestNode(g *Graph, p domain.GeoPoint) (domain.GeoPoint, bool) {
	var closest domain.GeoPoint
	minDist := math.Inf(1)
	found := false
	for n := range g.adj {
		d := geospatial.Haversine(p.Lat, p.Lon, n.Lat, n.Lon)
		if d < minDist {
			minDist = d
			closest = n
			found = true
		}
	}
	return closest, found
}

// MultiRoute snaps the origin and every destination to their nearest graph
// nodes and runs one A* search per destination. Searches share only
// read-only access to the graph, so they run in parallel. Results keep the
// destination input order; the edge union is sorted for determinism.
//
// An empty graph, or a destination in a component the origin cannot reach,
// marks that destination unreachable — never an error.
func MultiRoute(g *Graph, origin domain.GeoPoint, destinations []domain.GeoPoint) RouteSet {
	var rs RouteSet

	start, ok := NearestNode(g, origin)
	if !ok {
		rs.Unreachable = append(rs.Unreachable, destinations...)
		return rs
	}

	routes := make([]*Route, len(destinations))
	var wg sync.WaitGroup
	for i, dest := range destinations {
		wg.Add(1)
		go func(i int, dest domain.GeoPoint) {
			defer wg.Done()
			goal, ok := NearestNode(g, dest)
			if !ok {
				return
			}
			dist, path, ok := ShortestPath(g, start, goal)
			if !ok {
				return
			}
			routes[i] = &Route{Destination: dest, DistanceKm: dist, Path: path}
		}(i, dest)
	}
	wg.Wait()

	used := make(map[edgeKey]struct{})
	for i, r := range routes {
		if r == nil {
			rs.Unreachable = append(rs.Unreachable, destinations[i])
			continue
		}
		rs.Reachable = append(rs.Reachable, *r)
		for j := 1; j < len(r.Path); j++ {
			used[newEdgeKey(r.Path[j-1], r.Path[j])] = struct{}{}
		}
	}

	rs.Edges = make([]domain.Segment, 0, len(used))
	for k := range used {
		rs.Edges = append(rs.Edges, domain.Segment{Start: k.a, End: k.b})
	}
	sort.Slice(rs.Edges, func(i, j int) bool {
		a, b := rs.Edges[i], rs.Edges[j]
		if a.Start != b.Start {
			if a.Start.Lat != b.Start.Lat {
				return a.Start.Lat < b.Start.Lat
			}
			return a.Start.Lon < b.Start.Lon
		}
		if a.End.Lat != b.End.Lat {
			return a.End.Lat < b.End.Lat
		}
		return a.End.Lon < b.End.Lon
	})

	return rs
}

// openItem is a priority-queue entry. order is a monotonically increasing
// counter breaking f-score ties in insertion order, which makes path
// selection deterministic among equal-cost options.
type openItem struct {
	node  domain.GeoPoint
	f     float64
	order int
}

type openHeap []openItem

func (h openHeap) Len() int { return len(h) }
func (h openHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	return h[i].order < h[j].order
}
func (h openHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *openHeap) Push(x any)        { *h = append(*h, x.(openItem)) }
func (h *openHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// ShortestPath runs A* from start to goal over the graph's edge weights,
// using great-circle distance to the goal as the heuristic. Edge weights
// are themselves great-circle distances, so the heuristic never
// overestimates the remaining cost and the returned path is optimal.
//
// Returns the total distance in kilometers and the node path from start to
// goal inclusive. ok is false when no path exists or either endpoint is
// missing from the graph.
func ShortestPath(g *Graph, start, goal domain.GeoPoint) (float64, []domain.GeoPoint, bool) {
	if !g.HasNode(start) || !g.HasNode(goal) {
		return 0, nil, false
	}

	h := func(n domain.GeoPoint) float64 {
		return geospatial.Haversine(n.Lat, n.Lon, goal.Lat, goal.Lon)
	}

	open := &openHeap{{node: start, f: h(start)}}
	heap.Init(open)

	counter := 0
	gScore := map[domain.GeoPoint]float64{start: 0}
	cameFrom := make(map[domain.GeoPoint]domain.GeoPoint)
	closed := make(map[domain.GeoPoint]struct{})

	for open.Len() > 0 {
		current := heap.Pop(open).(openItem).node

		// Stale entries re-enqueued with an outdated priority are skipped;
		// a node is expanded at most once.
		if _, done := closed[current]; done {
			continue
		}

		if current == goal {
			return gScore[current], reconstructPath(cameFrom, current), true
		}

		closed[current] = struct{}{}

		// Relax neighbors in coordinate order. The insertion-order
		// tiebreak is only deterministic if insertions themselves happen
		// in a stable order; ranging over the adjacency map would
		// randomize which of two exactly-tied paths wins.
		neighbors := g.Neighbors(current)
		sort.Slice(neighbors, func(i, j int) bool {
			if neighbors[i].Lat != neighbors[j].Lat {
				return neighbors[i].Lat < neighbors[j].Lat
			}
			return neighbors[i].Lon < neighbors[j].Lon
		})

		for _, neighbor := range neighbors {
			if _, done := closed[neighbor]; done {
				continue
			}
			w := g.weights[newEdgeKey(current, neighbor)]
			tentative := gScore[current] + w

			if best, seen := gScore[neighbor]; !seen || tentative < best {
				cameFrom[neighbor] = current
				gScore[neighbor] = tentative
				counter++
				heap.Push(open, openItem{
					node:  neighbor,
					f:     tentative + h(neighbor),
					order: counter,
				})
			}
		}
	}

	return 0, nil, false
}

func reconstructPath(cameFrom map[domain.GeoPoint]domain.GeoPoint, current domain.GeoPoint) []domain.GeoPoint {
	path := []domain.GeoPoint{current}
	for {
		prev, ok := cameFrom[current]
		if !ok {
			break
		}
		current = prev
		path = append(path, current)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
