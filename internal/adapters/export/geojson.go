package export

import (
	"encoding/json"
	"io"

	"github.com/martivilar/camins/internal/core/domain"
)

// GeoJSON feature collection types, kept minimal: positions are
// [lon, lat] pairs per RFC 7946.
type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string         `json:"type"`
	Geometry   geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

// WriteGeoJSON renders a route result as a GeoJSON FeatureCollection:
// the origin and each monument as Point features, each reachable route as
// a LineString carrying the trail distance.
func WriteGeoJSON(w io.Writer, res *domain.RouteResult) error {
	fc := featureCollection{Type: "FeatureCollection"}

	fc.Features = append(fc.Features, feature{
		Type:     "Feature",
		Geometry: geometry{Type: "Point", Coordinates: position(res.Origin)},
		Properties: map[string]any{
			"kind": "origin",
		},
	})

	for _, r := range res.Reachable {
		fc.Features = append(fc.Features, feature{
			Type:     "Feature",
			Geometry: geometry{Type: "Point", Coordinates: position(r.Monument.Location)},
			Properties: map[string]any{
				"kind":        "monument",
				"id":          r.Monument.ID,
				"name":        r.Monument.Name,
				"type":        r.Monument.Type,
				"reachable":   true,
				"distance_km": r.DistanceKm,
			},
		})
		fc.Features = append(fc.Features, feature{
			Type:     "Feature",
			Geometry: geometry{Type: "LineString", Coordinates: line(r.Path)},
			Properties: map[string]any{
				"kind":        "route",
				"monument_id": r.Monument.ID,
				"distance_km": r.DistanceKm,
			},
		})
	}

	for _, m := range res.Unreachable {
		fc.Features = append(fc.Features, feature{
			Type:     "Feature",
			Geometry: geometry{Type: "Point", Coordinates: position(m.Location)},
			Properties: map[string]any{
				"kind":      "monument",
				"id":        m.ID,
				"name":      m.Name,
				"type":      m.Type,
				"reachable": false,
			},
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(fc)
}

func position(p domain.GeoPoint) []float64 {
	return []float64{p.Lon, p.Lat}
}

func line(path []domain.GeoPoint) [][]float64 {
	out := make([][]float64, len(path))
	for i, p := range path {
		out[i] = position(p)
	}
	return out
}
