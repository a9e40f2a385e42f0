package domain

// GeoPoint represents a geographic coordinate (WGS 84).
// GeoPoints are used directly as graph node identities: two points are the
// same node iff both components are bit-identical.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Segment is one traversable trail link between two points.
// Direction carries no meaning; the graph treats segments as undirected.
type Segment struct {
	Start GeoPoint `json:"start"`
	End   GeoPoint `json:"end"`
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Contains reports whether p falls inside the box.
func (b Bounds) Contains(p GeoPoint) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}
