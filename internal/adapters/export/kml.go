// Package export renders route results as KML and GeoJSON documents for
// map viewers.
package export

import (
	"fmt"
	"io"

	"github.com/twpayne/go-kml/v2"

	"github.com/martivilar/camins/internal/core/domain"
)

// WriteKML renders a route result as a KML document: one placemark for
// the origin, one per monument (reachable placemarks carry the route as a
// LineString), and one LineString per trail edge used by any route.
func WriteKML(w io.Writer, res *domain.RouteResult) error {
	doc := kml.Document(
		kml.Name("Camins routes"),
		kml.Placemark(
			kml.Name("Origin"),
			kml.Point(kml.Coordinates(coord(res.Origin))),
		),
	)

	for _, r := range res.Reachable {
		coords := make([]kml.Coordinate, len(r.Path))
		for i, p := range r.Path {
			coords[i] = coord(p)
		}
		doc.Add(kml.Placemark(
			kml.Name(r.Monument.Name),
			kml.Description(fmt.Sprintf("%s, %.2f km on trails", r.Monument.Type, r.DistanceKm)),
			kml.Point(kml.Coordinates(coord(r.Monument.Location))),
		))
		doc.Add(kml.Placemark(
			kml.Name(fmt.Sprintf("Route to %s", r.Monument.Name)),
			kml.LineString(kml.Coordinates(coords...)),
		))
	}

	for _, m := range res.Unreachable {
		doc.Add(kml.Placemark(
			kml.Name(m.Name),
			kml.Description(fmt.Sprintf("%s, not reachable on the trail network", m.Type)),
			kml.Point(kml.Coordinates(coord(m.Location))),
		))
	}

	return kml.KML(doc).WriteIndent(w, "", "  ")
}

func coord(p domain.GeoPoint) kml.Coordinate {
	return kml.Coordinate{Lon: p.Lon, Lat: p.Lat}
}
