package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/martivilar/camins/internal/core/domain"
	"github.com/martivilar/camins/internal/core/ports"
	"github.com/martivilar/camins/internal/core/trailgraph"
	"github.com/martivilar/camins/internal/pkg/geospatial"
)

// SegmentOptions tunes how raw trackpoints are turned into segments.
type SegmentOptions struct {
	TimeDelta       time.Duration // max gap between consecutive samples
	DistanceDeltaKm float64       // max center-to-center hop length
	Cluster         trailgraph.ClusterConfig
}

// SegmentService provides trail segments for a region, either directly
// from an external way source or derived from raw GPS trackpoints.
type SegmentService struct {
	source      ports.SegmentSource
	trackpoints ports.TrackpointRepository
	cache       ports.CacheService
	opts        SegmentOptions
}

// NewSegmentService creates a new SegmentService.
func NewSegmentService(source ports.SegmentSource, trackpoints ports.TrackpointRepository, cache ports.CacheService, opts SegmentOptions) *SegmentService {
	if opts.TimeDelta <= 0 {
		opts.TimeDelta = 5 * time.Minute
	}
	if opts.DistanceDeltaKm <= 0 {
		opts.DistanceDeltaKm = 0.1
	}
	return &SegmentService{source: source, trackpoints: trackpoints, cache: cache, opts: opts}
}

// GetSegments returns trail segments for a bounding box from the way
// source, with a cache in front: segment downloads are the slowest part of
// a routing request and regions repeat across users.
func (s *SegmentService) GetSegments(ctx context.Context, b domain.Bounds) ([]domain.Segment, error) {
	cacheKey := fmt.Sprintf("segments:box:%.4f:%.4f:%.4f:%.4f", b.MinLat, b.MinLon, b.MaxLat, b.MaxLon)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var segs []domain.Segment
			if err := json.Unmarshal(data, &segs); err == nil {
				return segs, nil
			}
		}
	}

	segs, err := s.source.FetchSegments(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("fetch segments: %w", err)
	}

	if s.cache != nil {
		if data, err := json.Marshal(segs); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 6*3600)
		}
	}

	return segs, nil
}

// BuildFromTrackpoints derives segments from raw GPS samples stored for
// the region. Points are clustered into representative centers; a segment
// is emitted for each pair of consecutive samples of the same trace that
// landed in different centers, close enough in time and space to be one
// walked hop. Returns the segments and the number of distinct centers.
//
// Fewer than two usable centers is degenerate input: zero segments, no
// error. The caller reports it.
func (s *SegmentService) BuildFromTrackpoints(ctx context.Context, b domain.Bounds) ([]domain.Segment, int, error) {
	tps, err := s.trackpoints.ListByBounds(ctx, b, 0)
	if err != nil {
		return nil, 0, fmt.Errorf("load trackpoints: %w", err)
	}
	if len(tps) < 2 {
		return nil, 0, nil
	}

	// Samples must be in recording order per trace for the gating below.
	sort.SliceStable(tps, func(i, j int) bool {
		a, b := tps[i], tps[j]
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		if a.Track != b.Track {
			return a.Track < b.Track
		}
		return a.Time.Before(b.Time)
	})

	points := make([]domain.GeoPoint, len(tps))
	for i, tp := range tps {
		points[i] = tp.Location
	}
	centers := trailgraph.Cluster(points, s.opts.Cluster)

	distinct := make(map[domain.GeoPoint]struct{}, len(centers))
	for _, c := range centers {
		distinct[c] = struct{}{}
	}
	if len(distinct) < 2 {
		slog.Warn("degenerate trackpoint input, no segments derived",
			"trackpoints", len(tps), "centers", len(distinct))
		return nil, len(distinct), nil
	}

	segSet := make(map[domain.Segment]struct{})
	for i := 1; i < len(tps); i++ {
		prev, cur := tps[i-1], tps[i]
		if prev.Track != cur.Track || prev.Page != cur.Page {
			continue
		}
		if cur.Time.Sub(prev.Time) >= s.opts.TimeDelta {
			continue
		}
		c1, c2 := centers[prev.Location], centers[cur.Location]
		if c1 == c2 {
			continue
		}
		if geospatial.Haversine(c1.Lat, c1.Lon, c2.Lat, c2.Lon) >= s.opts.DistanceDeltaKm {
			continue
		}
		// Normalize direction so A->B and B->A dedup to one segment.
		if c2.Lat < c1.Lat || (c2.Lat == c1.Lat && c2.Lon < c1.Lon) {
			c1, c2 = c2, c1
		}
		segSet[domain.Segment{Start: c1, End: c2}] = struct{}{}
	}

	segs := make([]domain.Segment, 0, len(segSet))
	for seg := range segSet {
		segs = append(segs, seg)
	}
	sort.Slice(segs, func(i, j int) bool {
		a, b := segs[i], segs[j]
		if a.Start.Lat != b.Start.Lat {
			return a.Start.Lat < b.Start.Lat
		}
		if a.Start.Lon != b.Start.Lon {
			return a.Start.Lon < b.Start.Lon
		}
		if a.End.Lat != b.End.Lat {
			return a.End.Lat < b.End.Lat
		}
		return a.End.Lon < b.End.Lon
	})

	return segs, len(distinct), nil
}

// TrackpointCount reports how many raw samples are stored for a region.
func (s *SegmentService) TrackpointCount(ctx context.Context, b domain.Bounds) (int, error) {
	return s.trackpoints.CountByBounds(ctx, b)
}
