package usecases_test

import (
	"context"
	"testing"
	"time"

	"github.com/martivilar/camins/internal/core/domain"
	"github.com/martivilar/camins/internal/core/usecases"
)

func TestGetSegments_CachesResult(t *testing.T) {
	src := &mockSegmentSource{
		fetchFn: func(ctx context.Context, b domain.Bounds) ([]domain.Segment, error) {
			return trailSegments(), nil
		},
	}
	cache := newMockCache()
	svc := usecases.NewSegmentService(src, &mockTrackpointRepo{}, cache, usecases.SegmentOptions{})

	first, err := svc.GetSegments(context.Background(), testBounds())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.GetSegments(context.Background(), testBounds())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if src.calls != 1 {
		t.Errorf("source called %d times, want 1 (second call cached)", src.calls)
	}
	if len(first) != len(second) {
		t.Errorf("cached result differs: %d vs %d segments", len(first), len(second))
	}
}

func TestBuildFromTrackpoints_JoinsConsecutiveSamples(t *testing.T) {
	base := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	// Cluster identity kicks in below MinPoints, so samples are their own
	// centers and the gating is what's under test.
	tps := []domain.Trackpoint{
		{Location: gp(41.0000, 2.0000), Time: base, Track: 1, Page: 1},
		{Location: gp(41.0005, 2.0000), Time: base.Add(20 * time.Second), Track: 1, Page: 1},
		// Time gap above the delta: not joined to the previous sample.
		{Location: gp(41.0010, 2.0000), Time: base.Add(10 * time.Minute), Track: 1, Page: 1},
		// Within time delta but a different track: not joined.
		{Location: gp(41.0015, 2.0000), Time: base.Add(10*time.Minute + 15*time.Second), Track: 2, Page: 1},
		// Same track as previous, close in time, but too far apart.
		{Location: gp(41.0500, 2.0000), Time: base.Add(10*time.Minute + 30*time.Second), Track: 2, Page: 1},
	}
	repo := &mockTrackpointRepo{
		listByBoundsFn: func(ctx context.Context, b domain.Bounds, limit int) ([]domain.Trackpoint, error) {
			return tps, nil
		},
	}
	svc := usecases.NewSegmentService(&mockSegmentSource{}, repo, nil, usecases.SegmentOptions{
		TimeDelta:       time.Minute,
		DistanceDeltaKm: 0.1,
	})

	segs, centers, err := svc.BuildFromTrackpoints(context.Background(), testBounds())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if centers != 5 {
		t.Errorf("expected 5 distinct centers, got %d", centers)
	}
	if len(segs) != 1 {
		t.Fatalf("expected exactly one segment, got %d: %+v", len(segs), segs)
	}
	want := domain.Segment{Start: gp(41.0000, 2.0000), End: gp(41.0005, 2.0000)}
	if segs[0] != want {
		t.Errorf("segment = %+v, want %+v", segs[0], want)
	}
}

func TestBuildFromTrackpoints_DedupsDirection(t *testing.T) {
	base := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	// Out and back over the same hop must produce one undirected segment.
	tps := []domain.Trackpoint{
		{Location: gp(41.0000, 2.0000), Time: base, Track: 1, Page: 1},
		{Location: gp(41.0005, 2.0000), Time: base.Add(20 * time.Second), Track: 1, Page: 1},
		{Location: gp(41.0000, 2.0000), Time: base.Add(40 * time.Second), Track: 1, Page: 1},
	}
	repo := &mockTrackpointRepo{
		listByBoundsFn: func(ctx context.Context, b domain.Bounds, limit int) ([]domain.Trackpoint, error) {
			return tps, nil
		},
	}
	svc := usecases.NewSegmentService(&mockSegmentSource{}, repo, nil, usecases.SegmentOptions{
		TimeDelta:       time.Minute,
		DistanceDeltaKm: 0.1,
	})

	segs, _, err := svc.BuildFromTrackpoints(context.Background(), testBounds())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 1 {
		t.Fatalf("expected one deduped segment, got %d", len(segs))
	}
}

func TestBuildFromTrackpoints_DegenerateInput(t *testing.T) {
	base := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	tps := []domain.Trackpoint{
		{Location: gp(41, 2), Time: base, Track: 1, Page: 1},
		{Location: gp(41, 2), Time: base.Add(10 * time.Second), Track: 1, Page: 1},
	}
	repo := &mockTrackpointRepo{
		listByBoundsFn: func(ctx context.Context, b domain.Bounds, limit int) ([]domain.Trackpoint, error) {
			return tps, nil
		},
	}
	svc := usecases.NewSegmentService(&mockSegmentSource{}, repo, nil, usecases.SegmentOptions{})

	segs, centers, err := svc.BuildFromTrackpoints(context.Background(), testBounds())
	if err != nil {
		t.Fatalf("degenerate input must not error: %v", err)
	}
	if len(segs) != 0 {
		t.Errorf("expected no segments, got %d", len(segs))
	}
	if centers != 1 {
		t.Errorf("expected 1 center, got %d", centers)
	}
}
