package overpass

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/martivilar/camins/internal/core/domain"
)

func TestFetchSegments_SplitsWays(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if !strings.Contains(r.PostFormValue("data"), "highway") {
			t.Error("query should filter on highway ways")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"elements": [
				{"type": "way", "geometry": [
					{"lat": 41.0, "lon": 2.0},
					{"lat": 41.1, "lon": 2.0},
					{"lat": 41.2, "lon": 2.1}
				]},
				{"type": "node"},
				{"type": "way", "geometry": [
					{"lat": 40.5, "lon": 1.5},
					{"lat": 40.6, "lon": 1.5}
				]}
			]
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	segs, err := c.FetchSegments(context.Background(), domain.Bounds{
		MinLat: 40, MinLon: 1, MaxLat: 42, MaxLon: 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(segs) != 3 {
		t.Fatalf("expected 3 segments (2 + 1), got %d", len(segs))
	}
	first := domain.Segment{
		Start: domain.GeoPoint{Lat: 41.0, Lon: 2.0},
		End:   domain.GeoPoint{Lat: 41.1, Lon: 2.0},
	}
	if segs[0] != first {
		t.Errorf("first segment = %+v, want %+v", segs[0], first)
	}
}

func TestFetchSegments_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	_, err := c.FetchSegments(context.Background(), domain.Bounds{MinLat: 40, MinLon: 1, MaxLat: 42, MaxLon: 3})
	if err == nil {
		t.Fatal("expected an error for a non-200 response")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error should carry the status code: %v", err)
	}
}

func TestFetchSegments_EmptyRegion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"elements": []}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	segs, err := c.FetchSegments(context.Background(), domain.Bounds{MinLat: 40, MinLon: 1, MaxLat: 42, MaxLon: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 0 {
		t.Errorf("expected no segments, got %d", len(segs))
	}
}
