package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/martivilar/camins/internal/adapters/http"
	"github.com/martivilar/camins/internal/core/domain"
	"github.com/martivilar/camins/internal/core/usecases"
)

// ---- Mock repositories ----

type mockMonumentRepo struct {
	listByBoundsFn func(ctx context.Context, b domain.Bounds, types []string, limit int) ([]domain.Monument, error)
	findNearbyFn   func(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]domain.Monument, error)
	searchFn       func(ctx context.Context, query string, limit int) ([]domain.Monument, error)
	getByIDFn      func(ctx context.Context, id string) (*domain.Monument, error)
	typeCountsFn   func(ctx context.Context) (map[string]int, error)
}

func (m *mockMonumentRepo) Upsert(ctx context.Context, mo *domain.Monument) error       { return nil }
func (m *mockMonumentRepo) UpsertBatch(ctx context.Context, ms []domain.Monument) error { return nil }
func (m *mockMonumentRepo) GetByID(ctx context.Context, id string) (*domain.Monument, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockMonumentRepo) ListByBounds(ctx context.Context, b domain.Bounds, types []string, limit int) ([]domain.Monument, error) {
	if m.listByBoundsFn != nil {
		return m.listByBoundsFn(ctx, b, types, limit)
	}
	return nil, nil
}
func (m *mockMonumentRepo) FindNearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]domain.Monument, error) {
	if m.findNearbyFn != nil {
		return m.findNearbyFn(ctx, lat, lon, radiusKm, limit)
	}
	return nil, nil
}
func (m *mockMonumentRepo) Search(ctx context.Context, query string, limit int) ([]domain.Monument, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit)
	}
	return nil, nil
}
func (m *mockMonumentRepo) TypeCounts(ctx context.Context) (map[string]int, error) {
	if m.typeCountsFn != nil {
		return m.typeCountsFn(ctx)
	}
	return nil, nil
}

type mockTrackpointRepo struct{}

func (m *mockTrackpointRepo) InsertBatch(ctx context.Context, tps []domain.Trackpoint) error {
	return nil
}
func (m *mockTrackpointRepo) ListByBounds(ctx context.Context, b domain.Bounds, limit int) ([]domain.Trackpoint, error) {
	return nil, nil
}
func (m *mockTrackpointRepo) CountByBounds(ctx context.Context, b domain.Bounds) (int, error) {
	return 0, nil
}

type mockSegmentSource struct {
	fetchFn func(ctx context.Context, b domain.Bounds) ([]domain.Segment, error)
}

func (m *mockSegmentSource) FetchSegments(ctx context.Context, b domain.Bounds) ([]domain.Segment, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, b)
	}
	return nil, nil
}

type mockJobRepo struct {
	getByIDFn func(ctx context.Context, id string) (*domain.RouteJob, error)
	listFn    func(ctx context.Context, offset, limit int) ([]domain.RouteJob, int, error)
	created   []*domain.RouteJob
}

func (m *mockJobRepo) Create(ctx context.Context, j *domain.RouteJob) error {
	m.created = append(m.created, j)
	return nil
}
func (m *mockJobRepo) GetByID(ctx context.Context, id string) (*domain.RouteJob, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockJobRepo) List(ctx context.Context, offset, limit int) ([]domain.RouteJob, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, offset, limit)
	}
	return nil, 0, nil
}
func (m *mockJobRepo) SetProgress(ctx context.Context, id, status string, progress float64) error {
	return nil
}
func (m *mockJobRepo) Complete(ctx context.Context, id string, result *domain.RouteResult) error {
	return nil
}
func (m *mockJobRepo) Fail(ctx context.Context, id, errMsg string) error { return nil }

type mockPublisher struct{}

func (m *mockPublisher) PublishJobCreated(ctx context.Context, j *domain.RouteJob) error { return nil }
func (m *mockPublisher) PublishJobEvent(ctx context.Context, e *domain.JobEvent) error   { return nil }

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	segments := usecases.NewSegmentService(&mockSegmentSource{}, &mockTrackpointRepo{}, nil, usecases.SegmentOptions{})
	routes := usecases.NewRouteService(segments, &mockMonumentRepo{}, 5)
	d := &handler.Dependencies{
		Monuments: usecases.NewMonumentService(&mockMonumentRepo{}, nil),
		Segments:  segments,
		Routes:    routes,
		Jobs:      usecases.NewJobService(&mockJobRepo{}, routes, &mockPublisher{}),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

// ---- Monument handler tests ----

func TestListMonuments_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Monuments = usecases.NewMonumentService(&mockMonumentRepo{
			listByBoundsFn: func(ctx context.Context, b domain.Bounds, types []string, limit int) ([]domain.Monument, error) {
				if len(types) != 2 {
					t.Errorf("expected 2 types, got %v", types)
				}
				return []domain.Monument{
					{ID: "m1", Name: "Castell de Claramunt", Type: "castell"},
					{ID: "m2", Name: "Ermita de Sant Joan", Type: "ermita"},
				}, nil
			},
		}, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/monuments?min_lat=41&min_lon=1&max_lat=42&max_lon=2&types=castell,ermita", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var ms []domain.Monument
	if err := json.NewDecoder(resp.Body).Decode(&ms); err != nil {
		t.Fatal(err)
	}
	if len(ms) != 2 {
		t.Errorf("expected 2 monuments, got %d", len(ms))
	}
}

func TestListMonuments_RequiresBounds(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/monuments", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestNearbyMonuments_BadRadius(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/monuments/nearby?lat=41&lon=2&radius_km=5000", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// A point on the equator and prime meridian is a legitimate query; only
// absent parameters are an error.
func TestNearbyMonuments_ZeroCoordinates(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Monuments = usecases.NewMonumentService(&mockMonumentRepo{
			findNearbyFn: func(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]domain.Monument, error) {
				if lat != 0 || lon != 0 {
					t.Errorf("expected origin (0, 0), got (%v, %v)", lat, lon)
				}
				return nil, nil
			},
		}, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/monuments/nearby?lat=0&lon=0", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 for equator origin, got %d", resp.StatusCode)
	}
}

func TestNearbyMonuments_MissingCoordinates(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/monuments/nearby?lat=41", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// Bounds straddling the equator and prime meridian include zero-valued
// parameters and must still parse.
func TestListMonuments_BoundsAcrossZero(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/monuments?min_lat=-1&min_lon=0&max_lat=1&max_lon=1", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 for bounds crossing zero, got %d", resp.StatusCode)
	}
}

func TestSearchMonuments_RequiresQuery(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/monuments/search", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var apiErr handler.APIError
	json.NewDecoder(resp.Body).Decode(&apiErr)
	if apiErr.Code != "bad_request" {
		t.Errorf("expected bad_request code, got %s", apiErr.Code)
	}
}

func TestMonumentTypes_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Monuments = usecases.NewMonumentService(&mockMonumentRepo{
			typeCountsFn: func(ctx context.Context) (map[string]int, error) {
				return map[string]int{"castell": 42}, nil
			},
		}, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/monuments/types", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var counts map[string]int
	json.NewDecoder(resp.Body).Decode(&counts)
	if counts["castell"] != 42 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

// ---- Segment handler tests ----

func TestGetSegments_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		src := &mockSegmentSource{
			fetchFn: func(ctx context.Context, b domain.Bounds) ([]domain.Segment, error) {
				return []domain.Segment{
					{Start: domain.GeoPoint{Lat: 41, Lon: 2}, End: domain.GeoPoint{Lat: 41.01, Lon: 2}},
				}, nil
			},
		}
		d.Segments = usecases.NewSegmentService(src, &mockTrackpointRepo{}, nil, usecases.SegmentOptions{})
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/segments?min_lat=41&min_lon=1&max_lat=42&max_lon=3", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Count    int              `json:"count"`
		Segments []domain.Segment `json:"segments"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Count != 1 || len(result.Segments) != 1 {
		t.Errorf("expected 1 segment, got %+v", result)
	}
}

// ---- Route job handler tests ----

func routeBody(t *testing.T, req domain.RouteRequest) *strings.Reader {
	t.Helper()
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	return strings.NewReader(string(data))
}

func validRouteRequest() domain.RouteRequest {
	return domain.RouteRequest{
		Bounds: domain.Bounds{MinLat: 41, MinLon: 1, MaxLat: 42, MaxLon: 3},
		Origin: domain.GeoPoint{Lat: 41.5, Lon: 2},
	}
}

func TestCreateRouteJob_Accepted(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("POST", "/v1/routes", routeBody(t, validRouteRequest()))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 202 {
		t.Fatalf("expected 202, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
	if loc := resp.Header.Get("Location"); !strings.HasPrefix(loc, "/v1/routes/jobs/") {
		t.Errorf("expected job Location header, got %q", loc)
	}

	var job domain.RouteJob
	json.NewDecoder(resp.Body).Decode(&job)
	if job.Status != domain.JobPending {
		t.Errorf("expected pending job, got %s", job.Status)
	}
}

func TestCreateRouteJob_InvalidOrigin(t *testing.T) {
	app := setupApp(makeDeps())

	bad := validRouteRequest()
	bad.Origin.Lat = 123
	req := httptest.NewRequest("POST", "/v1/routes", routeBody(t, bad))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCreateRouteJob_MalformedBody(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("POST", "/v1/routes", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPreviewRoute_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		src := &mockSegmentSource{
			fetchFn: func(ctx context.Context, b domain.Bounds) ([]domain.Segment, error) {
				return []domain.Segment{
					{Start: domain.GeoPoint{Lat: 41.00, Lon: 2.00}, End: domain.GeoPoint{Lat: 41.01, Lon: 2.00}},
					{Start: domain.GeoPoint{Lat: 41.01, Lon: 2.00}, End: domain.GeoPoint{Lat: 41.02, Lon: 2.00}},
				}, nil
			},
		}
		segments := usecases.NewSegmentService(src, &mockTrackpointRepo{}, nil, usecases.SegmentOptions{})
		monuments := &mockMonumentRepo{
			listByBoundsFn: func(ctx context.Context, b domain.Bounds, types []string, limit int) ([]domain.Monument, error) {
				return []domain.Monument{
					{ID: "m1", Name: "Torre del Breny", Location: domain.GeoPoint{Lat: 41.02, Lon: 2.00}},
				}, nil
			},
		}
		d.Segments = segments
		d.Routes = usecases.NewRouteService(segments, monuments, 5)
	})
	app := setupApp(deps)

	body := validRouteRequest()
	body.Origin = domain.GeoPoint{Lat: 41.00, Lon: 2.00}
	req := httptest.NewRequest("POST", "/v1/routes/preview", routeBody(t, body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}

	var res domain.RouteResult
	json.NewDecoder(resp.Body).Decode(&res)
	if len(res.Reachable) != 1 {
		t.Fatalf("expected 1 reachable monument, got %d", len(res.Reachable))
	}
	if res.Reachable[0].DistanceKm <= 0 {
		t.Errorf("expected positive distance, got %v", res.Reachable[0].DistanceKm)
	}
}

func TestGetJob_NotFound(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/routes/jobs/job-missing", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestListJobs_Pagination(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		jobs := &mockJobRepo{
			listFn: func(ctx context.Context, offset, limit int) ([]domain.RouteJob, int, error) {
				return []domain.RouteJob{
					{ID: "job-1", Status: domain.JobCompleted},
					{ID: "job-2", Status: domain.JobPending},
				}, 7, nil
			},
		}
		d.Jobs = usecases.NewJobService(jobs, d.Routes, &mockPublisher{})
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/routes/jobs?offset=0&limit=2", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if link := resp.Header.Get("Link"); !strings.Contains(link, `rel="next"`) {
		t.Errorf("expected next Link header, got %q", link)
	}

	var result struct {
		Data       []domain.RouteJob `json:"data"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Pagination.Total != 7 || len(result.Data) != 2 {
		t.Errorf("unexpected page: %+v", result)
	}
}

// ---- Export handler tests ----

func completedJob() *domain.RouteJob {
	now := time.Now()
	return &domain.RouteJob{
		ID:     "job-done",
		Status: domain.JobCompleted,
		Result: &domain.RouteResult{
			Origin: domain.GeoPoint{Lat: 41, Lon: 2},
			Reachable: []domain.MonumentRoute{{
				Monument:   domain.Monument{ID: "m1", Name: "Sant Jeroni"},
				DistanceKm: 2.5,
				Path: []domain.GeoPoint{
					{Lat: 41, Lon: 2}, {Lat: 41.01, Lon: 2},
				},
			}},
			ComputedAt: now,
		},
		CreatedAt:   now,
		CompletedAt: &now,
	}
}

func TestExportJob_KML(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		jobs := &mockJobRepo{
			getByIDFn: func(ctx context.Context, id string) (*domain.RouteJob, error) {
				return completedJob(), nil
			},
		}
		d.Jobs = usecases.NewJobService(jobs, d.Routes, &mockPublisher{})
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/routes/jobs/job-done/export?format=kml", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "kml") {
		t.Errorf("unexpected content type %q", ct)
	}
	body := string(readBody(t, resp.Body))
	if !strings.Contains(body, "Sant Jeroni") {
		t.Error("KML export missing monument placemark")
	}
}

func TestExportJob_GeoJSON(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		jobs := &mockJobRepo{
			getByIDFn: func(ctx context.Context, id string) (*domain.RouteJob, error) {
				return completedJob(), nil
			},
		}
		d.Jobs = usecases.NewJobService(jobs, d.Routes, &mockPublisher{})
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/routes/jobs/job-done/export?format=geojson", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var fc struct {
		Type string `json:"type"`
	}
	json.NewDecoder(resp.Body).Decode(&fc)
	if fc.Type != "FeatureCollection" {
		t.Errorf("expected FeatureCollection, got %q", fc.Type)
	}
}

func TestExportJob_PendingJob(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		jobs := &mockJobRepo{
			getByIDFn: func(ctx context.Context, id string) (*domain.RouteJob, error) {
				return &domain.RouteJob{ID: id, Status: domain.JobProcessing}, nil
			},
		}
		d.Jobs = usecases.NewJobService(jobs, d.Routes, &mockPublisher{})
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/routes/jobs/job-x/export", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Health ----

func TestHealth(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body map[string]any
	json.NewDecoder(resp.Body).Decode(&body)
	if body["status"] != "healthy" {
		t.Errorf("unexpected health body: %v", body)
	}
}
