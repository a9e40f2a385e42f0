package usecases_test

import (
	"context"
	"sync"

	"github.com/martivilar/camins/internal/core/domain"
)

// --- Mock MonumentRepository ---

type mockMonumentRepo struct {
	listByBoundsFn func(ctx context.Context, b domain.Bounds, types []string, limit int) ([]domain.Monument, error)
	findNearbyFn   func(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]domain.Monument, error)
	searchFn       func(ctx context.Context, query string, limit int) ([]domain.Monument, error)
	typeCountsFn   func(ctx context.Context) (map[string]int, error)
}

func (m *mockMonumentRepo) Upsert(ctx context.Context, mo *domain.Monument) error      { return nil }
func (m *mockMonumentRepo) UpsertBatch(ctx context.Context, ms []domain.Monument) error { return nil }
func (m *mockMonumentRepo) GetByID(ctx context.Context, id string) (*domain.Monument, error) {
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

// --- Mock TrackpointRepository ---

type mockTrackpointRepo struct {
	listByBoundsFn  func(ctx context.Context, b domain.Bounds, limit int) ([]domain.Trackpoint, error)
	countByBoundsFn func(ctx context.Context, b domain.Bounds) (int, error)
}

func (m *mockTrackpointRepo) InsertBatch(ctx context.Context, tps []domain.Trackpoint) error {
	return nil
}

func (m *mockTrackpointRepo) ListByBounds(ctx context.Context, b domain.Bounds, limit int) ([]domain.Trackpoint, error) {
	if m.listByBoundsFn != nil {
		return m.listByBoundsFn(ctx, b, limit)
	}
	return nil, nil
}

func (m *mockTrackpointRepo) CountByBounds(ctx context.Context, b domain.Bounds) (int, error) {
	if m.countByBoundsFn != nil {
		return m.countByBoundsFn(ctx, b)
	}
	return 0, nil
}

// --- Mock JobRepository ---

type mockJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*domain.RouteJob

	createFn func(ctx context.Context, j *domain.RouteJob) error
	failFn   func(ctx context.Context, id, errMsg string) error
}

func newMockJobRepo() *mockJobRepo {
	return &mockJobRepo{jobs: make(map[string]*domain.RouteJob)}
}

func (m *mockJobRepo) Create(ctx context.Context, j *domain.RouteJob) error {
	if m.createFn != nil {
		return m.createFn(ctx, j)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *j
	m.jobs[j.ID] = &cp
	return nil
}

func (m *mockJobRepo) GetByID(ctx context.Context, id string) (*domain.RouteJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok {
		cp := *j
		return &cp, nil
	}
	return nil, nil
}

func (m *mockJobRepo) List(ctx context.Context, offset, limit int) ([]domain.RouteJob, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.RouteJob, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, *j)
	}
	return out, len(out), nil
}

func (m *mockJobRepo) SetProgress(ctx context.Context, id, status string, progress float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok {
		j.Status = status
		j.Progress = progress
	}
	return nil
}

func (m *mockJobRepo) Complete(ctx context.Context, id string, result *domain.RouteResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok {
		j.Status = domain.JobCompleted
		j.Progress = 1
		j.Result = result
	}
	return nil
}

func (m *mockJobRepo) Fail(ctx context.Context, id, errMsg string) error {
	if m.failFn != nil {
		return m.failFn(ctx, id, errMsg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok {
		j.Status = domain.JobFailed
		j.Error = errMsg
	}
	return nil
}

// --- Mock SegmentSource ---

type mockSegmentSource struct {
	fetchFn func(ctx context.Context, b domain.Bounds) ([]domain.Segment, error)
	calls   int
}

func (m *mockSegmentSource) FetchSegments(ctx context.Context, b domain.Bounds) ([]domain.Segment, error) {
	m.calls++
	if m.fetchFn != nil {
		return m.fetchFn(ctx, b)
	}
	return nil, nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu        sync.Mutex
	created   []*domain.RouteJob
	events    []*domain.JobEvent
	createErr error
}

func (m *mockPublisher) PublishJobCreated(ctx context.Context, j *domain.RouteJob) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, j)
	return nil
}

func (m *mockPublisher) PublishJobEvent(ctx context.Context, e *domain.JobEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *mockPublisher) eventStatuses() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	for i, e := range m.events {
		out[i] = e.Status
	}
	return out
}

// --- Mock CacheService ---

type mockCache struct {
	mu    sync.Mutex
	store map[string][]byte
	sets  int
	hits  int
}

func newMockCache() *mockCache {
	return &mockCache{store: make(map[string][]byte)}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.store[key]; ok {
		m.hits++
		return v, nil
	}
	return nil, context.Canceled // any error means miss to the caller
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[key] = value
	m.sets++
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, key)
	return nil
}
