package ports

import (
	"context"

	"github.com/martivilar/camins/internal/core/domain"
)

// MonumentRepository stores the points-of-interest catalogue.
type MonumentRepository interface {
	Upsert(ctx context.Context, m *domain.Monument) error
	UpsertBatch(ctx context.Context, ms []domain.Monument) error
	GetByID(ctx context.Context, id string) (*domain.Monument, error)
	ListByBounds(ctx context.Context, b domain.Bounds, types []string, limit int) ([]domain.Monument, error)
	FindNearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]domain.Monument, error)
	Search(ctx context.Context, query string, limit int) ([]domain.Monument, error)
	TypeCounts(ctx context.Context) (map[string]int, error)
}

// TrackpointRepository stores raw GPS samples from recorded trail traces.
type TrackpointRepository interface {
	InsertBatch(ctx context.Context, tps []domain.Trackpoint) error
	ListByBounds(ctx context.Context, b domain.Bounds, limit int) ([]domain.Trackpoint, error)
	CountByBounds(ctx context.Context, b domain.Bounds) (int, error)
}

// JobRepository tracks background routing computations.
type JobRepository interface {
	Create(ctx context.Context, j *domain.RouteJob) error
	GetByID(ctx context.Context, id string) (*domain.RouteJob, error)
	List(ctx context.Context, offset, limit int) ([]domain.RouteJob, int, error)
	SetProgress(ctx context.Context, id string, status string, progress float64) error
	Complete(ctx context.Context, id string, result *domain.RouteResult) error
	Fail(ctx context.Context, id string, errMsg string) error
}
