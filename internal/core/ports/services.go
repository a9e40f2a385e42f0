package ports

import (
	"context"

	"github.com/martivilar/camins/internal/core/domain"
)

// SegmentSource fetches trail segments for a region from an external
// geodata provider (Overpass, a file dump, or a cache in front of either).
type SegmentSource interface {
	FetchSegments(ctx context.Context, b domain.Bounds) ([]domain.Segment, error)
}

// EventPublisher publishes job lifecycle events to a message broker.
type EventPublisher interface {
	PublishJobCreated(ctx context.Context, j *domain.RouteJob) error
	PublishJobEvent(ctx context.Context, e *domain.JobEvent) error
}

// EventSubscriber consumes job lifecycle events from a message broker.
type EventSubscriber interface {
	SubscribeJobCreated(ctx context.Context, handler func(ctx context.Context, jobID string) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
