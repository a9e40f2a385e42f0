package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/martivilar/camins/internal/core/domain"
	"github.com/martivilar/camins/internal/core/ports"
)

// MonumentService handles point-of-interest lookups.
type MonumentService struct {
	monuments ports.MonumentRepository
	cache     ports.CacheService
}

// NewMonumentService creates a new MonumentService.
func NewMonumentService(monuments ports.MonumentRepository, cache ports.CacheService) *MonumentService {
	return &MonumentService{monuments: monuments, cache: cache}
}

// ListByBounds returns monuments inside a bounding box, optionally
// filtered by type.
func (s *MonumentService) ListByBounds(ctx context.Context, b domain.Bounds, types []string, limit int) ([]domain.Monument, error) {
	if limit <= 0 || limit > 1000 {
		limit = 500
	}

	cacheKey := fmt.Sprintf("monuments:box:%.4f:%.4f:%.4f:%.4f:%v:%d",
		b.MinLat, b.MinLon, b.MaxLat, b.MaxLon, types, limit)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var ms []domain.Monument
			if err := json.Unmarshal(data, &ms); err == nil {
				return ms, nil
			}
		}
	}

	ms, err := s.monuments.ListByBounds(ctx, b, types, limit)
	if err != nil {
		return nil, err
	}

	// Cache for 10 minutes; the catalogue changes only on re-ingest.
	if s.cache != nil {
		if data, err := json.Marshal(ms); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 600)
		}
	}

	return ms, nil
}

// FindNearby returns monuments within radiusKm of the given point.
func (s *MonumentService) FindNearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]domain.Monument, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if radiusKm <= 0 {
		return nil, fmt.Errorf("radius must be positive")
	}
	return s.monuments.FindNearby(ctx, lat, lon, radiusKm, limit)
}

// Search performs fuzzy search on monument names.
func (s *MonumentService) Search(ctx context.Context, query string, limit int) ([]domain.Monument, error) {
	if query == "" {
		return nil, fmt.Errorf("search query must not be empty")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.monuments.Search(ctx, query, limit)
}

// GetByID returns a single monument.
func (s *MonumentService) GetByID(ctx context.Context, id string) (*domain.Monument, error) {
	return s.monuments.GetByID(ctx, id)
}

// TypeCounts returns the monument type catalogue with per-type counts.
func (s *MonumentService) TypeCounts(ctx context.Context) (map[string]int, error) {
	cacheKey := "monuments:types"
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var counts map[string]int
			if err := json.Unmarshal(data, &counts); err == nil {
				return counts, nil
			}
		}
	}

	counts, err := s.monuments.TypeCounts(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(counts); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 3600)
		}
	}

	return counts, nil
}
