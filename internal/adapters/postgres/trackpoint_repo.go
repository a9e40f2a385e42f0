package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/martivilar/camins/internal/core/domain"
)

// TrackpointRepo implements ports.TrackpointRepository with pgx.
type TrackpointRepo struct {
	db *DB
}

// NewTrackpointRepo creates a new TrackpointRepo.
func NewTrackpointRepo(db *DB) *TrackpointRepo {
	return &TrackpointRepo{db: db}
}

// InsertBatch stores raw GPS samples using pgx.Batch. Duplicate samples
// (same trace, same instant) are skipped.
func (r *TrackpointRepo) InsertBatch(ctx context.Context, tps []domain.Trackpoint) error {
	batch := &pgx.Batch{}
	for _, tp := range tps {
		batch.Queue(`
			INSERT INTO trackpoints (location, recorded_at, track, page)
			VALUES (ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3, $4, $5)
			ON CONFLICT (track, page, recorded_at) DO NOTHING
		`, tp.Location.Lon, tp.Location.Lat, tp.Time, tp.Track, tp.Page)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range tps {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// ListByBounds returns samples inside a bounding box. limit 0 means no
// limit; graph construction needs the full set.
func (r *TrackpointRepo) ListByBounds(ctx context.Context, b domain.Bounds, limit int) ([]domain.Trackpoint, error) {
	q := `
		SELECT ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lon,
		       recorded_at, track, page
		FROM trackpoints
		WHERE location && ST_MakeEnvelope($1, $2, $3, $4, 4326)
		ORDER BY page, track, recorded_at
	`
	args := []any{b.MinLon, b.MinLat, b.MaxLon, b.MaxLat}
	if limit > 0 {
		q += " LIMIT $5"
		args = append(args, limit)
	}

	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tps []domain.Trackpoint
	for rows.Next() {
		var tp domain.Trackpoint
		if err := rows.Scan(&tp.Location.Lat, &tp.Location.Lon, &tp.Time, &tp.Track, &tp.Page); err != nil {
			return nil, err
		}
		tps = append(tps, tp)
	}
	return tps, rows.Err()
}

// CountByBounds returns how many samples a bounding box holds.
func (r *TrackpointRepo) CountByBounds(ctx context.Context, b domain.Bounds) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM trackpoints
		WHERE location && ST_MakeEnvelope($1, $2, $3, $4, 4326)
	`, b.MinLon, b.MinLat, b.MaxLon, b.MaxLat).Scan(&n)
	return n, err
}
