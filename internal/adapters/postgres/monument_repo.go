package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/martivilar/camins/internal/core/domain"
)

// MonumentRepo implements ports.MonumentRepository with pgx.
type MonumentRepo struct {
	db *DB
}

// NewMonumentRepo creates a new MonumentRepo.
func NewMonumentRepo(db *DB) *MonumentRepo {
	return &MonumentRepo{db: db}
}

// Upsert inserts or updates a single monument, keyed by name and type.
func (r *MonumentRepo) Upsert(ctx context.Context, m *domain.Monument) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO monuments (name, type, location, region, url, metadata)
		VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography, $5, $6, $7)
		ON CONFLICT (name, type) DO UPDATE
		SET location = EXCLUDED.location, region = EXCLUDED.region,
		    url = EXCLUDED.url, metadata = EXCLUDED.metadata
	`, m.Name, m.Type, m.Location.Lon, m.Location.Lat, m.Region, m.URL, m.Metadata)
	return err
}

// UpsertBatch inserts many monuments using pgx.Batch.
func (r *MonumentRepo) UpsertBatch(ctx context.Context, ms []domain.Monument) error {
	batch := &pgx.Batch{}
	for _, m := range ms {
		batch.Queue(`
			INSERT INTO monuments (name, type, location, region, url, metadata)
			VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography, $5, $6, $7)
			ON CONFLICT (name, type) DO UPDATE
			SET location = EXCLUDED.location, region = EXCLUDED.region,
			    url = EXCLUDED.url, metadata = EXCLUDED.metadata
		`, m.Name, m.Type, m.Location.Lon, m.Location.Lat, m.Region, m.URL, m.Metadata)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range ms {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// GetByID returns a monument by UUID.
func (r *MonumentRepo) GetByID(ctx context.Context, id string) (*domain.Monument, error) {
	var m domain.Monument
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, name, type,
		       ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lon,
		       COALESCE(region, ''), COALESCE(url, ''), COALESCE(metadata, '{}'), created_at
		FROM monuments WHERE id = $1
	`, id).Scan(
		&m.ID, &m.Name, &m.Type,
		&m.Location.Lat, &m.Location.Lon,
		&m.Region, &m.URL, &m.Metadata, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListByBounds returns monuments inside a bounding box, optionally
// filtered by type. limit 0 means no limit; routing needs every monument
// in the region.
func (r *MonumentRepo) ListByBounds(ctx context.Context, b domain.Bounds, types []string, limit int) ([]domain.Monument, error) {
	q := `
		SELECT id, name, type,
		       ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lon,
		       COALESCE(region, ''), COALESCE(url, ''), COALESCE(metadata, '{}'), created_at
		FROM monuments
		WHERE location && ST_MakeEnvelope($1, $2, $3, $4, 4326)
	`
	args := []any{b.MinLon, b.MinLat, b.MaxLon, b.MaxLat}
	if len(types) > 0 {
		q += fmt.Sprintf(" AND type = ANY($%d)", len(args)+1)
		args = append(args, types)
	}
	q += " ORDER BY name, id"
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, limit)
	}

	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMonuments(rows)
}

// FindNearby returns monuments within radiusKm using PostGIS ST_DWithin.
func (r *MonumentRepo) FindNearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]domain.Monument, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, type,
		       ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lon,
		       COALESCE(region, ''), COALESCE(url, ''), COALESCE(metadata, '{}'), created_at,
		       ST_Distance(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) / 1000 as distance_km
		FROM monuments
		WHERE ST_DWithin(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		ORDER BY distance_km
		LIMIT $4
	`, lon, lat, radiusKm*1000, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ms []domain.Monument
	for rows.Next() {
		var m domain.Monument
		var dist float64
		if err := rows.Scan(
			&m.ID, &m.Name, &m.Type,
			&m.Location.Lat, &m.Location.Lon,
			&m.Region, &m.URL, &m.Metadata, &m.CreatedAt,
			&dist,
		); err != nil {
			return nil, err
		}
		m.Distance = &dist
		ms = append(ms, m)
	}
	return ms, rows.Err()
}

// Search performs fuzzy + full-text search on monument names.
func (r *MonumentRepo) Search(ctx context.Context, query string, limit int) ([]domain.Monument, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, type,
		       ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lon,
		       COALESCE(region, ''), COALESCE(url, ''), COALESCE(metadata, '{}'), created_at
		FROM monuments
		WHERE name_vector @@ plainto_tsquery('catalan', $1)
		   OR name %> $1
		ORDER BY similarity(name, $1) DESC
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMonuments(rows)
}

// TypeCounts returns the number of monuments per type.
func (r *MonumentRepo) TypeCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT type, COUNT(*) FROM monuments GROUP BY type ORDER BY type
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		counts[t] = n
	}
	return counts, rows.Err()
}

func scanMonuments(rows pgx.Rows) ([]domain.Monument, error) {
	var ms []domain.Monument
	for rows.Next() {
		var m domain.Monument
		if err := rows.Scan(
			&m.ID, &m.Name, &m.Type,
			&m.Location.Lat, &m.Location.Lon,
			&m.Region, &m.URL, &m.Metadata, &m.CreatedAt,
		); err != nil {
			return nil, err
		}
		ms = append(ms, m)
	}
	return ms, rows.Err()
}
