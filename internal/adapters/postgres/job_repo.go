package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/martivilar/camins/internal/core/domain"
)

// ErrJobNotFound is returned when a job id has no row.
var ErrJobNotFound = errors.New("job not found")

// JobRepo implements ports.JobRepository with pgx. Request and result are
// stored as jsonb; jobs are queried by id and listed newest first, so no
// structured columns beyond status are needed.
type JobRepo struct {
	db *DB
}

// NewJobRepo creates a new JobRepo.
func NewJobRepo(db *DB) *JobRepo {
	return &JobRepo{db: db}
}

// Create persists a new pending job.
func (r *JobRepo) Create(ctx context.Context, j *domain.RouteJob) error {
	req, err := json.Marshal(j.Request)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO route_jobs (id, status, progress, request, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, j.ID, j.Status, j.Progress, req, j.CreatedAt, j.UpdatedAt)
	return err
}

// GetByID returns a job with its result if present.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*domain.RouteJob, error) {
	var j domain.RouteJob
	var req []byte
	var result []byte
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, status, progress, request, result, COALESCE(error, ''),
		       created_at, updated_at, completed_at
		FROM route_jobs WHERE id = $1
	`, id).Scan(
		&j.ID, &j.Status, &j.Progress, &req, &result, &j.Error,
		&j.CreatedAt, &j.UpdatedAt, &j.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(req, &j.Request); err != nil {
		return nil, fmt.Errorf("unmarshal request: %w", err)
	}
	if len(result) > 0 {
		j.Result = &domain.RouteResult{}
		if err := json.Unmarshal(result, j.Result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
	}
	return &j, nil
}

// List returns a page of jobs, newest first, plus the total count.
// Results are omitted from listings; they can be megabytes of paths.
func (r *JobRepo) List(ctx context.Context, offset, limit int) ([]domain.RouteJob, int, error) {
	var total int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM route_jobs`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, status, progress, request, COALESCE(error, ''),
		       created_at, updated_at, completed_at
		FROM route_jobs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var jobs []domain.RouteJob
	for rows.Next() {
		var j domain.RouteJob
		var req []byte
		if err := rows.Scan(
			&j.ID, &j.Status, &j.Progress, &req, &j.Error,
			&j.CreatedAt, &j.UpdatedAt, &j.CompletedAt,
		); err != nil {
			return nil, 0, err
		}
		if err := json.Unmarshal(req, &j.Request); err != nil {
			return nil, 0, fmt.Errorf("unmarshal request: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, total, rows.Err()
}

// SetProgress updates a job's status and progress fraction.
func (r *JobRepo) SetProgress(ctx context.Context, id, status string, progress float64) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE route_jobs SET status = $2, progress = $3, updated_at = now()
		WHERE id = $1
	`, id, status, progress)
	return err
}

// Complete stores the result and marks the job completed.
func (r *JobRepo) Complete(ctx context.Context, id string, result *domain.RouteResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	_, err = r.db.Pool.Exec(ctx, `
		UPDATE route_jobs
		SET status = $2, progress = 1, result = $3, updated_at = now(), completed_at = now()
		WHERE id = $1
	`, id, domain.JobCompleted, data)
	return err
}

// Fail marks the job failed with an error message.
func (r *JobRepo) Fail(ctx context.Context, id, errMsg string) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE route_jobs
		SET status = $2, error = $3, updated_at = now(), completed_at = now()
		WHERE id = $1
	`, id, domain.JobFailed, errMsg)
	return err
}
