package usecases

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/martivilar/camins/internal/core/domain"
	"github.com/martivilar/camins/internal/core/ports"
)

// JobService manages background route computations: the API creates jobs
// and the worker executes them, with lifecycle events on the broker in
// between.
type JobService struct {
	jobs      ports.JobRepository
	routes    *RouteService
	publisher ports.EventPublisher
}

// NewJobService creates a new JobService.
func NewJobService(jobs ports.JobRepository, routes *RouteService, publisher ports.EventPublisher) *JobService {
	return &JobService{jobs: jobs, routes: routes, publisher: publisher}
}

// ValidateRouteRequest rejects malformed coordinates and bounds. This is
// the only hard failure on the request path; everything downstream
// (unreachable monuments, empty regions) is reported in the result.
func ValidateRouteRequest(req domain.RouteRequest) error {
	if err := validatePoint(req.Origin); err != nil {
		return fmt.Errorf("origin: %w", err)
	}
	b := req.Bounds
	if err := validateLatLon(b.MinLat, b.MinLon); err != nil {
		return fmt.Errorf("bounds min: %w", err)
	}
	if err := validateLatLon(b.MaxLat, b.MaxLon); err != nil {
		return fmt.Errorf("bounds max: %w", err)
	}
	if b.MinLat >= b.MaxLat || b.MinLon >= b.MaxLon {
		return fmt.Errorf("bounds must have min strictly below max")
	}
	if req.EpsilonDeg < 0 || req.EpsilonDeg > 180 {
		return fmt.Errorf("epsilon_degrees must be in [0,180]")
	}
	return nil
}

func validatePoint(p domain.GeoPoint) error {
	return validateLatLon(p.Lat, p.Lon)
}

func validateLatLon(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90,90]", lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("longitude %v out of range [-180,180]", lon)
	}
	return nil
}

// CreateRouteJob validates the request, persists a pending job and hands
// it to the worker via the broker.
func (s *JobService) CreateRouteJob(ctx context.Context, req domain.RouteRequest) (*domain.RouteJob, error) {
	if err := ValidateRouteRequest(req); err != nil {
		return nil, err
	}

	id, err := generateJobID()
	if err != nil {
		return nil, fmt.Errorf("generate job id: %w", err)
	}
	now := time.Now().UTC()
	job := &domain.RouteJob{
		ID:        id,
		Status:    domain.JobPending,
		Request:   req,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	if err := s.publisher.PublishJobCreated(ctx, job); err != nil {
		// Without the broker message no worker will pick the job up, so
		// surface it as a failed job rather than leaving it pending forever.
		_ = s.jobs.Fail(ctx, job.ID, "dispatch failed")
		return nil, fmt.Errorf("dispatch job: %w", err)
	}
	s.publishEvent(ctx, job.ID, domain.JobPending, 0, "")

	slog.Info("route job created", "job_id", job.ID)
	return job, nil
}

// GetJob returns a job with its result if completed.
func (s *JobService) GetJob(ctx context.Context, id string) (*domain.RouteJob, error) {
	return s.jobs.GetByID(ctx, id)
}

// ListJobs returns a page of jobs, newest first, with the total count.
func (s *JobService) ListJobs(ctx context.Context, offset, limit int) ([]domain.RouteJob, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.jobs.List(ctx, offset, limit)
}

// Run executes a job on the worker: it marks the job processing, streams
// progress events while the route computation runs, and records the final
// result or failure. The computation error is also returned so the broker
// consumer can decide whether to redeliver.
func (s *JobService) Run(ctx context.Context, jobID string) error {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", jobID, err)
	}
	if job == nil {
		return fmt.Errorf("job %s not found", jobID)
	}
	if job.Status == domain.JobCompleted || job.Status == domain.JobFailed {
		slog.Warn("skipping already finished job", "job_id", jobID, "status", job.Status)
		return nil
	}

	if err := s.jobs.SetProgress(ctx, jobID, domain.JobProcessing, 0); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}
	s.publishEvent(ctx, jobID, domain.JobProcessing, 0, "")

	started := time.Now()
	result, err := s.routes.ComputeRoutes(ctx, job.Request, func(fraction float64) {
		_ = s.jobs.SetProgress(ctx, jobID, domain.JobProcessing, fraction)
		s.publishEvent(ctx, jobID, domain.JobProcessing, fraction, "")
	})
	if err != nil {
		slog.Error("route job failed", "job_id", jobID, "error", err)
		_ = s.jobs.Fail(ctx, jobID, err.Error())
		s.publishEvent(ctx, jobID, domain.JobFailed, 0, err.Error())
		return err
	}

	if err := s.jobs.Complete(ctx, jobID, result); err != nil {
		return fmt.Errorf("store result: %w", err)
	}
	s.publishEvent(ctx, jobID, domain.JobCompleted, 1, "")

	slog.Info("route job completed",
		"job_id", jobID,
		"duration_ms", time.Since(started).Milliseconds(),
		"reachable", len(result.Reachable),
		"unreachable", len(result.Unreachable))
	return nil
}

func (s *JobService) publishEvent(ctx context.Context, jobID, status string, progress float64, errMsg string) {
	if s.publisher == nil {
		return
	}
	e := &domain.JobEvent{JobID: jobID, Status: status, Progress: progress, Error: errMsg}
	if err := s.publisher.PublishJobEvent(ctx, e); err != nil {
		slog.Warn("publish job event failed", "job_id", jobID, "error", err)
	}
}

func generateJobID() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "job-" + hex.EncodeToString(b), nil
}
