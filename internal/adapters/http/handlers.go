package http

import (
	"bytes"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/martivilar/camins/internal/adapters/export"
	"github.com/martivilar/camins/internal/adapters/postgres"
	"github.com/martivilar/camins/internal/core/domain"
	"github.com/martivilar/camins/internal/core/usecases"
	"github.com/martivilar/camins/internal/pkg/metrics"
)

// parseBounds reads a bounding box from min_lat/min_lon/max_lat/max_lon
// query parameters.
func parseBounds(c *fiber.Ctx) (domain.Bounds, error) {
	// Presence is checked on the raw params: zero is a valid coordinate
	// (equator, prime meridian), so a zero value cannot mean "missing".
	for _, p := range []string{"min_lat", "min_lon", "max_lat", "max_lon"} {
		if c.Query(p) == "" {
			return domain.Bounds{}, errors.New("min_lat, min_lon, max_lat and max_lon are required")
		}
	}
	b := domain.Bounds{
		MinLat: c.QueryFloat("min_lat", 0),
		MinLon: c.QueryFloat("min_lon", 0),
		MaxLat: c.QueryFloat("max_lat", 0),
		MaxLon: c.QueryFloat("max_lon", 0),
	}
	if b.MinLat >= b.MaxLat || b.MinLon >= b.MaxLon {
		return b, errors.New("bounds must have min strictly below max")
	}
	return b, nil
}

// DataStats holds row counts for the ingested geodata.
type DataStats struct {
	Monuments   int    `json:"monuments"`
	Trackpoints int    `json:"trackpoints"`
	Jobs        int    `json:"jobs"`
	LastIngest  string `json:"last_ingest,omitempty"`
}

// StatusHandler returns row counts from the geodata tables.
func StatusHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.DB == nil {
			return errInternal(c, "database not available")
		}

		var stats DataStats
		row := deps.DB.Pool.QueryRow(c.Context(), `
			SELECT
				(SELECT count(*) FROM monuments),
				(SELECT count(*) FROM trackpoints),
				(SELECT count(*) FROM route_jobs),
				COALESCE((SELECT max(created_at)::text FROM monuments), '')
		`)
		if err := row.Scan(&stats.Monuments, &stats.Trackpoints, &stats.Jobs, &stats.LastIngest); err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(stats)
	}
}

// ListMonumentsHandler returns monuments inside a bounding box.
// Types can be filtered with ?types=castell,ermita.
func ListMonumentsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		b, err := parseBounds(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		var types []string
		if raw := c.Query("types"); raw != "" {
			for _, t := range strings.Split(raw, ",") {
				if t = strings.TrimSpace(t); t != "" {
					types = append(types, t)
				}
			}
		}
		limit := c.QueryInt("limit", 500)

		ms, err := deps.Monuments.ListByBounds(c.Context(), b, types, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(ms)
	}
}

// NearbyMonumentsHandler returns monuments within a radius of a point.
func NearbyMonumentsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Query("lat") == "" || c.Query("lon") == "" {
			return errBadRequest(c, "lat and lon are required")
		}
		lat := c.QueryFloat("lat", 0)
		lon := c.QueryFloat("lon", 0)
		radius := c.QueryFloat("radius_km", 10)
		limit := c.QueryInt("limit", 50)

		if radius <= 0 || radius > 100 {
			return errBadRequest(c, "radius_km must be between 0 and 100")
		}

		ms, err := deps.Monuments.FindNearby(c.Context(), lat, lon, radius, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(ms)
	}
}

// SearchMonumentsHandler performs fuzzy search on monument names.
func SearchMonumentsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := c.Query("q")
		if query == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		if len(query) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}
		limit := c.QueryInt("limit", 20)

		ms, err := deps.Monuments.Search(c.Context(), query, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(ms)
	}
}

// GetMonumentHandler returns a single monument by ID.
func GetMonumentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "monument id is required")
		}

		m, err := deps.Monuments.GetByID(c.Context(), id)
		if err != nil {
			return errNotFound(c, "monument not found")
		}
		return c.JSON(m)
	}
}

// MonumentTypesHandler returns the monument type catalogue with counts.
func MonumentTypesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		counts, err := deps.Monuments.TypeCounts(c.Context())
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(counts)
	}
}

// GetSegmentsHandler returns trail segments for a bounding box.
func GetSegmentsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		b, err := parseBounds(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		segs, err := deps.Segments.GetSegments(c.Context(), b)
		if err != nil {
			return errUnavailable(c, err.Error())
		}
		return c.JSON(fiber.Map{
			"segments": segs,
			"count":    len(segs),
		})
	}
}

// DeriveSegmentsHandler builds segments from stored GPS trackpoints for a
// region. Intended for operators checking coverage before routing.
func DeriveSegmentsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		b, err := parseBounds(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		segs, centers, err := deps.Segments.BuildFromTrackpoints(c.Context(), b)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(fiber.Map{
			"segments":   segs,
			"count":      len(segs),
			"centers":    centers,
			"degenerate": centers < 2,
		})
	}
}

// CreateRouteJobHandler accepts a route request and queues it as a
// background job. Responds 202 with the pending job.
func CreateRouteJobHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req domain.RouteRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body: "+err.Error())
		}

		if err := usecases.ValidateRouteRequest(req); err != nil {
			return errBadRequest(c, err.Error())
		}

		job, err := deps.Jobs.CreateRouteJob(c.Context(), req)
		if err != nil {
			return errInternal(c, err.Error())
		}

		metrics.JobsCreated.Inc()
		c.Set("Location", "/v1/routes/jobs/"+job.ID)
		return c.Status(fiber.StatusAccepted).JSON(job)
	}
}

// PreviewRouteHandler computes routes synchronously. Useful for small
// regions; large ones should go through the job queue.
func PreviewRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req domain.RouteRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body: "+err.Error())
		}
		if err := usecases.ValidateRouteRequest(req); err != nil {
			return errBadRequest(c, err.Error())
		}

		res, err := deps.Routes.ComputeRoutes(c.Context(), req, nil)
		if err != nil {
			return errInternal(c, err.Error())
		}

		metrics.GraphNodes.Observe(float64(res.GraphNodes))
		return c.JSON(res)
	}
}

// GetJobHandler returns a job with its result if completed.
func GetJobHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		job, err := deps.Jobs.GetJob(c.Context(), c.Params("id"))
		if err != nil {
			if errors.Is(err, postgres.ErrJobNotFound) {
				return errNotFound(c, "job not found")
			}
			return errInternal(c, err.Error())
		}
		if job == nil {
			return errNotFound(c, "job not found")
		}
		return c.JSON(job)
	}
}

// ListJobsHandler returns a page of jobs, newest first.
func ListJobsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 20)

		jobs, total, err := deps.Jobs.ListJobs(c.Context(), offset, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: jobs, Pagination: pg})
	}
}

// ExportJobHandler renders a completed job's result as KML or GeoJSON.
// Format comes from ?format=kml|geojson (default kml).
func ExportJobHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		job, err := deps.Jobs.GetJob(c.Context(), c.Params("id"))
		if err != nil {
			if errors.Is(err, postgres.ErrJobNotFound) {
				return errNotFound(c, "job not found")
			}
			return errInternal(c, err.Error())
		}
		if job == nil {
			return errNotFound(c, "job not found")
		}
		if job.Status != domain.JobCompleted || job.Result == nil {
			return errBadRequest(c, "job has no result yet, status is "+job.Status)
		}

		var buf bytes.Buffer
		switch c.Query("format", "kml") {
		case "kml":
			if err := export.WriteKML(&buf, job.Result); err != nil {
				return errInternal(c, err.Error())
			}
			c.Set("Content-Type", "application/vnd.google-earth.kml+xml")
			c.Set("Content-Disposition", `attachment; filename="routes-`+job.ID+`.kml"`)
		case "geojson":
			if err := export.WriteGeoJSON(&buf, job.Result); err != nil {
				return errInternal(c, err.Error())
			}
			c.Set("Content-Type", "application/geo+json")
			c.Set("Content-Disposition", `attachment; filename="routes-`+job.ID+`.geojson"`)
		default:
			return errBadRequest(c, "format must be kml or geojson")
		}

		return c.Send(buf.Bytes())
	}
}
