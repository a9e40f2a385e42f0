package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on endpoint.
// Adds sensible defaults if not already set by the handler.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != "GET" {
			return err
		}

		// Don't override if already set
		if existing := c.Get("Cache-Control"); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10" // Very short for system checks

		case path == "/metrics":
			ttl = "no-cache" // Metrics are real-time

		case path == "/graphql":
			ttl = "private, max-age=0" // GraphQL varies wildly

		case path == "/v1/monuments/types":
			ttl = "public, max-age=3600" // Catalogue changes only on re-ingest

		case strings.HasPrefix(path, "/v1/monuments/nearby"),
			strings.HasPrefix(path, "/v1/monuments/search"):
			ttl = "public, max-age=300" // 5 min for location and search queries

		case strings.HasPrefix(path, "/v1/monuments"):
			ttl = "public, max-age=600" // 10 min for the catalogue

		case strings.HasPrefix(path, "/v1/segments"):
			ttl = "public, max-age=3600" // Trail data is slow-moving

		case strings.HasPrefix(path, "/v1/routes/jobs"):
			ttl = "no-cache" // Jobs change state

		case path == "/v1/status":
			ttl = "public, max-age=60" // Data stats: 1 min

		case strings.HasPrefix(path, "/v1/"):
			ttl = "public, max-age=300" // 5 min default for API endpoints
		}

		if ttl != "" {
			c.Set("Cache-Control", ttl)
		}

		return err
	}
}
