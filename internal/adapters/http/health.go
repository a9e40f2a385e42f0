package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).String(),
			"version": "dev",
		})
	}
}

// ReadyHandler probes the dependencies a request actually needs. The
// database is required; NATS and the cache degrade the service but the
// read endpoints still work without them, so only the database and a
// disconnected broker flip readiness.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	type probe struct {
		name     string
		required bool
		check    func(ctx context.Context) error
	}

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
		defer cancel()

		probes := []probe{
			{name: "database", required: true, check: func(ctx context.Context) error {
				if deps.DB == nil {
					return errNotConfigured
				}
				return deps.DB.Pool.Ping(ctx)
			}},
			{name: "nats", required: true, check: func(ctx context.Context) error {
				if deps.NATS == nil {
					return errNotConfigured
				}
				if !deps.NATS.IsConnected() {
					return errDisconnected
				}
				return nil
			}},
			{name: "cache", required: false, check: func(ctx context.Context) error {
				if deps.Cache == nil {
					return errNotConfigured
				}
				return deps.Cache.Ping(ctx)
			}},
		}

		checks := make(map[string]string, len(probes))
		ready := true
		for _, p := range probes {
			if err := p.check(ctx); err != nil {
				checks[p.name] = err.Error()
				if p.required {
					ready = false
				}
				continue
			}
			checks[p.name] = "ok"
		}

		status, code := "ready", fiber.StatusOK
		if !ready {
			status, code = "not ready", fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	}
}
