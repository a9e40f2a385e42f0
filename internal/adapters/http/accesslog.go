package http

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// AccessLogMiddleware emits one structured slog line per request. 4xx
// logs at warn, 5xx and handler errors at error.
func AccessLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		method, path := c.Method(), c.Path()

		err := c.Next()

		status := c.Response().StatusCode()
		attrs := []any{
			"method", method,
			"path", path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"bytes_out", len(c.Response().Body()),
			"request_id", c.Get(fiber.HeaderXRequestID, "unknown"),
		}
		if err != nil {
			attrs = append(attrs, "error", err.Error())
		}

		switch {
		case err != nil || status >= 500:
			slog.Error(method+" "+path, attrs...)
		case status >= 400:
			slog.Warn(method+" "+path, attrs...)
		default:
			slog.Info(method+" "+path, attrs...)
		}

		return err
	}
}
