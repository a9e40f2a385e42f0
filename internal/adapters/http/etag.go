package http

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/gofiber/fiber/v2"
)

// ETagMiddleware tags successful GET responses with a weak ETag derived
// from the body and answers If-None-Match revalidations with 304. Route
// previews and segment downloads are large and often re-requested with
// identical parameters, so revalidation saves real bandwidth here.
func ETagMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if err != nil {
			return err
		}

		if !cacheableResponse(c) {
			return nil
		}

		sum := sha256.Sum256(c.Response().Body())
		etag := `W/"` + hex.EncodeToString(sum[:8]) + `"`
		c.Set("ETag", etag)

		if c.Get("If-None-Match") == etag {
			c.Status(fiber.StatusNotModified)
			c.Response().ResetBody()
		}
		return nil
	}
}

func cacheableResponse(c *fiber.Ctx) bool {
	return c.Method() == fiber.MethodGet &&
		c.Response().StatusCode() == fiber.StatusOK &&
		len(c.Response().Body()) > 0
}
