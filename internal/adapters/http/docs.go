package http

import (
	"os"
	"sync"

	"github.com/gofiber/fiber/v2"
)

// specLocations is searched in order for the OpenAPI document. The first
// entry matches a binary started from the repo root; the second matches
// the container image, where the spec sits next to the binary.
var specLocations = []string{
	"api/openapi.yaml",
	"openapi.yaml",
}

const swaggerUIPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Camins API reference</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
  <style>body{margin:0;background:#fafafa} .topbar{display:none}</style>
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
<script>
  window.onload = function () {
    SwaggerUIBundle({
      url: '/docs/openapi.yaml',
      dom_id: '#swagger-ui',
      deepLinking: true,
      displayRequestDuration: true,
      presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
      layout: 'BaseLayout',
    });
  };
</script>
</body>
</html>`

var (
	specOnce  sync.Once
	specBytes []byte
)

// loadSpec reads the OpenAPI document once and caches it. The file does
// not change while the server runs, so a miss stays a miss.
func loadSpec() []byte {
	specOnce.Do(func() {
		for _, loc := range specLocations {
			if data, err := os.ReadFile(loc); err == nil {
				specBytes = data
				return
			}
		}
	})
	return specBytes
}

// SetupDocs registers Swagger UI at /docs and the raw OpenAPI document at
// /docs/openapi.yaml.
func SetupDocs(app *fiber.App) {
	app.Get("/docs", func(c *fiber.Ctx) error {
		c.Set("Content-Type", "text/html; charset=utf-8")
		return c.SendString(swaggerUIPage)
	})

	app.Get("/docs/openapi.yaml", func(c *fiber.Ctx) error {
		data := loadSpec()
		if data == nil {
			return errNotFound(c, "openapi.yaml not found")
		}
		c.Set("Content-Type", "application/yaml")
		c.Set("Cache-Control", "public, max-age=300")
		return c.Send(data)
	})
}
