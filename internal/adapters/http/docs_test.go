package http_test

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDocsPage(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/docs", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected HTML content type, got %q", ct)
	}

	body := string(readBody(t, resp.Body))
	if !strings.Contains(body, "swagger-ui") {
		t.Error("docs page should embed Swagger UI")
	}
	if !strings.Contains(body, "/docs/openapi.yaml") {
		t.Error("docs page should point Swagger UI at the served spec")
	}
}

func TestDocsSpec_NotFound(t *testing.T) {
	// Tests run from the package directory, where no spec file exists.
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/docs/openapi.yaml", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404 without a spec on disk, got %d", resp.StatusCode)
	}
}
