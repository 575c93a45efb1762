package http_test

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/samirrijal/nearbite/api"
)

func loadSpec(t *testing.T) *openapi3.T {
	t.Helper()
	loader := &openapi3.Loader{IsExternalRefsAllowed: false}
	spec, err := loader.LoadFromData(api.OpenAPI)
	if err != nil {
		t.Fatalf("failed to parse OpenAPI spec: %v", err)
	}
	return spec
}

// TestOpenAPISpec validates the OpenAPI specification is valid.
func TestOpenAPISpec(t *testing.T) {
	spec := loadSpec(t)

	// Validate the spec
	if err := spec.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI spec validation failed: %v", err)
	}

	// Check that key paths exist
	expectedPaths := []string{
		"/v1/health",
		"/v1/ready",
		"/v1/sessions",
		"/v1/sessions/{id}",
		"/v1/sessions/{id}/center",
		"/v1/sessions/{id}/next",
		"/v1/sessions/{id}/results",
		"/v1/sessions/{id}/results.geojson",
		"/v1/sessions/{id}/render",
		"/v1/photos",
		"/v1/stats",
		"/graphql",
	}

	for _, path := range expectedPaths {
		if item := spec.Paths.Find(path); item == nil {
			t.Errorf("expected path %s not found in spec", path)
		}
	}

	// Verify key schemas exist
	expectedSchemas := []string{
		"GeoPoint",
		"BoundingRectangle",
		"FoodLocation",
		"PhotoReference",
		"SessionStatus",
		"FetchResult",
		"RenderResponse",
		"SearchStats",
		"APIError",
		"Pagination",
	}

	for _, schema := range expectedSchemas {
		if spec.Components.Schemas[schema] == nil {
			t.Errorf("expected schema %s not found", schema)
		}
	}

	t.Logf("OpenAPI spec valid: %d paths, %d schemas", len(spec.Paths.Map()), len(spec.Components.Schemas))
}

// TestOpenAPIInfo verifies spec metadata.
func TestOpenAPIInfo(t *testing.T) {
	spec := loadSpec(t)

	if spec.Info.Title != "Nearbite API" {
		t.Errorf("expected title 'Nearbite API', got %q", spec.Info.Title)
	}

	if spec.Info.Version != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %q", spec.Info.Version)
	}

	if spec.Info.Description == "" {
		t.Error("expected non-empty description")
	}

	if len(spec.Servers) == 0 {
		t.Error("expected at least one server")
	}

	t.Logf("OpenAPI Info: %s v%s @ %s", spec.Info.Title, spec.Info.Version, spec.Servers[0].URL)
}

// TestOpenAPICoversRoutes checks every registered /v1 route is documented.
func TestOpenAPICoversRoutes(t *testing.T) {
	spec := loadSpec(t)

	app := setupApp(makeDeps(&mockPlaces{}))
	for _, r := range app.GetRoutes(true) {
		if !strings.HasPrefix(r.Path, "/v1/") || r.Method == "HEAD" {
			continue
		}
		path := strings.ReplaceAll(r.Path, ":id", "{id}")
		item := spec.Paths.Find(path)
		if item == nil {
			t.Errorf("route %s %s not documented", r.Method, r.Path)
			continue
		}
		if item.GetOperation(r.Method) == nil {
			t.Errorf("method %s missing for %s", r.Method, path)
		}
	}
}

func TestDocs_ServesEmbeddedSpec(t *testing.T) {
	app := setupApp(makeDeps(&mockPlaces{}))

	resp, err := app.Test(httptest.NewRequest("GET", "/docs/openapi.yaml", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.HasPrefix(string(body), "openapi: ") {
		t.Errorf("unexpected body prefix %q", string(body[:min(len(body), 20)]))
	}
}
