package docs

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSwaggerInfoMetadata verifies that the generated SwaggerInfo contains
// the correct API metadata from main.go annotations.
func TestSwaggerInfoMetadata(t *testing.T) {
	t.Run("title is set correctly", func(t *testing.T) {
		assert.Equal(t, "Network Optimizer API", SwaggerInfo.Title)
	})

	t.Run("version is set correctly", func(t *testing.T) {
		assert.Equal(t, "1.0", SwaggerInfo.Version)
	})

	t.Run("basePath is set correctly", func(t *testing.T) {
		assert.Equal(t, "/", SwaggerInfo.BasePath)
	})

	t.Run("description is set correctly", func(t *testing.T) {
		assert.Equal(t, "Internal API for supply network flow solving, demand allocation and distribution center planning.", SwaggerInfo.Description)
	})

	t.Run("instance name is swagger", func(t *testing.T) {
		assert.Equal(t, "swagger", SwaggerInfo.InfoInstanceName)
	})
}

// TestSwaggerTemplateIsValidJSON verifies that the swagger template
// can be rendered to valid JSON (when placeholders are replaced).
func TestSwaggerTemplateIsValidJSON(t *testing.T) {
	// The template uses Go text/template syntax with placeholders
	// We can't fully parse it as JSON without rendering, but we can verify
	// the template is not empty and contains expected structure markers
	template := SwaggerInfo.SwaggerTemplate
	require.NotEmpty(t, template, "Swagger template should not be empty")
	assert.Contains(t, template, `"swagger": "2.0"`, "Template should contain swagger version")
	assert.Contains(t, template, `"paths":`, "Template should contain paths section")
	assert.Contains(t, template, `"definitions":`, "Template should contain definitions section")
}

// TestSwaggerInfoReadDoc verifies that ReadDoc returns valid JSON.
func TestSwaggerInfoReadDoc(t *testing.T) {
	doc := SwaggerInfo.ReadDoc()
	require.NotEmpty(t, doc, "ReadDoc should return non-empty string")

	// Verify it's valid JSON
	var parsed map[string]interface{}
	err := json.Unmarshal([]byte(doc), &parsed)
	require.NoError(t, err, "ReadDoc should return valid JSON")

	// Verify key fields
	info, ok := parsed["info"].(map[string]interface{})
	require.True(t, ok, "JSON should have info section")
	assert.Equal(t, "Network Optimizer API", info["title"])
	assert.Equal(t, "1.0", info["version"])

	assert.Equal(t, "/", parsed["basePath"])
	assert.Equal(t, "2.0", parsed["swagger"])
}

// TestSwaggerInfoHasEndpoints verifies that the generated spec
// contains the expected API endpoints.
func TestSwaggerInfoHasEndpoints(t *testing.T) {
	doc := SwaggerInfo.ReadDoc()

	var parsed map[string]interface{}
	err := json.Unmarshal([]byte(doc), &parsed)
	require.NoError(t, err)

	paths, ok := parsed["paths"].(map[string]interface{})
	require.True(t, ok, "JSON should have paths section")

	// Verify some expected endpoints exist
	expectedPaths := []string{
		"/health",
		"/internal/network/solve",
		"/internal/network/allocate",
		"/internal/network/locate",
		"/internal/jobs/{kind}",
		"/internal/jobs/{id}",
	}

	for _, path := range expectedPaths {
		_, exists := paths[path]
		assert.True(t, exists, "Path %s should exist in swagger spec", path)
	}
}

// TestSwaggerInfoHasDefinitions verifies that the generated spec
// contains type definitions for request/response objects.
func TestSwaggerInfoHasDefinitions(t *testing.T) {
	doc := SwaggerInfo.ReadDoc()

	var parsed map[string]interface{}
	err := json.Unmarshal([]byte(doc), &parsed)
	require.NoError(t, err)

	definitions, ok := parsed["definitions"].(map[string]interface{})
	require.True(t, ok, "JSON should have definitions section")

	// Verify some expected types exist
	expectedTypes := []string{
		"optimizer.SolveRequest",
		"optimizer.LocateResponse",
		"handlers.JobResponse",
		"handlers.ErrorResponse",
	}

	for _, typeName := range expectedTypes {
		_, exists := definitions[typeName]
		assert.True(t, exists, "Type %s should exist in swagger definitions", typeName)
	}
}

var routerAnnotation = regexp.MustCompile(`^//\s*@Router\s+(\S+)\s+\[(\w+)\]`)

type annotatedRoute struct {
	path, method string
	secured      bool
	source       string
}

// handlerRoutes collects the @Router annotations of the handler sources along
// with whether their comment block declares @Security.
func handlerRoutes(t *testing.T) []annotatedRoute {
	t.Helper()
	files, err := filepath.Glob(filepath.Join("..", "internal", "handlers", "*.go"))
	require.NoError(t, err)

	var routes []annotatedRoute
	for _, file := range files {
		if strings.HasSuffix(file, "_test.go") {
			continue
		}
		f, err := os.Open(file)
		require.NoError(t, err)

		secured := false
		scanner := bufio.NewScanner(f)
		for line := 1; scanner.Scan(); line++ {
			text := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(text, "//") {
				secured = false
				continue
			}
			if strings.HasPrefix(text, "// @Security") {
				secured = true
			}
			if m := routerAnnotation.FindStringSubmatch(text); m != nil {
				routes = append(routes, annotatedRoute{
					path:    m[1],
					method:  strings.ToLower(m[2]),
					secured: secured,
					source:  filepath.Base(file) + ":" + strconv.Itoa(line),
				})
			}
		}
		require.NoError(t, scanner.Err())
		require.NoError(t, f.Close())
	}
	return routes
}

// TestSwaggerPathsMatchHandlerAnnotations keeps the checked-in spec in step
// with the handler annotations in both directions.
func TestSwaggerPathsMatchHandlerAnnotations(t *testing.T) {
	var parsed struct {
		Paths map[string]map[string]struct {
			Security []map[string][]string `json:"security"`
		} `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(SwaggerInfo.ReadDoc()), &parsed))

	routes := handlerRoutes(t)
	require.NotEmpty(t, routes, "no @Router annotations found in handlers")

	annotated := make(map[string]bool, len(routes))
	for _, r := range routes {
		annotated[r.method+" "+r.path] = true
		ops, ok := parsed.Paths[r.path]
		if !assert.True(t, ok, "%s: path %s missing from swagger paths", r.source, r.path) {
			continue
		}
		op, ok := ops[r.method]
		if !assert.True(t, ok, "%s: %s %s missing from swagger paths", r.source, r.method, r.path) {
			continue
		}
		assert.Equal(t, r.secured, len(op.Security) > 0, "%s: security mismatch for %s %s", r.source, r.method, r.path)
	}

	for path, ops := range parsed.Paths {
		for method := range ops {
			assert.True(t, annotated[method+" "+path], "swagger documents %s %s but no handler annotates it", method, path)
		}
	}
}
