package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/network-optimizer/internal/handlers"
	"github.com/kosarica/network-optimizer/internal/optimizer"
)

func TestGenerateGroupSchemaCollectsDefinitions(t *testing.T) {
	schema := generateGroupSchema(SchemaGroup{
		Name:  "network",
		Types: []any{optimizer.SolveRequest{}, handlers.ErrorResponse{}},
	})

	assert.Equal(t, "Network API Types", schema["title"])
	defs, ok := schema["$defs"].(map[string]any)
	require.True(t, ok)
	for _, name := range []string{"SolveRequest", "FacilityInput", "CustomerInput", "ErrorResponse"} {
		assert.Contains(t, defs, name)
	}
}

func TestWriteSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, writeSchema(map[string]any{"title": "x"}, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, "x", parsed["title"])
}
