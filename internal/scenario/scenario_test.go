package scenario

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/network-optimizer/internal/optimizer"
)

const locateScenario = `{
  "name": "two towns",
  "kind": "LOCATE",
  "request": {
    "customers": [
      {"id": "zg", "location": {"latitude": 45.815, "longitude": 15.982}, "demand": {"total": 100}},
      {"id": "st", "location": {"latitude": 43.508, "longitude": 16.440}, "demand": {"total": 50}}
    ],
    "settings": {"numDCs": 2, "seed": 7}
  }
}`

func TestParseWrapped(t *testing.T) {
	s, err := Parse([]byte(locateScenario))
	require.NoError(t, err)
	assert.Equal(t, "two towns", s.Name)

	kind, err := s.ResolveKind(optimizer.KindSolve)
	require.NoError(t, err)
	assert.Equal(t, optimizer.KindLocate, kind)

	var req optimizer.LocateRequest
	require.NoError(t, s.Decode(&req))
	assert.Len(t, req.Customers, 2)
	assert.Equal(t, 2, req.Settings.NumDCs)
}

func TestParseBareRequest(t *testing.T) {
	s, err := Parse([]byte(`{"products": ["p1"], "customers": []}`))
	require.NoError(t, err)
	assert.Empty(t, s.Kind)

	_, err = s.ResolveKind("")
	assert.ErrorIs(t, err, ErrUnknownKind)

	kind, err := s.ResolveKind(optimizer.KindSolve)
	require.NoError(t, err)
	assert.Equal(t, optimizer.KindSolve, kind)
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	s, err := Parse([]byte(`{"customerz": []}`))
	require.NoError(t, err)
	var req optimizer.LocateRequest
	assert.Error(t, s.Decode(&req))
}

func TestLoadNamesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coastal.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"customers": []}`), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "coastal", s.Name)
	assert.Equal(t, path, s.Path)
}

func TestRunLocateScenario(t *testing.T) {
	s, err := Parse([]byte(locateScenario))
	require.NoError(t, err)

	out, err := s.Run(context.Background(), optimizer.NewService(nil), optimizer.KindLocate)
	require.NoError(t, err)

	resp, ok := out.(*optimizer.LocateResponse)
	require.True(t, ok)
	assert.Len(t, resp.DCs, 2)
	assert.True(t, resp.Feasible)
}
