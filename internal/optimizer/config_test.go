package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1000, cfg.Solver.MaxIterations)
	assert.Equal(t, 0.01, cfg.Solver.NoiseThreshold)
	assert.Equal(t, 100, cfg.Location.MaxIterations)
	assert.Equal(t, 1.0, cfg.Location.SiteMatchKm)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero iterations", func(c *Config) { c.Solver.MaxIterations = 0 }, "solver.max_iterations"},
		{"negative noise", func(c *Config) { c.Solver.NoiseThreshold = -1 }, "solver.noise_threshold"},
		{"zero speed", func(c *Config) { c.Solver.AssumedSpeedKmh = 0 }, "solver.assumed_speed_kmh"},
		{"unknown policy", func(c *Config) { c.Solver.MissingData = "guess" }, "solver.missing_data"},
		{"negative placeholder", func(c *Config) { c.Solver.PlaceholderDistance = -5 }, "solver.placeholder"},
		{"zero variables", func(c *Config) { c.Solver.MaxVariables = 0 }, "solver.max_variables"},
		{"zero rounds", func(c *Config) { c.Location.MaxIterations = 0 }, "location.max_iterations"},
		{"zero tolerance", func(c *Config) { c.Location.CentroidToleranceKm = 0 }, "location.centroid_tolerance_km"},
		{"negative match", func(c *Config) { c.Location.SiteMatchKm = -1 }, "location.site_match_km"},
		{"zero customers", func(c *Config) { c.MaxCustomers = 0 }, "max_customers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var invalid ErrInvalidConfig
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.field, invalid.Field)
		})
	}
}

func TestMissingDataPolicyOverride(t *testing.T) {
	cfg := Defaults()
	cfg.Solver.PlaceholderDemand = 7

	p := cfg.missingDataPolicy("")
	assert.Equal(t, "default", string(p.Mode))
	assert.Equal(t, 7.0, p.Demand)

	p = cfg.missingDataPolicy("reject")
	assert.Equal(t, "reject", string(p.Mode))
}
