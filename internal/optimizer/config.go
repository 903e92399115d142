package optimizer

import (
	"github.com/kosarica/network-optimizer/internal/costmodel"
	"github.com/kosarica/network-optimizer/internal/location"
	"github.com/kosarica/network-optimizer/internal/lp"
)

// Config holds the configuration for the optimization service.
// It is loaded from environment variables or a config file.
type Config struct {
	Solver   SolverConfig   `mapstructure:"solver"`
	Location LocationConfig `mapstructure:"location"`

	// Validation limits
	MaxCustomers int `mapstructure:"max_customers" env:"MAX_CUSTOMERS" default:"10000"`
}

// SolverConfig tunes the LP flow solver.
type SolverConfig struct {
	MaxIterations   int     `mapstructure:"max_iterations" env:"SOLVER_MAX_ITERATIONS" default:"1000"`
	NoiseThreshold  float64 `mapstructure:"noise_threshold" env:"SOLVER_NOISE_THRESHOLD" default:"0.01"`
	AssumedSpeedKmh float64 `mapstructure:"assumed_speed_kmh" env:"SOLVER_ASSUMED_SPEED_KMH" default:"60"`

	// Missing data handling: "default" substitutes placeholders, "reject" fails
	MissingData         string  `mapstructure:"missing_data" env:"SOLVER_MISSING_DATA" default:"default"`
	PlaceholderDemand   float64 `mapstructure:"placeholder_demand" default:"100"`
	PlaceholderCapacity float64 `mapstructure:"placeholder_capacity" default:"10000"`
	PlaceholderDistance float64 `mapstructure:"placeholder_distance" default:"1000"`

	// MaxVariables bounds the dense tableau size
	MaxVariables int `mapstructure:"max_variables" env:"SOLVER_MAX_VARIABLES" default:"20000"`
}

// LocationConfig tunes the location planner.
type LocationConfig struct {
	MaxIterations         int     `mapstructure:"max_iterations" default:"100"`
	CentroidMaxIterations int     `mapstructure:"centroid_max_iterations" default:"100"`
	CentroidToleranceKm   float64 `mapstructure:"centroid_tolerance_km" default:"0.0001"`
	MoveThresholdKm       float64 `mapstructure:"move_threshold_km" default:"0.01"`
	SiteMatchKm           float64 `mapstructure:"site_match_km" default:"1.0"`
	MaxSites              int     `mapstructure:"max_sites" default:"50"`

	// Seed pins k-means initialisation when non-zero
	Seed uint64 `mapstructure:"seed" env:"LOCATION_SEED" default:"0"`
}

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Solver: SolverConfig{
			MaxIterations:       lp.DefaultMaxIterations,
			NoiseThreshold:      lp.DefaultNoiseThreshold,
			AssumedSpeedKmh:     lp.DefaultAssumedSpeedKmh,
			MissingData:         string(lp.PolicyDefault),
			PlaceholderDemand:   lp.DefaultPlaceholderDemand,
			PlaceholderCapacity: lp.DefaultPlaceholderCapacity,
			PlaceholderDistance: lp.DefaultPlaceholderDistance,
			MaxVariables:        20000,
		},
		Location: LocationConfig{
			MaxIterations:         location.DefaultClusterIterations,
			CentroidMaxIterations: location.DefaultCentroidIterations,
			CentroidToleranceKm:   location.DefaultCentroidToleranceKm,
			MoveThresholdKm:       location.DefaultMoveThresholdKm,
			SiteMatchKm:           costmodel.DefaultSiteMatchKm,
			MaxSites:              50,
		},
		MaxCustomers: 10000,
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Solver.MaxIterations < 1 {
		return ErrInvalidConfig{Field: "solver.max_iterations", Reason: "must be at least 1"}
	}
	if c.Solver.NoiseThreshold < 0 {
		return ErrInvalidConfig{Field: "solver.noise_threshold", Reason: "must be non-negative"}
	}
	if c.Solver.AssumedSpeedKmh <= 0 {
		return ErrInvalidConfig{Field: "solver.assumed_speed_kmh", Reason: "must be positive"}
	}
	switch lp.PolicyMode(c.Solver.MissingData) {
	case lp.PolicyDefault, lp.PolicyReject:
	default:
		return ErrInvalidConfig{Field: "solver.missing_data", Reason: "must be default or reject"}
	}
	if c.Solver.PlaceholderDemand < 0 || c.Solver.PlaceholderCapacity < 0 || c.Solver.PlaceholderDistance < 0 {
		return ErrInvalidConfig{Field: "solver.placeholder", Reason: "must be non-negative"}
	}
	if c.Solver.MaxVariables < 1 {
		return ErrInvalidConfig{Field: "solver.max_variables", Reason: "must be at least 1"}
	}
	if c.Location.MaxIterations < 1 {
		return ErrInvalidConfig{Field: "location.max_iterations", Reason: "must be at least 1"}
	}
	if c.Location.CentroidMaxIterations < 1 {
		return ErrInvalidConfig{Field: "location.centroid_max_iterations", Reason: "must be at least 1"}
	}
	if c.Location.CentroidToleranceKm <= 0 {
		return ErrInvalidConfig{Field: "location.centroid_tolerance_km", Reason: "must be positive"}
	}
	if c.Location.MoveThresholdKm <= 0 {
		return ErrInvalidConfig{Field: "location.move_threshold_km", Reason: "must be positive"}
	}
	if c.Location.SiteMatchKm < 0 {
		return ErrInvalidConfig{Field: "location.site_match_km", Reason: "must be non-negative"}
	}
	if c.Location.MaxSites < 1 {
		return ErrInvalidConfig{Field: "location.max_sites", Reason: "must be at least 1"}
	}
	if c.MaxCustomers < 1 {
		return ErrInvalidConfig{Field: "max_customers", Reason: "must be at least 1"}
	}
	return nil
}

// missingDataPolicy builds the policy for a request, the request mode winning
// over the configured one.
func (c *Config) missingDataPolicy(mode string) lp.MissingDataPolicy {
	if mode == "" {
		mode = c.Solver.MissingData
	}
	return lp.MissingDataPolicy{
		Mode:     lp.PolicyMode(mode),
		Demand:   c.Solver.PlaceholderDemand,
		Capacity: c.Solver.PlaceholderCapacity,
		Distance: c.Solver.PlaceholderDistance,
	}
}

// ErrInvalidConfig is returned when the configuration is invalid.
type ErrInvalidConfig struct {
	Field  string
	Reason string
}

func (e ErrInvalidConfig) Error() string {
	return e.Field + ": " + e.Reason
}
