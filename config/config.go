// Package config loads the service configuration from defaults, an optional
// YAML file, a .env file and NETOPT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/kosarica/network-optimizer/internal/jobs"
	"github.com/kosarica/network-optimizer/internal/middleware"
	"github.com/kosarica/network-optimizer/internal/optimizer"
	"github.com/kosarica/network-optimizer/internal/telemetry"
)

// EnvPrefix prefixes every environment override, e.g. NETOPT_SERVER_PORT.
const EnvPrefix = "NETOPT"

// Config holds the application configuration
type Config struct {
	Server    ServerConfig                 `mapstructure:"server"`
	Database  DatabaseConfig               `mapstructure:"database"`
	Logging   LoggingConfig                `mapstructure:"logging"`
	RateLimit middleware.RateLimiterConfig `mapstructure:"rate_limit"`
	Workers   WorkersConfig                `mapstructure:"workers"`
	Telemetry telemetry.Config             `mapstructure:"telemetry"`
	Optimizer optimizer.Config             `mapstructure:",squash"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	Host           string        `mapstructure:"host"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	InternalAPIKey string        `mapstructure:"internal_api_key"`
}

// DatabaseConfig holds database connection configuration. An empty URL
// disables the job endpoints; synchronous solving still works.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MinConnections  int           `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	Migrate         bool          `mapstructure:"migrate"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// WorkersConfig sizes the job workers and their maintenance loops.
type WorkersConfig struct {
	Enabled         bool               `mapstructure:"enabled"`
	Concurrency     int                `mapstructure:"concurrency"`
	BatchSize       int                `mapstructure:"batch_size"`
	PollInterval    time.Duration      `mapstructure:"poll_interval"`
	TaskTimeout     time.Duration      `mapstructure:"task_timeout"`
	SweepInterval   time.Duration      `mapstructure:"sweep_interval"`
	OrphanTimeout   time.Duration      `mapstructure:"orphan_timeout"`
	SubmitPerSecond float64            `mapstructure:"submit_per_second"`
	SubmitBurst     int                `mapstructure:"submit_burst"`
	Breaker         jobs.BreakerConfig `mapstructure:"breaker"`
	Cleanup         jobs.CleanupConfig `mapstructure:"cleanup"`
}

var globalConfig *Config

// Load loads the configuration from file, .env, and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := loadEnvFile(); err != nil {
		log.Debug().Err(err).Msg(".env file not loaded")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Optimizer.Validate(); err != nil {
		return nil, fmt.Errorf("invalid optimizer config: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

// loadEnvFile loads the first .env found. Variables already set in the
// environment win.
func loadEnvFile() error {
	for _, dir := range []string{".", "./config"} {
		path := filepath.Join(dir, ".env")
		if _, err := os.Stat(path); err == nil {
			return godotenv.Load(path)
		}
	}
	return errors.New("no .env file found")
}

// bindEnvVars binds the conventional unprefixed names.
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("database.url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")
	_ = v.BindEnv("server.internal_api_key", EnvPrefix+"_SERVER_INTERNAL_API_KEY", "INTERNAL_API_KEY")
	_ = v.BindEnv("logging.level", EnvPrefix+"_LOGGING_LEVEL", "LOG_LEVEL")
	_ = v.BindEnv("telemetry.endpoint", EnvPrefix+"_TELEMETRY_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)

	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 2)
	v.SetDefault("database.max_conn_lifetime", time.Hour)
	v.SetDefault("database.max_conn_idle_time", 30*time.Minute)
	v.SetDefault("database.migrate", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.no_color", false)

	rl := middleware.DefaultRateLimiterConfig()
	v.SetDefault("rate_limit.requests_per_second", rl.RequestsPerSecond)
	v.SetDefault("rate_limit.burst_size", rl.BurstSize)
	v.SetDefault("rate_limit.idle_ttl", rl.IdleTTL)

	v.SetDefault("workers.enabled", true)
	v.SetDefault("workers.concurrency", 2)
	v.SetDefault("workers.batch_size", 1)
	v.SetDefault("workers.poll_interval", time.Second)
	v.SetDefault("workers.task_timeout", 10*time.Minute)
	v.SetDefault("workers.sweep_interval", 5*time.Minute)
	v.SetDefault("workers.orphan_timeout", 15*time.Minute)
	v.SetDefault("workers.submit_per_second", 5.0)
	v.SetDefault("workers.submit_burst", 20)
	br := jobs.DefaultBreakerConfig()
	v.SetDefault("workers.breaker.max_failures", br.MaxFailures)
	v.SetDefault("workers.breaker.reset_timeout", br.ResetTimeout)
	v.SetDefault("workers.breaker.half_open_max_calls", br.HalfOpenMaxCalls)
	cl := jobs.DefaultCleanupConfig()
	v.SetDefault("workers.cleanup.enabled", cl.Enabled)
	v.SetDefault("workers.cleanup.interval", cl.Interval)
	v.SetDefault("workers.cleanup.retention_days", cl.RetentionDays)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", telemetry.DefaultServiceName)

	opt := optimizer.Defaults()
	v.SetDefault("max_customers", opt.MaxCustomers)
	v.SetDefault("solver.max_iterations", opt.Solver.MaxIterations)
	v.SetDefault("solver.noise_threshold", opt.Solver.NoiseThreshold)
	v.SetDefault("solver.assumed_speed_kmh", opt.Solver.AssumedSpeedKmh)
	v.SetDefault("solver.missing_data", opt.Solver.MissingData)
	v.SetDefault("solver.placeholder_demand", opt.Solver.PlaceholderDemand)
	v.SetDefault("solver.placeholder_capacity", opt.Solver.PlaceholderCapacity)
	v.SetDefault("solver.placeholder_distance", opt.Solver.PlaceholderDistance)
	v.SetDefault("solver.max_variables", opt.Solver.MaxVariables)
	v.SetDefault("location.max_iterations", opt.Location.MaxIterations)
	v.SetDefault("location.centroid_max_iterations", opt.Location.CentroidMaxIterations)
	v.SetDefault("location.centroid_tolerance_km", opt.Location.CentroidToleranceKm)
	v.SetDefault("location.move_threshold_km", opt.Location.MoveThresholdKm)
	v.SetDefault("location.site_match_km", opt.Location.SiteMatchKm)
	v.SetDefault("location.max_sites", opt.Location.MaxSites)
	v.SetDefault("location.seed", opt.Location.Seed)
}

// Get returns the configuration of the last successful Load.
func Get() *Config {
	return globalConfig
}
