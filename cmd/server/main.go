// @title Network Optimizer API
// @version 1.0
// @description Internal API for supply network flow solving, demand allocation and distribution center planning.
// @BasePath /
// @securityDefinitions.apikey InternalAPIKey
// @in header
// @name X-Internal-API-Key
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/kosarica/network-optimizer/config"
	_ "github.com/kosarica/network-optimizer/docs"
	"github.com/kosarica/network-optimizer/internal/database"
	"github.com/kosarica/network-optimizer/internal/handlers"
	"github.com/kosarica/network-optimizer/internal/jobs"
	"github.com/kosarica/network-optimizer/internal/middleware"
	"github.com/kosarica/network-optimizer/internal/optimizer"
	"github.com/kosarica/network-optimizer/internal/sweepers"
	"github.com/kosarica/network-optimizer/internal/taskqueue"
	"github.com/kosarica/network-optimizer/internal/telemetry"
	"github.com/kosarica/network-optimizer/internal/workers"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)

	logger.Info().Msg("Starting network optimizer")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry.WithEnv())
	if err != nil {
		logger.Warn().Err(err).Msg("Telemetry disabled")
		shutdownTelemetry = func(context.Context) error { return nil }
	}

	svc := optimizer.NewService(&cfg.Optimizer)
	handlers.InitOptimizer(svc)

	background := startJobs(ctx, cfg, svc, logger)

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID(*logger))
	router.Use(middleware.RequestLogger())

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	limiter := middleware.NewIPRateLimiter(cfg.RateLimit)
	go limiter.Run(ctx)

	internal := router.Group("/internal")
	internal.Use(middleware.InternalAuthMiddleware(middleware.ParseAPIKeys(cfg.Server.InternalAPIKey)...))
	internal.Use(middleware.RateLimitMiddleware(limiter))
	{
		internal.GET("/health", handlers.HealthCheck)

		network := internal.Group("/network")
		{
			network.POST("/solve", handlers.SolveNetwork)
			network.POST("/allocate", handlers.AllocateDemand)
			network.POST("/locate", handlers.LocateFacilities)
		}

		if background != nil {
			jobsGroup := internal.Group("/jobs")
			{
				jobsGroup.POST("/:kind",
					middleware.ServiceRateLimitMiddleware(cfg.Workers.SubmitPerSecond, cfg.Workers.SubmitBurst),
					handlers.SubmitJob)
				jobsGroup.GET("/:id", handlers.GetJob)
				jobsGroup.DELETE("/:id", handlers.CancelJob)
			}
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	if background != nil {
		background.stop()
	}
	database.Close()
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Failed to flush telemetry")
	}

	logger.Info().Msg("Server exited")
}

// jobRuntime holds the background loops that exist only with a database.
type jobRuntime struct {
	worker  *workers.Worker
	sweeper *sweepers.TaskQueueSweeper
	cleanup *jobs.CleanupManager
}

func (r *jobRuntime) stop() {
	if r.worker != nil {
		r.worker.Stop()
	}
	r.sweeper.Stop()
	r.cleanup.Stop()
}

// startJobs connects to the database and starts the job machinery. It returns
// nil when no database is configured or reachable.
func startJobs(ctx context.Context, cfg *config.Config, svc optimizer.Optimizer, logger *zerolog.Logger) *jobRuntime {
	if cfg.Database.URL == "" {
		logger.Info().Msg("DATABASE_URL not set, job endpoints disabled")
		return nil
	}

	if err := database.Connect(ctx, database.PoolConfig{
		URL:             cfg.Database.URL,
		MaxConns:        cfg.Database.MaxConnections,
		MinConns:        cfg.Database.MinConnections,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	}); err != nil {
		logger.Error().Err(err).Msg("Failed to connect to database, job endpoints disabled")
		return nil
	}
	logger.Info().Msg("Database connected")

	if cfg.Database.Migrate {
		if err := database.Migrate(ctx, database.Pool()); err != nil {
			logger.Fatal().Err(err).Msg("Failed to apply schema")
		}
		logger.Info().Msg("Schema applied")
	}

	queue := taskqueue.New(database.Pool())
	handlers.InitJobs(jobs.NewSubmitter(queue, cfg.Workers.Breaker), &cfg.Optimizer)

	rt := &jobRuntime{
		sweeper: sweepers.NewTaskQueueSweeper(queue, logger, cfg.Workers.SweepInterval, cfg.Workers.OrphanTimeout),
		cleanup: jobs.NewCleanupManager(queue, cfg.Workers.Cleanup, logger),
	}
	go rt.sweeper.Start(ctx)
	rt.cleanup.Start()

	if cfg.Workers.Enabled {
		hostname, _ := os.Hostname()
		rt.worker = workers.New(queue, workers.WorkerConfig{
			WorkerID:    fmt.Sprintf("%s-%d", hostname, os.Getpid()),
			TaskTypes:   taskqueue.AllTaskTypes,
			MaxTasks:    cfg.Workers.BatchSize,
			NumWorkers:  cfg.Workers.Concurrency,
			PollDelay:   cfg.Workers.PollInterval,
			TaskTimeout: cfg.Workers.TaskTimeout,
		})
		workers.RegisterOptimizationHandlers(rt.worker, svc)
		rt.worker.Start(ctx)
	}
	return rt
}

func initLogger(cfg config.LoggingConfig) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", telemetry.DefaultServiceName).Logger()
	log.Logger = logger
	return &logger
}
