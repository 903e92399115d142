package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Cleaner deletes finished tasks older than a retention window.
type Cleaner interface {
	CleanupOldTasks(ctx context.Context, daysToKeep int) (int, error)
}

// CleanupConfig holds configuration for the task cleanup job
type CleanupConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	RetentionDays int           `mapstructure:"retention_days"`
	Enabled       bool          `mapstructure:"enabled"`
}

func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		Interval:      time.Hour,
		RetentionDays: 7,
		Enabled:       true,
	}
}

// CleanupManager periodically removes old finished tasks.
type CleanupManager struct {
	cleaner Cleaner
	config  CleanupConfig
	logger  *zerolog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewCleanupManager(cleaner Cleaner, config CleanupConfig, logger *zerolog.Logger) *CleanupManager {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if config.Interval <= 0 {
		config.Interval = DefaultCleanupConfig().Interval
	}
	if config.RetentionDays <= 0 {
		config.RetentionDays = DefaultCleanupConfig().RetentionDays
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &CleanupManager{
		cleaner: cleaner,
		config:  config,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Start begins the cleanup loop in the background.
func (cm *CleanupManager) Start() {
	if !cm.config.Enabled {
		cm.logger.Info().Msg("Cleanup jobs are disabled, not starting")
		close(cm.done)
		return
	}

	cm.logger.Info().
		Dur("interval", cm.config.Interval).
		Int("retention_days", cm.config.RetentionDays).
		Msg("Starting cleanup manager")

	go cm.run()
}

// Stop gracefully stops the cleanup loop.
func (cm *CleanupManager) Stop() {
	cm.logger.Info().Msg("Stopping cleanup manager...")
	cm.cancel()

	select {
	case <-cm.done:
	case <-time.After(5 * time.Second):
		cm.logger.Warn().Msg("Task cleanup job did not stop gracefully")
	}
	cm.logger.Info().Msg("Cleanup manager stopped")
}

func (cm *CleanupManager) run() {
	defer close(cm.done)

	ticker := time.NewTicker(cm.config.Interval)
	defer ticker.Stop()

	cm.RunOnce(cm.ctx)

	for {
		select {
		case <-cm.ctx.Done():
			return
		case <-ticker.C:
			cm.RunOnce(cm.ctx)
		}
	}
}

// RunOnce performs a single cleanup pass and returns the number of deleted tasks.
func (cm *CleanupManager) RunOnce(ctx context.Context) int {
	start := time.Now()
	deleted, err := cm.cleaner.CleanupOldTasks(ctx, cm.config.RetentionDays)
	if err != nil {
		cm.logger.Error().Err(err).Msg("Failed to clean up old tasks")
		return 0
	}

	duration := time.Since(start)
	if deleted > 0 {
		cm.logger.Info().
			Int("deleted", deleted).
			Dur("duration", duration).
			Msg("Cleaned up old tasks")
	} else {
		cm.logger.Debug().Dur("duration", duration).Msg("No old tasks to clean up")
	}
	return deleted
}
