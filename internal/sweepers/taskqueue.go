// Package sweepers holds periodic maintenance loops for the task queue.
package sweepers

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// DefaultOrphanTimeout is how long a claimed task may go without an update
// before it is considered abandoned.
const DefaultOrphanTimeout = 10 * time.Minute

// OrphanRecoverer resets tasks whose worker disappeared.
type OrphanRecoverer interface {
	RecoverOrphanedTasks(ctx context.Context, timeout time.Duration) (recovered, failed int, err error)
}

// TaskQueueSweeper periodically recovers orphaned tasks
type TaskQueueSweeper struct {
	queue    OrphanRecoverer
	logger   *zerolog.Logger
	interval time.Duration
	timeout  time.Duration
	stopChan chan struct{}
}

func NewTaskQueueSweeper(queue OrphanRecoverer, logger *zerolog.Logger, interval, timeout time.Duration) *TaskQueueSweeper {
	if timeout <= 0 {
		timeout = DefaultOrphanTimeout
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &TaskQueueSweeper{
		queue:    queue,
		logger:   logger,
		interval: interval,
		timeout:  timeout,
		stopChan: make(chan struct{}),
	}
}

// Start runs the sweep loop until ctx is cancelled or Stop is called.
func (s *TaskQueueSweeper) Start(ctx context.Context) {
	s.logger.Info().
		Dur("interval", s.interval).
		Dur("orphan_timeout", s.timeout).
		Msg("Starting task queue sweeper")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Task queue sweeper stopping (context cancelled)")
			return
		case <-s.stopChan:
			s.logger.Info().Msg("Task queue sweeper stopping (stop signal)")
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.Error().Err(err).Msg("Failed to recover orphaned tasks")
			}
		}
	}
}

func (s *TaskQueueSweeper) Stop() {
	close(s.stopChan)
}

// Sweep runs one recovery pass.
func (s *TaskQueueSweeper) Sweep(ctx context.Context) error {
	s.logger.Debug().Msg("Running orphaned task recovery")

	recovered, failed, err := s.queue.RecoverOrphanedTasks(ctx, s.timeout)
	if err != nil {
		return fmt.Errorf("recover orphaned tasks: %w", err)
	}

	if recovered > 0 || failed > 0 {
		s.logger.Info().
			Int("recovered", recovered).
			Int("failed", failed).
			Msg("Recovered orphaned tasks")
	}
	return nil
}
