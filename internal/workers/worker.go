// Package workers runs queued optimization jobs.
package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kosarica/network-optimizer/internal/taskqueue"
)

// Queue is the part of the task queue a worker drives.
type Queue interface {
	ClaimTasks(ctx context.Context, input taskqueue.ClaimTasksInput) ([]taskqueue.ClaimedTask, error)
	MarkProcessing(ctx context.Context, taskID string) error
	CompleteTask(ctx context.Context, taskID string, result any) error
	FailTask(ctx context.Context, taskID, errorMessage string, shouldRetry bool) error
}

// HandlerFunc runs one task and returns the result stored with it.
type HandlerFunc func(ctx context.Context, payload []byte) (any, error)

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}

type WorkerConfig struct {
	WorkerID    string
	TaskTypes   []string
	MaxTasks    int
	NumWorkers  int
	PollDelay   time.Duration
	TaskTimeout time.Duration
}

type Worker struct {
	queue    Queue
	config   WorkerConfig
	handlers map[string]HandlerFunc
	logger   zerolog.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func New(queue Queue, config WorkerConfig) *Worker {
	if config.NumWorkers < 1 {
		config.NumWorkers = 1
	}
	if config.MaxTasks < 1 {
		config.MaxTasks = 1
	}
	if config.PollDelay <= 0 {
		config.PollDelay = time.Second
	}
	return &Worker{
		queue:    queue,
		config:   config,
		handlers: make(map[string]HandlerFunc),
		logger:   log.With().Str("component", "worker").Str("worker_id", config.WorkerID).Logger(),
		stopChan: make(chan struct{}),
	}
}

func (w *Worker) RegisterHandler(taskType string, handler HandlerFunc) {
	w.handlers[taskType] = handler
}

// Start launches the poll loops. It returns immediately.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info().
		Strs("task_types", w.config.TaskTypes).
		Int("goroutines", w.config.NumWorkers).
		Msg("Starting worker")

	for i := 0; i < w.config.NumWorkers; i++ {
		w.wg.Add(1)
		go w.workerLoop(ctx, i)
	}
}

// Stop signals the loops and waits for in-flight tasks.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
	w.logger.Info().Msg("Worker stopping, waiting for in-flight tasks")
	w.wg.Wait()
	w.logger.Info().Msg("Worker stopped")
}

func (w *Worker) workerLoop(ctx context.Context, workerNum int) {
	defer w.wg.Done()
	workerID := fmt.Sprintf("%s-%d", w.config.WorkerID, workerNum)

	ticker := time.NewTicker(w.config.PollDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug().Str("loop", workerID).Msg("Worker loop shutting down")
			return
		case <-w.stopChan:
			w.logger.Debug().Str("loop", workerID).Msg("Worker loop received stop signal")
			return
		case <-ticker.C:
			w.processTasks(ctx, workerID)
		}
	}
}

func (w *Worker) processTasks(ctx context.Context, workerID string) {
	tasks, err := w.queue.ClaimTasks(ctx, taskqueue.ClaimTasksInput{
		WorkerID:  workerID,
		TaskTypes: w.config.TaskTypes,
		MaxTasks:  w.config.MaxTasks,
	})
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to claim tasks")
		return
	}
	if len(tasks) == 0 {
		return
	}

	w.logger.Debug().Str("loop", workerID).Int("task_count", len(tasks)).Msg("Worker claimed tasks")
	for _, task := range tasks {
		w.processTask(ctx, task)
	}
}

func (w *Worker) processTask(ctx context.Context, task taskqueue.ClaimedTask) {
	logger := w.logger.With().Str("task_id", task.ID).Str("task_type", task.TaskType).Logger()

	handler, exists := w.handlers[task.TaskType]
	if !exists {
		logger.Warn().Msg("No handler for task type")
		w.fail(ctx, logger, task.ID, "no handler registered", false)
		return
	}

	if err := w.queue.MarkProcessing(ctx, task.ID); err != nil {
		logger.Error().Err(err).Msg("Failed to mark task as processing")
		w.fail(ctx, logger, task.ID, fmt.Sprintf("status update failed: %v", err), true)
		return
	}

	runCtx := ctx
	if w.config.TaskTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, w.config.TaskTimeout)
		defer cancel()
	}

	started := time.Now()
	result, err := w.run(runCtx, handler, task.Payload)
	jobDuration.WithLabelValues(task.TaskType).Observe(time.Since(started).Seconds())
	if err != nil {
		retry := !IsPermanent(err)
		outcome := outcomeFailed
		if retry {
			outcome = outcomeRetryable
		}
		jobOutcomes.WithLabelValues(task.TaskType, outcome).Inc()
		logger.Error().Err(err).Bool("permanent", !retry).Msg("Task failed")
		w.fail(ctx, logger, task.ID, err.Error(), retry)
		return
	}

	if err := w.queue.CompleteTask(ctx, task.ID, result); err != nil {
		logger.Error().Err(err).Msg("Failed to mark task as completed")
		return
	}
	jobOutcomes.WithLabelValues(task.TaskType, outcomeCompleted).Inc()
	logger.Info().Dur("duration", time.Since(started)).Msg("Worker completed task")
}

// run calls the handler, turning a panic into a permanent failure.
func (w *Worker) run(ctx context.Context, handler HandlerFunc, payload []byte) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = Permanent(fmt.Errorf("handler panic: %v", r))
		}
	}()
	return handler(ctx, payload)
}

func (w *Worker) fail(ctx context.Context, logger zerolog.Logger, taskID, msg string, retry bool) {
	if err := w.queue.FailTask(ctx, taskID, msg, retry); err != nil {
		logger.Error().Err(err).Msg("Failed to record task failure")
	}
}
