// Package jobs submits optimization runs to the task queue and keeps the queue tidy.
package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kosarica/network-optimizer/internal/taskqueue"
)

var (
	// ErrUnavailable is returned while the breaker is open.
	ErrUnavailable = errors.New("job store temporarily unavailable")

	// ErrUnknownTaskType is returned for task types no worker handles.
	ErrUnknownTaskType = errors.New("unknown task type")
)

// Store is the subset of the task queue used for submissions and lookups.
type Store interface {
	ScheduleTask(ctx context.Context, input taskqueue.ScheduleTaskInput) (string, error)
	GetTask(ctx context.Context, taskID string) (*taskqueue.Task, error)
	CancelTask(ctx context.Context, taskID string) (bool, error)
}

// Submitter schedules optimization jobs behind a circuit breaker.
type Submitter struct {
	store   Store
	breaker *Breaker
	logger  zerolog.Logger
}

func NewSubmitter(store Store, config BreakerConfig) *Submitter {
	logger := log.With().Str("component", "jobs").Logger()
	return &Submitter{
		store:   store,
		breaker: NewBreaker("task_queue", config, logger),
		logger:  logger,
	}
}

func (s *Submitter) Breaker() *Breaker { return s.breaker }

// Submit schedules payload under taskType and returns the new job id.
func (s *Submitter) Submit(ctx context.Context, taskType string, payload any, priority int) (string, error) {
	if !knownTaskType(taskType) {
		return "", fmt.Errorf("%w: %s", ErrUnknownTaskType, taskType)
	}

	var id string
	err := s.guard(func() error {
		var err error
		id, err = s.store.ScheduleTask(ctx, taskqueue.ScheduleTaskInput{
			TaskType: taskType,
			Payload:  payload,
			Priority: priority,
		})
		return err
	})
	if err != nil {
		return "", err
	}

	s.logger.Info().Str("task_id", id).Str("task_type", taskType).Msg("Job submitted")
	return id, nil
}

// Get returns the job with id. Missing jobs yield taskqueue.ErrNotFound.
func (s *Submitter) Get(ctx context.Context, id string) (*taskqueue.Task, error) {
	var task *taskqueue.Task
	err := s.guard(func() error {
		var err error
		task, err = s.store.GetTask(ctx, id)
		return err
	})
	return task, err
}

// Cancel stops a job that has not started yet.
func (s *Submitter) Cancel(ctx context.Context, id string) (bool, error) {
	var cancelled bool
	err := s.guard(func() error {
		var err error
		cancelled, err = s.store.CancelTask(ctx, id)
		return err
	})
	return cancelled, err
}

// guard runs fn through the breaker. A missing task is an answer, not a
// store failure.
func (s *Submitter) guard(fn func() error) error {
	if !s.breaker.Allow() {
		return ErrUnavailable
	}
	err := fn()
	if err != nil && !errors.Is(err, taskqueue.ErrNotFound) {
		s.breaker.RecordFailure(err)
		return err
	}
	s.breaker.RecordSuccess()
	return err
}

func knownTaskType(t string) bool {
	for _, known := range taskqueue.AllTaskTypes {
		if t == known {
			return true
		}
	}
	return false
}
