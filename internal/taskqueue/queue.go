package taskqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a task id does not exist.
var ErrNotFound = errors.New("task not found")

const DefaultMaxRetries = 3

type TaskQueue struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *TaskQueue {
	return &TaskQueue{pool: pool}
}

type ScheduleTaskInput struct {
	TaskType    string
	Payload     any
	Priority    int
	ScheduledAt *time.Time
	MaxRetries  int
}

// ScheduleTask inserts a pending task and returns its id.
func (q *TaskQueue) ScheduleTask(ctx context.Context, input ScheduleTaskInput) (string, error) {
	payload, err := json.Marshal(input.Payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	maxRetries := DefaultMaxRetries
	if input.MaxRetries > 0 {
		maxRetries = input.MaxRetries
	}
	scheduled := time.Now()
	if input.ScheduledAt != nil {
		scheduled = *input.ScheduledAt
	}

	id := uuid.NewString()
	_, err = q.pool.Exec(ctx, `
		INSERT INTO task_queue (id, task_type, payload, priority, scheduled_for, max_retries)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, input.TaskType, payload, max(input.Priority, 0), scheduled, maxRetries)
	if err != nil {
		return "", fmt.Errorf("insert task: %w", err)
	}
	return id, nil
}

type ClaimTasksInput struct {
	WorkerID  string
	TaskTypes []string
	MaxTasks  int
}

// ClaimTasks hands due pending tasks to a worker. Concurrent claimers never
// receive the same task.
func (q *TaskQueue) ClaimTasks(ctx context.Context, input ClaimTasksInput) ([]ClaimedTask, error) {
	rows, err := q.pool.Query(ctx, `SELECT * FROM claim_tasks($1, $2, $3)`,
		input.WorkerID, input.TaskTypes, input.MaxTasks)
	if err != nil {
		return nil, fmt.Errorf("claim tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]ClaimedTask, 0)
	for rows.Next() {
		var task ClaimedTask
		if err := rows.Scan(&task.ID, &task.TaskType, &task.Payload); err != nil {
			return nil, fmt.Errorf("scan claimed task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// MarkProcessing moves a claimed task to processing.
func (q *TaskQueue) MarkProcessing(ctx context.Context, taskID string) error {
	_, err := q.pool.Exec(ctx, `
		UPDATE task_queue
		SET status = 'processing', started_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'claimed'
	`, taskID)
	return err
}

// CompleteTask stores the task result and marks it completed.
func (q *TaskQueue) CompleteTask(ctx context.Context, taskID string, result any) error {
	var data []byte
	if result != nil {
		var err error
		if data, err = json.Marshal(result); err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
	}
	_, err := q.pool.Exec(ctx, `SELECT complete_task($1, $2::jsonb)`, taskID, data)
	return err
}

// FailTask records an error. Retryable failures are rescheduled with backoff
// until max_retries is reached.
func (q *TaskQueue) FailTask(ctx context.Context, taskID, errorMessage string, shouldRetry bool) error {
	_, err := q.pool.Exec(ctx, `SELECT fail_task($1, $2, $3)`, taskID, errorMessage, shouldRetry)
	return err
}

// CleanupOldTasks deletes finished tasks older than daysToKeep.
func (q *TaskQueue) CleanupOldTasks(ctx context.Context, daysToKeep int) (int, error) {
	var count int
	err := q.pool.QueryRow(ctx, `SELECT cleanup_old_tasks($1)`, daysToKeep).Scan(&count)
	return count, err
}

// RecoverOrphanedTasks requeues (or fails, when out of retries) tasks stuck in
// claimed/processing for longer than timeout.
func (q *TaskQueue) RecoverOrphanedTasks(ctx context.Context, timeout time.Duration) (recovered, failed int, err error) {
	var r, f int32
	err = q.pool.QueryRow(ctx, `SELECT * FROM recover_orphaned_tasks($1)`, timeout).Scan(&r, &f)
	if err != nil {
		return 0, 0, fmt.Errorf("recover orphaned tasks: %w", err)
	}
	return int(r), int(f), nil
}

// CancelTask cancels a task that has not started yet. It reports whether a
// task was cancelled.
func (q *TaskQueue) CancelTask(ctx context.Context, taskID string) (bool, error) {
	tag, err := q.pool.Exec(ctx, `
		UPDATE task_queue
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'claimed')
	`, taskID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (q *TaskQueue) GetTask(ctx context.Context, taskID string) (*Task, error) {
	var task Task
	err := q.pool.QueryRow(ctx, `
		SELECT id, task_type, payload, result, priority, status,
		       scheduled_for, started_at, completed_at, failed_at,
		       worker_id, retry_count, max_retries, error_message,
		       created_at, updated_at
		FROM task_queue
		WHERE id = $1
	`, taskID).Scan(
		&task.ID, &task.TaskType, &task.Payload, &task.Result, &task.Priority, &task.Status,
		&task.ScheduledFor, &task.StartedAt, &task.CompletedAt, &task.FailedAt,
		&task.WorkerID, &task.RetryCount, &task.MaxRetries, &task.ErrorMessage,
		&task.CreatedAt, &task.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}
