package taskqueue_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kosarica/network-optimizer/internal/database"
	"github.com/kosarica/network-optimizer/internal/taskqueue"
)

func setupQueue(t *testing.T) (*taskqueue.TaskQueue, *pgxpool.Pool) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, database.Migrate(ctx, pool))
	// applying twice must be harmless
	require.NoError(t, database.Migrate(ctx, pool))

	return taskqueue.New(pool), pool
}

func TestTaskLifecycle(t *testing.T) {
	q, _ := setupQueue(t)
	ctx := context.Background()

	id, err := q.ScheduleTask(ctx, taskqueue.ScheduleTaskInput{
		TaskType: taskqueue.TaskTypeLocate,
		Payload:  map[string]any{"settings": map[string]int{"numDCs": 2}},
	})
	require.NoError(t, err)

	task, err := q.GetTask(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, taskqueue.StatusPending, task.Status)
	assert.Equal(t, taskqueue.DefaultMaxRetries, task.MaxRetries)
	assert.JSONEq(t, `{"settings":{"numDCs":2}}`, string(task.Payload))

	claimed, err := q.ClaimTasks(ctx, taskqueue.ClaimTasksInput{
		WorkerID: "w-1", TaskTypes: taskqueue.AllTaskTypes, MaxTasks: 5,
	})
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, id, claimed[0].ID)

	again, err := q.ClaimTasks(ctx, taskqueue.ClaimTasksInput{
		WorkerID: "w-2", TaskTypes: taskqueue.AllTaskTypes, MaxTasks: 5,
	})
	require.NoError(t, err)
	assert.Empty(t, again, "claimed tasks are not handed out twice")

	require.NoError(t, q.MarkProcessing(ctx, id))
	require.NoError(t, q.CompleteTask(ctx, id, map[string]bool{"feasible": true}))

	task, err = q.GetTask(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, taskqueue.StatusCompleted, task.Status)
	assert.True(t, task.Status.Terminal())
	assert.JSONEq(t, `{"feasible":true}`, string(task.Result))
	require.NotNil(t, task.CompletedAt)
}

func TestClaimHonoursTypeAndPriority(t *testing.T) {
	q, _ := setupQueue(t)
	ctx := context.Background()

	low, err := q.ScheduleTask(ctx, taskqueue.ScheduleTaskInput{TaskType: taskqueue.TaskTypeSolve, Payload: 1})
	require.NoError(t, err)
	high, err := q.ScheduleTask(ctx, taskqueue.ScheduleTaskInput{TaskType: taskqueue.TaskTypeSolve, Payload: 2, Priority: 10})
	require.NoError(t, err)
	_, err = q.ScheduleTask(ctx, taskqueue.ScheduleTaskInput{TaskType: taskqueue.TaskTypeAllocate, Payload: 3})
	require.NoError(t, err)

	claimed, err := q.ClaimTasks(ctx, taskqueue.ClaimTasksInput{
		WorkerID: "w", TaskTypes: []string{taskqueue.TaskTypeSolve}, MaxTasks: 1,
	})
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, high, claimed[0].ID)

	claimed, err = q.ClaimTasks(ctx, taskqueue.ClaimTasksInput{
		WorkerID: "w", TaskTypes: []string{taskqueue.TaskTypeSolve}, MaxTasks: 5,
	})
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, low, claimed[0].ID)
}

func TestFailTaskRetriesThenFails(t *testing.T) {
	q, pool := setupQueue(t)
	ctx := context.Background()

	id, err := q.ScheduleTask(ctx, taskqueue.ScheduleTaskInput{TaskType: taskqueue.TaskTypeSolve, Payload: 1, MaxRetries: 2})
	require.NoError(t, err)

	require.NoError(t, q.FailTask(ctx, id, "timeout", true))
	task, err := q.GetTask(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, taskqueue.StatusPending, task.Status)
	assert.Equal(t, 1, task.RetryCount)
	assert.True(t, task.ScheduledFor.After(time.Now()), "retry is backed off")

	require.NoError(t, q.FailTask(ctx, id, "timeout again", true))
	task, err = q.GetTask(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, taskqueue.StatusFailed, task.Status)
	require.NotNil(t, task.ErrorMessage)
	assert.Equal(t, "timeout again", *task.ErrorMessage)

	permanent, err := q.ScheduleTask(ctx, taskqueue.ScheduleTaskInput{TaskType: taskqueue.TaskTypeSolve, Payload: 1})
	require.NoError(t, err)
	require.NoError(t, q.FailTask(ctx, permanent, "bad input", false))
	task, err = q.GetTask(ctx, permanent)
	require.NoError(t, err)
	assert.Equal(t, taskqueue.StatusFailed, task.Status)

	// finished tasks older than the retention window are removed
	_, err = pool.Exec(ctx, `UPDATE task_queue SET updated_at = NOW() - INTERVAL '10 days'`)
	require.NoError(t, err)
	deleted, err := q.CleanupOldTasks(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
}

func TestRecoverOrphanedTasks(t *testing.T) {
	q, pool := setupQueue(t)
	ctx := context.Background()

	id, err := q.ScheduleTask(ctx, taskqueue.ScheduleTaskInput{TaskType: taskqueue.TaskTypeSolve, Payload: 1})
	require.NoError(t, err)
	_, err = q.ClaimTasks(ctx, taskqueue.ClaimTasksInput{WorkerID: "gone", TaskTypes: taskqueue.AllTaskTypes, MaxTasks: 1})
	require.NoError(t, err)

	recovered, failed, err := q.RecoverOrphanedTasks(ctx, time.Minute)
	require.NoError(t, err)
	assert.Zero(t, recovered+failed, "fresh claims are left alone")

	_, err = pool.Exec(ctx, `UPDATE task_queue SET updated_at = NOW() - INTERVAL '1 hour' WHERE id = $1`, id)
	require.NoError(t, err)

	recovered, failed, err = q.RecoverOrphanedTasks(ctx, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, recovered)
	assert.Zero(t, failed)

	task, err := q.GetTask(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, taskqueue.StatusPending, task.Status)
	assert.Nil(t, task.WorkerID)
}

func TestCancelAndNotFound(t *testing.T) {
	q, _ := setupQueue(t)
	ctx := context.Background()

	id, err := q.ScheduleTask(ctx, taskqueue.ScheduleTaskInput{TaskType: taskqueue.TaskTypeAllocate, Payload: json.RawMessage(`{}`)})
	require.NoError(t, err)

	ok, err := q.CancelTask(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = q.CancelTask(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok, "already cancelled")

	_, err = q.GetTask(ctx, "does-not-exist")
	assert.ErrorIs(t, err, taskqueue.ErrNotFound)
}
