package workers

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/network-optimizer/internal/taskqueue"
)

type failure struct {
	msg   string
	retry bool
}

type fakeQueue struct {
	mu         sync.Mutex
	pending    []taskqueue.ClaimedTask
	processing []string
	completed  map[string]any
	failed     map[string]failure
}

func newFakeQueue(tasks ...taskqueue.ClaimedTask) *fakeQueue {
	return &fakeQueue{
		pending:   tasks,
		completed: map[string]any{},
		failed:    map[string]failure{},
	}
}

func (q *fakeQueue) ClaimTasks(_ context.Context, in taskqueue.ClaimTasksInput) ([]taskqueue.ClaimedTask, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := min(in.MaxTasks, len(q.pending))
	out := q.pending[:n]
	q.pending = q.pending[n:]
	return out, nil
}

func (q *fakeQueue) MarkProcessing(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.processing = append(q.processing, id)
	return nil
}

func (q *fakeQueue) CompleteTask(_ context.Context, id string, result any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.completed[id] = result
	return nil
}

func (q *fakeQueue) FailTask(_ context.Context, id, msg string, retry bool) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.failed[id] = failure{msg: msg, retry: retry}
	return nil
}

func (q *fakeQueue) settled() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.completed) + len(q.failed)
}

func runWorker(t *testing.T, q *fakeQueue, want int, register func(w *Worker)) {
	t.Helper()
	w := New(q, WorkerConfig{WorkerID: "test", MaxTasks: 2, PollDelay: 5 * time.Millisecond})
	register(w)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	assert.Eventually(t, func() bool { return q.settled() == want }, 2*time.Second, 5*time.Millisecond)
	w.Stop()
}

func TestWorkerCompletesWithHandlerResult(t *testing.T) {
	q := newFakeQueue(taskqueue.ClaimedTask{ID: "t1", TaskType: "echo", Payload: json.RawMessage(`{"n":3}`)})

	runWorker(t, q, 1, func(w *Worker) {
		w.RegisterHandler("echo", func(_ context.Context, payload []byte) (any, error) {
			var in struct{ N int }
			require.NoError(t, json.Unmarshal(payload, &in))
			return in.N * 2, nil
		})
	})

	assert.Equal(t, 6, q.completed["t1"])
	assert.Equal(t, []string{"t1"}, q.processing)
	assert.Empty(t, q.failed)
}

func TestWorkerRetryClassification(t *testing.T) {
	q := newFakeQueue(
		taskqueue.ClaimedTask{ID: "transient", TaskType: "flaky"},
		taskqueue.ClaimedTask{ID: "bad", TaskType: "broken"},
		taskqueue.ClaimedTask{ID: "boom", TaskType: "panics"},
		taskqueue.ClaimedTask{ID: "orphan", TaskType: "unknown"},
	)

	runWorker(t, q, 4, func(w *Worker) {
		w.RegisterHandler("flaky", func(context.Context, []byte) (any, error) {
			return nil, errors.New("connection reset")
		})
		w.RegisterHandler("broken", func(context.Context, []byte) (any, error) {
			return nil, Permanent(errors.New("invalid payload"))
		})
		w.RegisterHandler("panics", func(context.Context, []byte) (any, error) {
			panic("nil map")
		})
	})

	assert.Equal(t, failure{msg: "connection reset", retry: true}, q.failed["transient"])
	assert.Equal(t, failure{msg: "invalid payload", retry: false}, q.failed["bad"])
	assert.False(t, q.failed["boom"].retry)
	assert.Contains(t, q.failed["boom"].msg, "nil map")
	assert.False(t, q.failed["orphan"].retry)
	assert.Empty(t, q.completed)
}

func TestWorkerTaskTimeout(t *testing.T) {
	q := newFakeQueue(taskqueue.ClaimedTask{ID: "slow", TaskType: "slow"})
	w := New(q, WorkerConfig{WorkerID: "test", PollDelay: 5 * time.Millisecond, TaskTimeout: 20 * time.Millisecond})
	w.RegisterHandler("slow", func(ctx context.Context, _ []byte) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	assert.Eventually(t, func() bool { return q.settled() == 1 }, 2*time.Second, 5*time.Millisecond)
	w.Stop()

	assert.True(t, q.failed["slow"].retry)
	assert.Contains(t, q.failed["slow"].msg, "deadline exceeded")
}

func TestPermanent(t *testing.T) {
	assert.Nil(t, Permanent(nil))
	base := errors.New("x")
	err := Permanent(base)
	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, base)
	assert.False(t, IsPermanent(base))
}
