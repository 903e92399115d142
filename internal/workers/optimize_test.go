package workers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/network-optimizer/internal/optimizer"
	"github.com/kosarica/network-optimizer/internal/taskqueue"
)

type stubOptimizer struct {
	solveErr error
	gotSolve *optimizer.SolveRequest
}

func (s *stubOptimizer) Solve(_ context.Context, req *optimizer.SolveRequest) (*optimizer.SolveResponse, error) {
	s.gotSolve = req
	if s.solveErr != nil {
		return nil, s.solveErr
	}
	return &optimizer.SolveResponse{Status: "optimal"}, nil
}

func (s *stubOptimizer) Allocate(context.Context, *optimizer.AllocateRequest) (*optimizer.AllocateResponse, error) {
	return &optimizer.AllocateResponse{}, nil
}

func (s *stubOptimizer) Locate(context.Context, *optimizer.LocateRequest) (*optimizer.LocateResponse, error) {
	return &optimizer.LocateResponse{Feasible: true}, nil
}

func registered(opt optimizer.Optimizer) *Worker {
	w := New(newFakeQueue(), WorkerConfig{WorkerID: "test"})
	RegisterOptimizationHandlers(w, opt)
	return w
}

func TestRegisterOptimizationHandlers(t *testing.T) {
	w := registered(&stubOptimizer{})
	for _, tt := range taskqueue.AllTaskTypes {
		assert.Contains(t, w.handlers, tt)
	}

	res, err := w.handlers[taskqueue.TaskTypeLocate](context.Background(), []byte(`{}`))
	require.NoError(t, err)
	assert.True(t, res.(*optimizer.LocateResponse).Feasible)
}

func TestSolveHandlerDecodesPayload(t *testing.T) {
	stub := &stubOptimizer{}
	w := registered(stub)

	res, err := w.handlers[taskqueue.TaskTypeSolve](context.Background(), []byte(`{"products":["p1"]}`))
	require.NoError(t, err)
	assert.Equal(t, "optimal", res.(*optimizer.SolveResponse).Status)
	assert.Equal(t, []string{"p1"}, stub.gotSolve.Products)
}

func TestHandlerErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		err       error
		permanent bool
	}{
		{name: "bad json", payload: `{`, permanent: true},
		{name: "invalid request", payload: `{}`, err: optimizer.ErrInvalidRequest{Field: "customers", Reason: "required"}, permanent: true},
		{name: "internal", payload: `{}`, err: errors.New("solver crashed"), permanent: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := registered(&stubOptimizer{solveErr: tc.err})
			_, err := w.handlers[taskqueue.TaskTypeSolve](context.Background(), []byte(tc.payload))
			require.Error(t, err)
			assert.Equal(t, tc.permanent, IsPermanent(err))
		})
	}
}
