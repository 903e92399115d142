package workers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kosarica/network-optimizer/internal/optimizer"
	"github.com/kosarica/network-optimizer/internal/taskqueue"
)

// RegisterOptimizationHandlers wires the solve, allocate and locate task types to opt.
func RegisterOptimizationHandlers(w *Worker, opt optimizer.Optimizer) {
	w.RegisterHandler(taskqueue.TaskTypeSolve, decodeAndRun("solve", opt.Solve))
	w.RegisterHandler(taskqueue.TaskTypeAllocate, decodeAndRun("allocate", opt.Allocate))
	w.RegisterHandler(taskqueue.TaskTypeLocate, decodeAndRun("locate", opt.Locate))
}

// decodeAndRun adapts an optimizer call to a task handler. Undecodable payloads
// and invalid requests fail permanently; anything else may be retried.
func decodeAndRun[Req, Resp any](name string, run func(context.Context, *Req) (*Resp, error)) HandlerFunc {
	return func(ctx context.Context, payload []byte) (any, error) {
		var req Req
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, Permanent(fmt.Errorf("decode %s payload: %w", name, err))
		}
		resp, err := run(ctx, &req)
		if err != nil {
			if optimizer.IsPrecondition(err) {
				return nil, Permanent(err)
			}
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return resp, nil
	}
}
