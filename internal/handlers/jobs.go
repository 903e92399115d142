package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kosarica/network-optimizer/internal/jobs"
	"github.com/kosarica/network-optimizer/internal/optimizer"
	"github.com/kosarica/network-optimizer/internal/taskqueue"
)

// JobStore schedules and looks up optimization jobs.
type JobStore interface {
	Submit(ctx context.Context, taskType string, payload any, priority int) (string, error)
	Get(ctx context.Context, id string) (*taskqueue.Task, error)
	Cancel(ctx context.Context, id string) (bool, error)
}

var (
	jobStore  JobStore
	jobConfig *optimizer.Config
)

var jobTypesByKind = map[string]string{
	"solve":    taskqueue.TaskTypeSolve,
	"lp":       taskqueue.TaskTypeSolve,
	"allocate": taskqueue.TaskTypeAllocate,
	"locate":   taskqueue.TaskTypeLocate,
}

// InitJobs sets the job store and the limits submitted requests are checked against.
func InitJobs(store JobStore, cfg *optimizer.Config) {
	jobStore = store
	jobConfig = cfg
}

// SubmitJobQuery holds optional submission parameters.
type SubmitJobQuery struct {
	Priority int `form:"priority" binding:"min=0,max=100"`
}

// SubmitJobResponse is returned when a job is accepted.
type SubmitJobResponse struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

// JobResponse describes a job and, once completed, its result.
type JobResponse struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Status      string          `json:"status"`
	Result      json.RawMessage `json:"result,omitempty" swaggertype:"object"`
	Error       *string         `json:"error,omitempty"`
	RetryCount  int             `json:"retryCount"`
	MaxRetries  int             `json:"maxRetries"`
	CreatedAt   time.Time       `json:"createdAt"`
	StartedAt   *time.Time      `json:"startedAt,omitempty"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
	FailedAt    *time.Time      `json:"failedAt,omitempty"`
}

// SubmitJob validates an optimization request and queues it
// @Summary Submit an optimization job
// @Description Validates the request body for the given kind and queues it for a worker
// @Tags jobs
// @Accept json
// @Produce json
// @Param kind path string true "Job kind" Enums(solve, lp, allocate, locate)
// @Param priority query int false "Higher runs first" default(0) minimum(0) maximum(100)
// @Param request body object true "SolveRequest, AllocateRequest or LocateRequest"
// @Success 202 {object} SubmitJobResponse
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 404 {object} ErrorResponse "Unknown job kind"
// @Failure 503 {object} ErrorResponse "Job store unavailable"
// @Security InternalAPIKey
// @Router /internal/jobs/{kind} [post]
func SubmitJob(c *gin.Context) {
	taskType, ok := jobTypesByKind[c.Param("kind")]
	if !ok {
		respondError(c, fmt.Errorf("%w: %s", jobs.ErrUnknownTaskType, c.Param("kind")))
		return
	}

	var query SubmitJobQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}

	payload, err := bindJobRequest(c, taskType)
	if err != nil {
		respondError(c, err)
		return
	}

	id, err := jobStore.Submit(c.Request.Context(), taskType, payload, query.Priority)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, SubmitJobResponse{ID: id, Type: taskType, Status: string(taskqueue.StatusPending)})
}

type validatable interface {
	Validate(cfg *optimizer.Config) error
}

// bindJobRequest decodes the body into the request type of taskType and
// validates it so that bad input is rejected before it reaches a worker.
func bindJobRequest(c *gin.Context, taskType string) (validatable, error) {
	var req validatable
	switch taskType {
	case taskqueue.TaskTypeSolve:
		req = &optimizer.SolveRequest{}
	case taskqueue.TaskTypeAllocate:
		req = &optimizer.AllocateRequest{}
	default:
		req = &optimizer.LocateRequest{}
	}
	if err := c.ShouldBindJSON(req); err != nil {
		return nil, optimizer.ErrInvalidRequest{Field: "body", Reason: err.Error(), Index: -1}
	}
	if err := req.Validate(jobConfig); err != nil {
		return nil, err
	}
	return req, nil
}

// GetJob returns a job's status and result
// @Summary Get an optimization job
// @Tags jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} JobResponse
// @Failure 404 {object} ErrorResponse "Job not found"
// @Failure 503 {object} ErrorResponse "Job store unavailable"
// @Security InternalAPIKey
// @Router /internal/jobs/{id} [get]
func GetJob(c *gin.Context) {
	task, err := jobStore.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toJobResponse(task))
}

// CancelJob cancels a job that has not started
// @Summary Cancel an optimization job
// @Tags jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} JobResponse
// @Failure 404 {object} ErrorResponse "Job not found"
// @Failure 409 {object} ErrorResponse "Job already running or finished"
// @Security InternalAPIKey
// @Router /internal/jobs/{id} [delete]
func CancelJob(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	cancelled, err := jobStore.Cancel(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	task, err := jobStore.Get(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !cancelled {
		c.JSON(http.StatusConflict, ErrorResponse{Error: fmt.Sprintf("job is %s", task.Status)})
		return
	}
	c.JSON(http.StatusOK, toJobResponse(task))
}

func toJobResponse(t *taskqueue.Task) JobResponse {
	resp := JobResponse{
		ID:          t.ID,
		Type:        t.TaskType,
		Status:      string(t.Status),
		RetryCount:  t.RetryCount,
		MaxRetries:  t.MaxRetries,
		CreatedAt:   t.CreatedAt,
		StartedAt:   t.StartedAt,
		CompletedAt: t.CompletedAt,
		FailedAt:    t.FailedAt,
		Error:       t.ErrorMessage,
	}
	if t.Status == taskqueue.StatusCompleted {
		resp.Result = t.Result
	}
	return resp
}
