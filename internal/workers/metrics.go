package workers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// jobOutcomes counts finished task attempts.
	jobOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netopt_jobs_total",
		Help: "Job attempts by task type and outcome",
	}, []string{"task_type", "outcome"}) // outcome: completed, retryable, failed

	jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "netopt_job_duration_seconds",
		Help:    "Handler run time of job attempts",
		Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 30, 120, 600},
	}, []string{"task_type"})
)

const (
	outcomeCompleted = "completed"
	outcomeRetryable = "retryable"
	outcomeFailed    = "failed"
)
