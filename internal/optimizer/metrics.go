package optimizer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// runDuration tracks the time taken by each optimization kind.
	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "netopt_run_duration_seconds",
		Help:    "Time taken by optimization runs by kind",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	}, []string{"kind"}) // kind: solve, allocate, locate

	// runErrors tracks failed optimization runs.
	runErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netopt_run_errors_total",
		Help: "Total number of failed optimization runs by kind",
	}, []string{"kind"})

	// runStatus counts how runs terminated.
	runStatus = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netopt_run_status_total",
		Help: "Optimization runs by kind and termination status",
	}, []string{"kind", "status"})

	// runIterations tracks simplex pivots and k-means rounds.
	runIterations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "netopt_run_iterations",
		Help:    "Iterations used by optimization runs",
		Buckets: []float64{1, 5, 10, 50, 100, 500, 1000},
	}, []string{"kind"})

	// problemSize tracks decision variables (solve) or customers (allocate, locate).
	problemSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "netopt_problem_size",
		Help:    "Variables or customers per optimization run",
		Buckets: []float64{1, 10, 100, 1000, 10000, 100000},
	}, []string{"kind"})

	// serviceLevel tracks the share of demand served, in percent.
	serviceLevel = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "netopt_service_level_percent",
		Help:    "Percentage of demand fulfilled per run",
		Buckets: []float64{50, 80, 90, 95, 99, 100},
	}, []string{"kind"})

	// sitesOpened tracks newly opened sites per plan.
	sitesOpened = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "netopt_sites_opened",
		Help:    "Newly opened sites per location plan",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
	})

	// infeasiblePlans counts location plans with capacity warnings.
	infeasiblePlans = promauto.NewCounter(prometheus.CounterOpts{
		Name: "netopt_infeasible_plans_total",
		Help: "Location plans flagged infeasible",
	})
)

// MetricsRecorder provides methods to record optimizer metrics.
type MetricsRecorder struct{}

// NewMetricsRecorder creates a new metrics recorder.
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{}
}

// RecordRun records the duration and outcome of a run.
func (m *MetricsRecorder) RecordRun(kind string, duration time.Duration, err error) {
	runDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if err != nil {
		runErrors.WithLabelValues(kind).Inc()
	}
}

// RecordStatus records how a run terminated and how many iterations it used.
func (m *MetricsRecorder) RecordStatus(kind, status string, iterations int) {
	runStatus.WithLabelValues(kind, status).Inc()
	runIterations.WithLabelValues(kind).Observe(float64(iterations))
}

// RecordProblemSize records the size of a run's input.
func (m *MetricsRecorder) RecordProblemSize(kind string, size int) {
	problemSize.WithLabelValues(kind).Observe(float64(size))
}

// RecordServiceLevel records the percentage of demand served.
func (m *MetricsRecorder) RecordServiceLevel(kind string, percent float64) {
	serviceLevel.WithLabelValues(kind).Observe(percent)
}

// RecordPlan records a location plan.
func (m *MetricsRecorder) RecordPlan(newSites int, feasible bool) {
	sitesOpened.Observe(float64(newSites))
	if !feasible {
		infeasiblePlans.Inc()
	}
}
