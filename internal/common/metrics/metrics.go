// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	MatchStatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_status_transitions_total",
			Help: "Total number of match status transitions by target status",
		},
		[]string{"to_status"},
	)

	MatchWriteConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_write_conflicts_total",
			Help: "Optimistic-lock conflicts observed while saving a match",
		},
		[]string{"task_type"},
	)
)
