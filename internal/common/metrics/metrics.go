// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MatchingRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_requests_total",
			Help: "Total number of matching requests by outcome",
		},
		[]string{"outcome"},
	)

	MatchingStageCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matching_stage_candidates",
			Help:    "Candidate count surviving each pipeline stage",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100, 250, 500, 1000, 5000},
		},
		[]string{"stage"},
	)

	MatchingStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "matching_stage_duration_seconds",
			Help: "Duration of each pipeline stage in seconds",
		},
		[]string{"stage"},
	)

	ReasoningTierTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reasoning_tier_total",
			Help: "Reasoning tier outcomes (which tier produced the final judgments)",
		},
		[]string{"tier", "outcome"},
	)

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
)
