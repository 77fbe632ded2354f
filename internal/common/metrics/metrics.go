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

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	// Domain counters

	OpcoEstimations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opco_estimations_total",
			Help: "Levy estimations produced, by attributed OPCO",
		},
		[]string{"opco"},
	)

	OpcoClassificationFallback = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "opco_classification_fallback_total",
			Help: "Companies whose NAF division matched no OPCO and fell back to the default",
		},
	)

	NotificationSinkFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_sink_failures_total",
			Help: "Notification deliveries that failed, by sink",
		},
		[]string{"sink"},
	)

	RegistryCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_cache_requests_total",
			Help: "Company registry cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)
)
