package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	// Pipeline metrics
	PipelineRuns  *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	PauseRequests prometheus.Counter

	// Oracle metrics
	OracleFallbacks prometheus.Counter

	// Scheduler metrics
	ScheduledRuns *prometheus.CounterVec
}

var globalMetrics *Metrics

// InitMetrics initializes the Prometheus metrics
func InitMetrics() *Metrics {
	metrics := &Metrics{
		// Pipeline runs by terminal outcome (completed, failed, paused)
		PipelineRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aura_pipeline_runs_total",
			Help: "Total number of pipeline runs by outcome",
		}, []string{"outcome"}),

		// Per-stage latency
		StageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aura_stage_duration_seconds",
			Help:    "Stage execution latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60}, // external calls dominate
		}, []string{"stage"}),

		PauseRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aura_pause_requests_total",
			Help: "Total number of pause requests received",
		}),

		// Oracle degradations recovered via the baseline order
		OracleFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aura_oracle_fallbacks_total",
			Help: "Total number of ranking oracle failures handled by the baseline order",
		}),

		ScheduledRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aura_scheduled_runs_total",
			Help: "Total number of cron-triggered pipeline runs by outcome",
		}, []string{"outcome"}),
	}

	globalMetrics = metrics
	return metrics
}

// GetMetrics returns the global metrics instance (nil until InitMetrics)
func GetMetrics() *Metrics {
	return globalMetrics
}
