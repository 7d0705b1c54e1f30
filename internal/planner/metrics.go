package planner

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for the planning pipeline.
type Metrics struct {
	PlansTotal       *prometheus.CounterVec
	RepairIterations prometheus.Histogram
	StageDuration    *prometheus.HistogramVec
	GuardFailures    prometheus.Counter
	IntentFailures   prometheus.Counter
	PoolSize         prometheus.Histogram
}

// NewMetrics creates and registers pipeline metrics. sync.Once guards
// against duplicate collector registration.
//
// Metrics:
//   - coachd_plans_total{status} - completed planning requests by outcome
//   - coachd_repair_iterations - repair iterations per request
//   - coachd_stage_duration_seconds{stage} - per-stage latency
//   - coachd_guard_failures_total - pre-generation guard rejections
//   - coachd_intent_failures_total - failed intent resolutions
//   - coachd_candidate_pool_size - candidate pool size per request
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			PlansTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "coachd_plans_total",
					Help: "Total planning requests by outcome",
				},
				[]string{"status"}, // "clean", "exhausted", "guard_failed", "error"
			),

			RepairIterations: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "coachd_repair_iterations",
					Help:    "Repair iterations used per planning request",
					Buckets: prometheus.LinearBuckets(0, 1, 5),
				},
			),

			StageDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "coachd_stage_duration_seconds",
					Help:    "Duration of pipeline stages in seconds",
					Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
				},
				[]string{"stage"},
			),

			GuardFailures: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "coachd_guard_failures_total",
					Help: "Total pre-generation guard rejections",
				},
			),

			IntentFailures: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "coachd_intent_failures_total",
					Help: "Total failed intent resolutions",
				},
			),

			PoolSize: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "coachd_candidate_pool_size",
					Help:    "Candidate pool size per planning request",
					Buckets: prometheus.LinearBuckets(0, 10, 8),
				},
			),
		}
	})
	return globalMetrics
}
