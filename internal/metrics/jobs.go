package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		jobsTotal,
		stageDuration,
		providerCalls,
		queueDepth,
		segmentsSkipped,
	)
}

var (
	jobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "radio_jobs_total",
			Help: "Jobs by terminal status.",
		},
		[]string{"status"},
	)

	stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "radio_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"stage"},
	)

	providerCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "radio_provider_calls_total",
			Help: "External provider calls by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "radio_queue_depth",
			Help: "Jobs waiting in the queue.",
		},
	)

	segmentsSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "radio_segments_skipped_total",
			Help: "Segments or transitions dropped after synthesis failed.",
		},
	)
)

// IncJob counts a job reaching a terminal status.
func IncJob(status string) { jobsTotal.WithLabelValues(status).Inc() }

// ObserveStage records how long a stage ran.
func ObserveStage(stage string, d time.Duration) {
	stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// IncProviderCall counts a provider call; outcome is ok, retry or fatal.
func IncProviderCall(provider, outcome string) {
	providerCalls.WithLabelValues(provider, outcome).Inc()
}

// SetQueueDepth publishes the number of pending jobs.
func SetQueueDepth(n int) { queueDepth.Set(float64(n)) }

// IncSegmentSkipped counts a dropped segment.
func IncSegmentSkipped() { segmentsSkipped.Inc() }
