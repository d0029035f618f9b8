// Package telemetry exposes the prometheus metrics emitted around one
// P.1203 scoring session, following the teacher's promauto + labeled
// vector convention.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "p1203_sessions_total",
			Help: "Total number of scoring sessions, by outcome.",
		},
		[]string{"outcome"},
	)

	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "p1203_errors_total",
			Help: "Total scoring errors, by error kind.",
		},
		[]string{"kind"},
	)

	o46Histogram = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "p1203_o46_score",
			Help:    "Distribution of the final audiovisual MOS (O46) across sessions.",
			Buckets: []float64{1.0, 1.5, 2.0, 2.5, 3.0, 3.5, 4.0, 4.5, 5.0},
		},
	)

	stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "p1203_stage_duration_seconds",
			Help:    "Wall-clock time spent in each pipeline stage.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"stage"},
	)
)

// RecordSessionOutcome increments the session counter for a terminal
// outcome ("ok" or "error").
func RecordSessionOutcome(outcome string) {
	sessionsTotal.WithLabelValues(outcome).Inc()
}

// RecordError increments the error counter for a perror.Kind string value.
func RecordError(kind string) {
	errorsTotal.WithLabelValues(kind).Inc()
}

// RecordO46 observes a session's final MOS.
func RecordO46(score float64) {
	o46Histogram.Observe(score)
}

// ObserveStage times one pipeline stage ("pa", "pv", "pq") via the
// returned stop function, called when the stage completes.
func ObserveStage(stage string) func() {
	start := time.Now()
	return func() {
		stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}
