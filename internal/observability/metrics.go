// Package observability exposes Prometheus metrics for the planner service.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	submissionCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "runplan",
		Subsystem: "engine",
		Name:      "submissions_total",
		Help:      "Number of completion submissions applied, rest days included.",
	})
	submissionGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "runplan",
		Subsystem: "engine",
		Name:      "last_submission_timestamp_seconds",
		Help:      "Unix timestamp of the most recent applied submission.",
	})
	rotationCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "runplan",
		Subsystem: "engine",
		Name:      "rotation_advances_total",
		Help:      "Number of times the schedule rotation anchor moved forward.",
	})
	goalCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "runplan",
		Subsystem: "engine",
		Name:      "goals_reached_total",
		Help:      "Number of progression goals satisfied by an advance.",
	})
)

func init() {
	prometheus.MustRegister(submissionCounter, submissionGauge, rotationCounter, goalCounter)
}

// RecordSubmission updates the submission counter and watermark.
func RecordSubmission(ts time.Time) {
	submissionCounter.Inc()
	if !ts.IsZero() {
		submissionGauge.Set(float64(ts.Unix()))
	}
}

// RecordRotationAdvance counts a rotation-state advance.
func RecordRotationAdvance() {
	rotationCounter.Inc()
}

// RecordGoalReached counts a progression goal being satisfied.
func RecordGoalReached() {
	goalCounter.Inc()
}
