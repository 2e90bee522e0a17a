package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exports evaluation counters and latencies to Prometheus.
type Recorder struct {
	evaluated *prometheus.CounterVec
	failed    *prometheus.CounterVec
	fraction  prometheus.Histogram
	latency   *prometheus.HistogramVec
}

// NewRecorder registers the metric collectors with reg. A nil reg uses the
// default registerer.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Recorder{
		evaluated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tdemetric_locations_evaluated_total",
				Help: "Total number of sky locations evaluated",
			},
			[]string{"output"},
		),
		failed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tdemetric_locations_failed_total",
				Help: "Total number of sky locations whose evaluation failed",
			},
			[]string{"reason"},
		),
		fraction: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tdemetric_detected_fraction",
				Help:    "Distribution of per-location detected fractions",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tdemetric_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordEvaluated records one successful location evaluation.
func (r *Recorder) RecordEvaluated(output string, fraction float64) {
	r.evaluated.WithLabelValues(output).Inc()
	r.fraction.Observe(fraction)
}

// RecordFailure records a failed location evaluation.
func (r *Recorder) RecordFailure(reason string) {
	r.failed.WithLabelValues(reason).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
