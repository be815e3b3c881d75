package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements repository.Metrics using Prometheus.
type Recorder struct {
	predictions *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	cacheTotal  *prometheus.CounterVec
	ignored     prometheus.Counter
	latency     *prometheus.HistogramVec
}

// New registers the consensus metrics on reg. Pass prometheus.DefaultRegisterer
// in production and a fresh prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		predictions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "consensus_predictions_total",
				Help: "Predictions served, by resolved category",
			},
			[]string{"category"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "consensus_errors_total",
				Help: "Failed prediction requests, by error kind",
			},
			[]string{"kind"},
		),
		cacheTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "consensus_prediction_cache_total",
				Help: "Prediction cache lookups, by result",
			},
			[]string{"result"},
		),
		ignored: f.NewCounter(
			prometheus.CounterOpts{
				Name: "consensus_ignored_columns_total",
				Help: "Submitted columns dropped because they are not in the reference schema",
			},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "consensus_operation_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordPrediction counts a resolved category.
func (r *Recorder) RecordPrediction(category string) {
	r.predictions.WithLabelValues(category).Inc()
}

// RecordError records a failed request by error kind.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordCache records a cache hit or miss.
func (r *Recorder) RecordCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheTotal.WithLabelValues(result).Inc()
}

// RecordIgnoredColumns adds n dropped columns.
func (r *Recorder) RecordIgnoredColumns(n int) {
	if n > 0 {
		r.ignored.Add(float64(n))
	}
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
