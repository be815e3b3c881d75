package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorderCounters(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.RecordPrediction("Buy")
	r.RecordPrediction("Buy")
	r.RecordPrediction("Sell")
	r.RecordError("invalid_input")
	r.RecordCache(true)
	r.RecordCache(false)
	r.RecordCache(false)
	r.RecordIgnoredColumns(3)
	r.RecordIgnoredColumns(0)
	r.RecordLatency("predict", 0.01)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.predictions.WithLabelValues("Buy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.predictions.WithLabelValues("Sell")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("invalid_input")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cacheTotal.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.cacheTotal.WithLabelValues("miss")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.ignored))
}

func TestNewOnSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
