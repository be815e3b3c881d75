package repository

import (
	"context"

	"Consensus/internal/domain/models"
)

// PredictionSink receives an audit record for every served prediction.
type PredictionSink interface {
	Record(ctx context.Context, rec models.PredictionRecord) error
	Close() error
}

type Metrics interface {
	RecordPrediction(category string)
	RecordError(kind string)
	RecordCache(hit bool)
	RecordIgnoredColumns(n int)
	RecordLatency(op string, seconds float64)
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) RecordPrediction(string) {}
func (NoopMetrics) RecordError(string) {}
func (NoopMetrics) RecordCache(bool) {}
func (NoopMetrics) RecordIgnoredColumns(int) {}
func (NoopMetrics) RecordLatency(string, float64) {}
