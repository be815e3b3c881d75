package service

import (
	"context"

	"Consensus/internal/domain/models"
)

// Predictor is the opaque trained model. It returns one output vector per
// input row, positionally aligned with Targets().
type Predictor interface {
	Predict(ctx context.Context, rows []models.FeatureRow) ([][]float64, error)
	Targets() []string
	Version() string
}

// ConsensusService turns submitted fields into an analyst consensus.
type ConsensusService interface {
	Predict(ctx context.Context, in models.PredictInput) (models.PredictionResult, error)
	Columns() []string
	Targets() []string
}
