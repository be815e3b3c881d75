package inference

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Consensus/internal/domain/models"
)

func sampleModel() models.LinearModel {
	return models.LinearModel{
		Version:  "test-1",
		Features: []string{"pe", "growth"},
		Targets:  []string{"Buy_%", "Outperform_%", "Hold_%", "Underperform_%", "Sell_%"},
		Coefficients: [][]float64{
			{1, 0},
			{0, 1},
			{2, 2},
			{0, 0},
			{-1, 0},
		},
		Intercepts: []float64{0, 0, 1, 5, 10},
	}
}

func TestLinearPredictorArithmetic(t *testing.T) {
	p, err := NewLinearPredictor(sampleModel())
	require.NoError(t, err)
	assert.Equal(t, "test-1", p.Version())

	// columns deliberately out of model order
	row := models.FeatureRow{Columns: []string{"growth", "pe"}, Values: []float64{3, 4}}
	out, err := p.Predict(context.Background(), []models.FeatureRow{row})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.InDeltaSlice(t, []float64{4, 3, 15, 5, 6}, out[0], 1e-9)
}

func TestLinearPredictorSchemaMismatch(t *testing.T) {
	p, err := NewLinearPredictor(sampleModel())
	require.NoError(t, err)

	rows := []models.FeatureRow{
		{Columns: []string{"pe"}, Values: []float64{1}},
		{Columns: []string{"pe", "margin"}, Values: []float64{1, 2}},
		{Columns: []string{"pe", "pe"}, Values: []float64{1, 2}},
	}
	for _, r := range rows {
		_, err := p.Predict(context.Background(), []models.FeatureRow{r})
		assert.Equal(t, models.SchemaMismatch, models.KindOf(err), "%v", r.Columns)
	}
}

func TestNewLinearPredictorRejectsBadShapes(t *testing.T) {
	short := sampleModel()
	short.Intercepts = short.Intercepts[:4]

	ragged := sampleModel()
	ragged.Coefficients[2] = []float64{1}

	dup := sampleModel()
	dup.Features = []string{"pe", "pe"}

	empty := sampleModel()
	empty.Features = nil

	for name, m := range map[string]models.LinearModel{"intercepts": short, "ragged": ragged, "duplicate": dup, "empty": empty} {
		_, err := NewLinearPredictor(m)
		assert.Error(t, err, name)
	}
}
