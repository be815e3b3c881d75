package consensus

import (
	"context"
	"errors"
	"testing"

	"Consensus/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var targets = []string{"Buy_%", "Outperform_%", "Hold_%", "Underperform_%", "Sell_%"}

type stubPredictor struct {
	out  [][]float64
	err  error
	rows []models.FeatureRow
}

func (s *stubPredictor) Predict(_ context.Context, rows []models.FeatureRow) ([][]float64, error) {
	s.rows = rows
	return s.out, s.err
}

func (s *stubPredictor) Targets() []string { return targets }
func (s *stubPredictor) Version() string { return "stub" }

func TestCategorizeBuy(t *testing.T) {
	c, err := Categorize([]float64{0.5, 0.3, 0.1, 0.05, 0.05}, targets)
	require.NoError(t, err)

	assert.Equal(t, models.CategoryBuy, c.Category)
	assert.InDelta(t, 0.8, c.Scores[models.CategoryBuy], 1e-9)
	assert.InDelta(t, 0.1, c.Scores[models.CategoryHold], 1e-9)
	assert.InDelta(t, 0.1, c.Scores[models.CategorySell], 1e-9)
}

func TestCategorizeHold(t *testing.T) {
	c, err := Categorize([]float64{0.1, 0.1, 0.6, 0.1, 0.1}, targets)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryHold, c.Category)
}

func TestCategorizeSell(t *testing.T) {
	c, err := Categorize([]float64{0.05, 0.05, 0.2, 0.3, 0.4}, targets)
	require.NoError(t, err)
	assert.Equal(t, models.CategorySell, c.Category)
	assert.InDelta(t, 0.7, c.Scores[models.CategorySell], 1e-9)
}

func TestCategorizeTieBreak(t *testing.T) {
	cases := []struct {
		name    string
		outputs []float64
		want    models.Category
	}{
		{"all zero", []float64{0, 0, 0, 0, 0}, models.CategoryBuy},
		{"buy equals hold", []float64{0.2, 0.2, 0.4, 0.1, 0.1}, models.CategoryBuy},
		{"hold equals sell", []float64{0.1, 0.1, 0.4, 0.2, 0.2}, models.CategoryHold},
		{"buy equals sell", []float64{0.25, 0.25, 0.0, 0.25, 0.25}, models.CategoryBuy},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := Categorize(tc.outputs, targets)
			require.NoError(t, err)
			assert.Equal(t, tc.want, c.Category)
		})
	}
}

func TestCategorizeFollowsTargetOrder(t *testing.T) {
	reordered := []string{"Sell_%", "Underperform_%", "Hold_%", "Outperform_%", "Buy_%"}
	c, err := Categorize([]float64{0.5, 0.3, 0.1, 0.05, 0.05}, reordered)
	require.NoError(t, err)
	assert.Equal(t, models.CategorySell, c.Category)
	assert.Equal(t, 0.5, c.Outputs["Sell_%"])
}

func TestCategorizeNegativeOutputs(t *testing.T) {
	c, err := Categorize([]float64{-0.2, -0.1, -0.5, -0.1, -0.1}, targets)
	require.NoError(t, err)
	assert.Equal(t, models.CategorySell, c.Category)
}

func TestCategorizeLengthMismatch(t *testing.T) {
	_, err := Categorize([]float64{1, 2, 3}, targets)
	assert.Error(t, err)
}

func TestValidateTargets(t *testing.T) {
	assert.NoError(t, ValidateTargets(targets))
	assert.Error(t, ValidateTargets(targets[:4]))
	assert.Error(t, ValidateTargets([]string{"Buy_%", "Buy_%", "Hold_%", "Underperform_%", "Sell_%"}))
	assert.Error(t, ValidateTargets([]string{"Buy_%", "Strong_%", "Hold_%", "Underperform_%", "Sell_%"}))
}

func TestResolverResolve(t *testing.T) {
	p := &stubPredictor{out: [][]float64{{0.1, 0.1, 0.6, 0.1, 0.1}}}
	r, err := NewResolver(p, targets)
	require.NoError(t, err)

	row := models.FeatureRow{Columns: []string{"Open"}, Values: []float64{1}}
	c, err := r.Resolve(context.Background(), row)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryHold, c.Category)
	require.Len(t, p.rows, 1)
	assert.Equal(t, row, p.rows[0])
}

func TestResolverWrapsPredictorErrors(t *testing.T) {
	r, err := NewResolver(&stubPredictor{err: errors.New("connection refused")}, targets)
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), models.FeatureRow{})
	assert.Equal(t, models.InferenceFailure, models.KindOf(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestResolverKeepsTypedErrors(t *testing.T) {
	typed := models.NewSchemaMismatch(errors.New("columns differ"))
	r, err := NewResolver(&stubPredictor{err: typed}, targets)
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), models.FeatureRow{})
	assert.Equal(t, models.SchemaMismatch, models.KindOf(err))
}

func TestResolverEmptyOrShortPredictions(t *testing.T) {
	for name, out := range map[string][][]float64{
		"no rows":      nil,
		"short vector": {{0.1, 0.2}},
	} {
		t.Run(name, func(t *testing.T) {
			r, err := NewResolver(&stubPredictor{out: out}, targets)
			require.NoError(t, err)
			_, err = r.Resolve(context.Background(), models.FeatureRow{})
			assert.Equal(t, models.InferenceFailure, models.KindOf(err))
		})
	}
}

func TestNewResolverRejectsBadTargets(t *testing.T) {
	_, err := NewResolver(&stubPredictor{}, []string{"Buy_%"})
	assert.Equal(t, models.SchemaMismatch, models.KindOf(err))

	_, err = NewResolver(nil, targets)
	assert.Error(t, err)
}
