package features

import (
	"testing"

	"Consensus/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = models.NewSchema([]string{"Open", "Adj Close", "Volume", "OCI"})

func TestParseValues(t *testing.T) {
	raw, err := ParseValues(map[string]string{
		"Open":   "12.5",
		"Volume": " 1e6 ",
		"extra":  "-3",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RawFeatures{"Open": 12.5, "Volume": 1e6, "extra": -3}, raw)
}

func TestParseValuesRejectsBlank(t *testing.T) {
	for _, v := range []string{"", "   ", "\t"} {
		_, err := ParseValues(map[string]string{"Open": "1", "OCI": v})
		require.Error(t, err, "%q", v)
		assert.Equal(t, models.InvalidInput, models.KindOf(err))
		assert.Contains(t, err.Error(), "OCI")
	}
}

func TestParseValuesRejectsHexFloat(t *testing.T) {
	for _, v := range []string{"0x1p3", "-0X10", "+0x1.8p1"} {
		_, err := ParseValues(map[string]string{"Open": v})
		assert.Equal(t, models.InvalidInput, models.KindOf(err), v)
	}
	raw, err := ParseValues(map[string]string{"Open": "0.5", "Volume": "-0"})
	require.NoError(t, err)
	assert.Equal(t, 0.5, raw["Open"])
}

func TestParseValuesRejectsNonNumeric(t *testing.T) {
	_, err := ParseValues(map[string]string{"Open": "abc", "Volume": "1"})
	require.Error(t, err)
	assert.Equal(t, models.InvalidInput, models.KindOf(err))
	assert.Contains(t, err.Error(), "Open")
	assert.Contains(t, err.Error(), `"abc"`)
}

func TestParseValuesRejectsNonFinite(t *testing.T) {
	for _, v := range []string{"NaN", "inf", "-Inf"} {
		_, err := ParseValues(map[string]string{"Open": v})
		assert.Equal(t, models.InvalidInput, models.KindOf(err), v)
	}
}

func TestParseValuesReportsFirstFieldByName(t *testing.T) {
	_, err := ParseValues(map[string]string{"b": "x", "a": "y"})
	var pe *models.PredictionError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "a", pe.Field)
}

func TestFirstValues(t *testing.T) {
	got := FirstValues(map[string][]string{"a": {"1", "2"}, "b": {}})
	assert.Equal(t, map[string]string{"a": "1"}, got)
}

func TestNormalizeFillsMissingWithZero(t *testing.T) {
	n := NewNormalizer(testSchema, DropUnknown)

	row, ignored, err := n.Normalize(models.RawFeatures{"Volume": 42})
	require.NoError(t, err)
	assert.Empty(t, ignored)
	assert.Equal(t, testSchema.Columns, row.Columns)
	assert.Equal(t, []float64{0, 0, 42, 0}, row.Values)

	v, ok := row.Get("Open")
	assert.True(t, ok)
	assert.Zero(t, v)
}

func TestNormalizeFullInputKeepsExactSchema(t *testing.T) {
	n := NewNormalizer(testSchema, DropUnknown)

	row, _, err := n.Normalize(models.RawFeatures{"Open": 1, "Adj Close": 2, "Volume": 3, "OCI": 4})
	require.NoError(t, err)

	m := row.Map()
	assert.Len(t, m, testSchema.Len())
	assert.Equal(t, map[string]float64{"Open": 1, "Adj Close": 2, "Volume": 3, "OCI": 4}, m)
}

func TestNormalizeDropsUnknownColumns(t *testing.T) {
	n := NewNormalizer(testSchema, DropUnknown)

	row, ignored, err := n.Normalize(models.RawFeatures{"Open": 1, "zeta": 9, "alpha": 8})
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, ignored)
	_, ok := row.Get("zeta")
	assert.False(t, ok)
	assert.Len(t, row.Values, testSchema.Len())
}

func TestNormalizeRejectsUnknownColumns(t *testing.T) {
	n := NewNormalizer(testSchema, RejectUnknown)

	_, _, err := n.Normalize(models.RawFeatures{"Open": 1, "zeta": 9})
	require.Error(t, err)
	assert.Equal(t, models.SchemaMismatch, models.KindOf(err))
	assert.Contains(t, err.Error(), "zeta")
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, DropUnknown, p)

	p, err = ParsePolicy("REJECT")
	require.NoError(t, err)
	assert.Equal(t, RejectUnknown, p)

	_, err = ParsePolicy("keep")
	assert.Error(t, err)
}
