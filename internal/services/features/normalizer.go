package features

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"Consensus/internal/domain/models"
)

// UnknownColumnPolicy decides what happens to submitted columns that are
// not part of the reference schema.
type UnknownColumnPolicy string

const (
	DropUnknown   UnknownColumnPolicy = "drop"
	RejectUnknown UnknownColumnPolicy = "reject"
)

// ParsePolicy maps a config value to a policy.
func ParsePolicy(s string) (UnknownColumnPolicy, error) {
	switch p := UnknownColumnPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", DropUnknown:
		return DropUnknown, nil
	case RejectUnknown:
		return RejectUnknown, nil
	default:
		return "", fmt.Errorf("unknown column policy %q", s)
	}
}

var errNotFinite = errors.New("value must be a finite number")

// ParseValues coerces raw string values to floats. Surrounding whitespace
// is ignored; blank values and hex literals are rejected like any other
// non-decimal text. Fields are checked in name order so the reported field
// is stable.
func ParseValues(values map[string]string) (models.RawFeatures, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	raw := make(models.RawFeatures, len(values))
	for _, k := range keys {
		v := strings.TrimSpace(values[k])
		f, err := parseDecimal(v)
		if err != nil {
			return nil, models.NewInvalidInput(k, fmt.Errorf("could not convert %q to float", v))
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, models.NewInvalidInput(k, errNotFinite)
		}
		raw[k] = f
	}
	return raw, nil
}

// parseDecimal is strconv.ParseFloat without the hex-float form.
func parseDecimal(s string) (float64, error) {
	digits := strings.TrimLeft(s, "+-")
	if len(digits) > 1 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseFloat(s, 64)
}

// FirstValues flattens multi-valued form data, keeping the first value.
func FirstValues(form map[string][]string) map[string]string {
	out := make(map[string]string, len(form))
	for k, vs := range form {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out
}

// Normalizer aligns raw features with the reference schema.
type Normalizer struct {
	schema models.Schema
	policy UnknownColumnPolicy
}

func NewNormalizer(schema models.Schema, policy UnknownColumnPolicy) *Normalizer {
	return &Normalizer{schema: schema, policy: policy}
}

// Schema returns the reference schema.
func (n *Normalizer) Schema() models.Schema { return n.schema }

// Normalize returns a row with exactly the reference columns, in schema
// order, zero-filling anything absent. Columns outside the schema are
// returned as ignored under DropUnknown and fail under RejectUnknown.
func (n *Normalizer) Normalize(raw models.RawFeatures) (models.FeatureRow, []string, error) {
	var unknown []string
	for k := range raw {
		if !n.schema.Has(k) {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)

	if len(unknown) > 0 && n.policy == RejectUnknown {
		return models.FeatureRow{}, nil, models.NewSchemaMismatch(
			fmt.Errorf("unexpected columns: %s", strings.Join(unknown, ", ")))
	}

	row := models.FeatureRow{
		Columns: n.schema.Columns,
		Values:  make([]float64, n.schema.Len()),
	}
	for i, c := range n.schema.Columns {
		row.Values[i] = raw[c]
	}
	return row, unknown, nil
}
