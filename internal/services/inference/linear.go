package inference

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"Consensus/internal/domain/models"
	domsvc "Consensus/internal/domain/service"
)

// LinearPredictor evaluates a multi-output linear model in process.
type LinearPredictor struct {
	version  string
	features []string
	index    map[string]int
	targets  []string
	weights  *mat.Dense
	bias     *mat.VecDense
}

// NewLinearPredictor checks the artifact's shape and builds the weight matrix.
func NewLinearPredictor(m models.LinearModel) (*LinearPredictor, error) {
	nf, nt := len(m.Features), len(m.Targets)
	if nf == 0 {
		return nil, errors.New("linear model has no features")
	}
	if nt == 0 {
		return nil, errors.New("linear model has no targets")
	}
	if len(m.Coefficients) != nt {
		return nil, fmt.Errorf("linear model has %d coefficient rows for %d targets", len(m.Coefficients), nt)
	}
	if len(m.Intercepts) != nt {
		return nil, fmt.Errorf("linear model has %d intercepts for %d targets", len(m.Intercepts), nt)
	}

	index := make(map[string]int, nf)
	for i, f := range m.Features {
		if _, dup := index[f]; dup {
			return nil, fmt.Errorf("linear model lists feature %q twice", f)
		}
		index[f] = i
	}

	data := make([]float64, 0, nt*nf)
	for t, row := range m.Coefficients {
		if len(row) != nf {
			return nil, fmt.Errorf("coefficients for %q have %d values, want %d", m.Targets[t], len(row), nf)
		}
		data = append(data, row...)
	}

	return &LinearPredictor{
		version:  m.Version,
		features: append([]string(nil), m.Features...),
		index:    index,
		targets:  append([]string(nil), m.Targets...),
		weights:  mat.NewDense(nt, nf, data),
		bias:     mat.NewVecDense(nt, append([]float64(nil), m.Intercepts...)),
	}, nil
}

// Features returns the input columns the model was fitted on.
func (p *LinearPredictor) Features() []string { return p.features }

func (p *LinearPredictor) Targets() []string { return p.targets }

func (p *LinearPredictor) Version() string { return p.version }

// Predict computes W*x + b for every row. Rows are matched to the model's
// features by column name; a row with a different column set is a
// SchemaMismatch.
func (p *LinearPredictor) Predict(ctx context.Context, rows []models.FeatureRow) ([][]float64, error) {
	out := make([][]float64, 0, len(rows))
	x := mat.NewVecDense(len(p.features), nil)
	y := mat.NewVecDense(len(p.targets), nil)

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := p.load(x, row); err != nil {
			return nil, models.NewSchemaMismatch(err)
		}
		y.MulVec(p.weights, x)
		y.AddVec(y, p.bias)

		res := make([]float64, len(p.targets))
		for i := range res {
			res[i] = y.AtVec(i)
		}
		out = append(out, res)
	}
	return out, nil
}

func (p *LinearPredictor) load(x *mat.VecDense, row models.FeatureRow) error {
	if len(row.Columns) != len(row.Values) {
		return fmt.Errorf("row has %d columns but %d values", len(row.Columns), len(row.Values))
	}
	if len(row.Columns) != len(p.features) {
		return fmt.Errorf("row has %d columns, model expects %d", len(row.Columns), len(p.features))
	}
	seen := make([]bool, len(p.features))
	for i, c := range row.Columns {
		j, ok := p.index[c]
		if !ok {
			return fmt.Errorf("model has no feature %q", c)
		}
		if seen[j] {
			return fmt.Errorf("column %q repeated", c)
		}
		seen[j] = true
		x.SetVec(j, row.Values[i])
	}
	return nil
}

var _ domsvc.Predictor = (*LinearPredictor)(nil)
