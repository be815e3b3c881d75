package inference

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"Consensus/internal/domain/models"
	domsvc "Consensus/internal/domain/service"
	xhttp "Consensus/pkg/http"
)

const predictPath = "/predict"

// RemoteConfig points a RemotePredictor at a model service.
type RemoteConfig struct {
	ServiceURL string
	Timeout    time.Duration
	Attempts   int
	Targets    []string
	Version    string
}

// RemotePredictor delegates inference to an HTTP model service.
type RemotePredictor struct {
	base     *httpServiceBase
	attempts int
	targets  []string
	version  string
}

type predictRequest struct {
	Columns []string    `json:"columns"`
	Rows    [][]float64 `json:"rows"`
}

type predictResponse struct {
	Predictions [][]float64 `json:"predictions"`
}

func NewRemotePredictor(cfg RemoteConfig, opts ...xhttp.ClientOption) (*RemotePredictor, error) {
	if cfg.ServiceURL == "" {
		return nil, errors.New("inference service url is required")
	}
	if len(cfg.Targets) == 0 {
		return nil, errors.New("remote predictor needs its target order")
	}
	version := cfg.Version
	if version == "" {
		version = "remote"
	}
	return &RemotePredictor{
		base:     newHTTPServiceBase(cfg.ServiceURL, cfg.Timeout, opts...),
		attempts: cfg.Attempts,
		targets:  append([]string(nil), cfg.Targets...),
		version:  version,
	}, nil
}

func (p *RemotePredictor) Targets() []string { return p.targets }

func (p *RemotePredictor) Version() string { return p.version }

// Predict sends all rows in one request. The service must answer with one
// prediction per row, each with one value per target.
func (p *RemotePredictor) Predict(ctx context.Context, rows []models.FeatureRow) ([][]float64, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	req := predictRequest{Columns: rows[0].Columns, Rows: make([][]float64, len(rows))}
	for i, r := range rows {
		if len(r.Columns) != len(req.Columns) {
			return nil, models.NewSchemaMismatch(fmt.Errorf("row %d has %d columns, want %d", i, len(r.Columns), len(req.Columns)))
		}
		req.Rows[i] = r.Values
	}

	var resp predictResponse
	if err := p.base.postJSONWithRetry(ctx, predictPath, req, &resp, p.attempts); err != nil {
		var se *xhttp.StatusError
		if errors.As(err, &se) && (se.StatusCode == http.StatusBadRequest || se.StatusCode == http.StatusUnprocessableEntity) {
			return nil, models.NewSchemaMismatch(err)
		}
		return nil, models.NewInferenceFailure(err)
	}

	if len(resp.Predictions) != len(rows) {
		return nil, models.NewInferenceFailure(fmt.Errorf("model service returned %d predictions for %d rows", len(resp.Predictions), len(rows)))
	}
	return resp.Predictions, nil
}

var _ domsvc.Predictor = (*RemotePredictor)(nil)
