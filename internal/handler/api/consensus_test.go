package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Consensus/internal/domain/models"
	xlogger "Consensus/pkg/logger"
)

type stubService struct {
	got models.PredictInput
	res models.PredictionResult
	err error
}

func (s *stubService) Predict(_ context.Context, in models.PredictInput) (models.PredictionResult, error) {
	s.got = in
	return s.res, s.err
}

func (s *stubService) Columns() []string { return []string{"pe_ratio", "beta"} }

func (s *stubService) Targets() []string { return []string{"Buy_%", "Outperform_%", "Hold_%", "Underperform_%", "Sell_%"} }

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func serve(t *testing.T, h *ConsensusHandler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestPredictEndpoint(t *testing.T) {
	svc := &stubService{res: models.PredictionResult{
		RequestID: "abc",
		Consensus: models.Consensus{
			Category: models.CategoryBuy,
			Scores:   map[models.Category]float64{models.CategoryBuy: 60},
		},
		ModelVersion: "v1",
	}}
	h := NewConsensusHandler(xlogger.Nop(), svc)

	rec, env := serve(t, h, http.MethodPost, "/api/v1/predict", `{"features":{"pe_ratio":12.5,"beta":"1.1","gone":null}}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"pe_ratio": "12.5", "beta": "1.1"}, svc.got.Values)

	var resp models.PredictResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, models.CategoryBuy, resp.Category)
	assert.Equal(t, "abc", resp.RequestID)
}

func TestPredictUsesHeaderRequestID(t *testing.T) {
	svc := &stubService{}
	e := echo.New()
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: func() string { return "gen-1" }}))
	NewConsensusHandler(xlogger.Nop(), svc).RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(`{"features":{}}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "gen-1", svc.got.RequestID)
	assert.Equal(t, "gen-1", rec.Header().Get(echo.HeaderXRequestID))
}

func TestPredictEndpointStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid input", models.NewInvalidInput("pe_ratio", errors.New("bad")), http.StatusBadRequest, "ERR_INVALID_INPUT"},
		{"schema mismatch", models.NewSchemaMismatch(errors.New("unexpected columns: x")), http.StatusBadRequest, "ERR_SCHEMA_MISMATCH"},
		{"inference", models.NewInferenceFailure(errors.New("timeout")), http.StatusBadGateway, "ERR_INFERENCE"},
		{"untyped", errors.New("???"), http.StatusInternalServerError, "ERR_INTERNAL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewConsensusHandler(xlogger.Nop(), &stubService{err: tc.err})
			rec, env := serve(t, h, http.MethodPost, "/api/v1/predict", `{"features":{"pe_ratio":1}}`)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.status, env.Status)

			var errs []map[string]interface{}
			require.NoError(t, json.Unmarshal(env.Data, &errs))
			require.Len(t, errs, 1)
			assert.Equal(t, tc.code, errs[0]["code"])
		})
	}
}

func TestPredictEndpointValidation(t *testing.T) {
	svc := &stubService{}
	h := NewConsensusHandler(xlogger.Nop(), svc)

	rec, _ := serve(t, h, http.MethodPost, "/api/v1/predict", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env := serve(t, h, http.MethodPost, "/api/v1/predict", `{"features":{"pe_ratio":true}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, string(env.Data), "ERR_INVALID_INPUT")
	assert.Nil(t, svc.got.Values)
}

func TestSchemaEndpoint(t *testing.T) {
	rec, env := serve(t, NewConsensusHandler(xlogger.Nop(), &stubService{}), http.MethodGet, "/api/v1/schema", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp models.SchemaResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, []string{"pe_ratio", "beta"}, resp.Columns)
	assert.Len(t, resp.Targets, 5)
}

func TestHealthEndpoint(t *testing.T) {
	e := echo.New()
	NewHealthHandler("v1", map[string]HealthCheck{
		"redis":      func(context.Context) error { return nil },
		"clickhouse": func(context.Context) error { return errors.New("unreachable") },
	}).RegisterRoutes(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"clickhouse":"unreachable"`)
	assert.Contains(t, rec.Body.String(), `"redis":"ok"`)

	e = echo.New()
	NewHealthHandler("v1", nil).RegisterRoutes(e)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
