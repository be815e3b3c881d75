package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"Consensus/internal/domain/models"
	domsvc "Consensus/internal/domain/service"
	xhttp "Consensus/pkg/http"
	xlogger "Consensus/pkg/logger"
)

// ConsensusHandler serves the JSON prediction API.
type ConsensusHandler struct {
	logger *xlogger.Logger
	svc    domsvc.ConsensusService
}

func NewConsensusHandler(logger *xlogger.Logger, svc domsvc.ConsensusService) *ConsensusHandler {
	return &ConsensusHandler{logger: logger, svc: svc}
}

func (h *ConsensusHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.POST("/predict", h.Predict)
	g.GET("/schema", h.Schema)
}

// Predict handles POST /api/v1/predict.
func (h *ConsensusHandler) Predict(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	values, err := featureStrings(req.Features)
	if err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}

	reqID := req.RequestID
	if reqID == "" {
		reqID = c.Response().Header().Get(echo.HeaderXRequestID)
	}
	res, err := h.svc.Predict(c.Request().Context(), models.PredictInput{RequestID: reqID, Values: values})
	if err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}

	return xhttp.SuccessResponse(c, models.PredictResponse{
		RequestID:      res.RequestID,
		Category:       res.Consensus.Category,
		Scores:         res.Consensus.Scores,
		Outputs:        res.Consensus.Outputs,
		IgnoredColumns: res.IgnoredColumns,
		ModelVersion:   res.ModelVersion,
		CacheHit:       res.CacheHit,
	})
}

// Schema handles GET /api/v1/schema.
func (h *ConsensusHandler) Schema(c echo.Context) error {
	return xhttp.SuccessResponse(c, models.SchemaResponse{
		Columns: h.svc.Columns(),
		Targets: h.svc.Targets(),
	})
}

// featureStrings accepts JSON numbers and numeric strings; null means absent.
func featureStrings(in map[string]interface{}) (map[string]string, error) {
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch val := v.(type) {
		case nil:
		case float64:
			out[k] = strconv.FormatFloat(val, 'g', -1, 64)
		case string:
			out[k] = val
		default:
			return nil, models.NewInvalidInput(k, fmt.Errorf("expected a number, got %T", v))
		}
	}
	return out, nil
}

func toAppError(err error) *xhttp.AppError {
	kind := models.KindOf(err)
	switch kind {
	case models.InvalidInput:
		return xhttp.NewAppError("ERR_INVALID_INPUT", fieldOf(err), err.Error(), http.StatusBadRequest).WithParam("kind", kind.String()).WithError(err)
	case models.SchemaMismatch:
		return xhttp.NewAppError("ERR_SCHEMA_MISMATCH", "", err.Error(), http.StatusBadRequest).WithParam("kind", kind.String()).WithError(err)
	case models.InferenceFailure:
		return xhttp.NewAppError("ERR_INFERENCE", "", "model inference failed", http.StatusBadGateway).WithParam("kind", kind.String()).WithError(err)
	default:
		return xhttp.InternalError("prediction failed").WithError(err)
	}
}

func fieldOf(err error) string {
	var pe *models.PredictionError
	if errors.As(err, &pe) {
		return pe.Field
	}
	return ""
}
