package web

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"Consensus/internal/domain/models"
	domsvc "Consensus/internal/domain/service"
	"Consensus/internal/services/features"
	xlogger "Consensus/pkg/logger"
)

const indexTemplate = "index.html"

// FormHandler serves the HTML prediction form.
type FormHandler struct {
	logger  *xlogger.Logger
	svc     domsvc.ConsensusService
	version string
}

func NewFormHandler(logger *xlogger.Logger, svc domsvc.ConsensusService, modelVersion string) *FormHandler {
	return &FormHandler{logger: logger, svc: svc, version: modelVersion}
}

func (h *FormHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Index)
	e.POST("/predict", h.Predict)
}

type field struct {
	Name  string
	Value string
}

type page struct {
	Fields       []field
	Targets      []string
	ModelVersion string
	Prediction   string
}

func (h *FormHandler) page(values map[string]string, prediction string) page {
	cols := h.svc.Columns()
	p := page{
		Fields:       make([]field, len(cols)),
		Targets:      h.svc.Targets(),
		ModelVersion: h.version,
		Prediction:   prediction,
	}
	for i, c := range cols {
		p.Fields[i] = field{Name: c, Value: values[c]}
	}
	return p
}

// Index renders the empty form.
func (h *FormHandler) Index(c echo.Context) error {
	return c.Render(http.StatusOK, indexTemplate, h.page(nil, ""))
}

// Predict renders the form with either the consensus label or the error
// text. It always answers 200.
func (h *FormHandler) Predict(c echo.Context) error {
	form, err := c.FormParams()
	if err != nil {
		return c.Render(http.StatusOK, indexTemplate, h.page(nil, "Error: "+err.Error()))
	}
	values := features.FirstValues(form)

	res, err := h.svc.Predict(c.Request().Context(), models.PredictInput{
		RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
		Values:    values,
	})
	if err != nil {
		if models.KindOf(err) == models.InferenceFailure {
			h.logger.Error("form prediction failed", xlogger.Error(err))
		}
		return c.Render(http.StatusOK, indexTemplate, h.page(values, "Error: "+err.Error()))
	}
	return c.Render(http.StatusOK, indexTemplate, h.page(values, fmt.Sprintf("Predicted Analyst Consensus: %s", res.Consensus.Category)))
}
