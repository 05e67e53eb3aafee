package server

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"net/http"

	"github.com/labstack/echo/v4"

	"retail-demand-optimizer/internal/forecast"
	"retail-demand-optimizer/internal/insights"
	"retail-demand-optimizer/internal/render"
	"retail-demand-optimizer/internal/service"
	"retail-demand-optimizer/internal/storage"
)

// Views is the read side of the dashboard.
type Views interface {
	Preview(ctx context.Context, dataset string, limit int) (service.Preview, error)
	Describe(ctx context.Context, dataset string) (service.EDA, error)
	Insights(ctx context.Context, dataset string) (service.InsightReport, error)
	Stores(ctx context.Context) ([]storage.StoreSummary, error)
}

// Forecaster runs the forecast pipeline.
type Forecaster interface {
	Forecast(ctx context.Context, req service.Request) (service.Outcome, error)
}

var (
	_ Views      = (*service.Dashboard)(nil)
	_ Forecaster = (*service.Service)(nil)
)

// Handler serves the dashboard API.
type Handler struct {
	views      Views
	forecaster Forecaster
	maxHorizon int
}

// NewHandler wires the handler dependencies.
func NewHandler(views Views, forecaster Forecaster, maxHorizon int) *Handler {
	return &Handler{views: views, forecaster: forecaster, maxHorizon: maxHorizon}
}

// RegisterRoutes mounts the API under /api.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/datasets/:dataset/rows", h.rows)
	api.GET("/datasets/:dataset/describe", h.describe)
	api.GET("/insights/:dataset", h.insights)
	api.GET("/stores", h.stores)
	api.GET("/forecast", h.forecast)
	api.GET("/forecast/chart.png", h.forecastChart)
}

func (h *Handler) rows(c echo.Context) error {
	var req RowsRequest
	if errs := readAndValidate(c, &req); errs != nil {
		return BadRequestResponse(c, errs)
	}
	preview, err := h.views.Preview(c.Request().Context(), req.Dataset, req.Limit)
	if err != nil {
		return ErrorResponse(c, err)
	}
	return ListResponse(c, rowMaps(preview.Rows), preview.Total)
}

type describeResponse struct {
	service.EDA
	Head []map[string]any `json:"head"`
}

func (h *Handler) describe(c echo.Context) error {
	var req DatasetRequest
	if errs := readAndValidate(c, &req); errs != nil {
		return BadRequestResponse(c, errs)
	}
	eda, err := h.views.Describe(c.Request().Context(), req.Dataset)
	if err != nil {
		return ErrorResponse(c, err)
	}
	return SuccessResponse(c, describeResponse{EDA: eda, Head: rowMaps(eda.Head)})
}

func (h *Handler) insights(c echo.Context) error {
	var req DatasetRequest
	if errs := readAndValidate(c, &req); errs != nil {
		return BadRequestResponse(c, errs)
	}
	report, err := h.views.Insights(c.Request().Context(), req.Dataset)
	if err != nil {
		return ErrorResponse(c, err)
	}
	return SuccessResponse(c, report)
}

type storeResponse struct {
	Store      int64   `json:"store"`
	Type       *string `json:"type"`
	Size       *int64  `json:"size"`
	Weeks      int64   `json:"weeks"`
	TotalSales string  `json:"total_sales"`
}

func (h *Handler) stores(c echo.Context) error {
	stores, err := h.views.Stores(c.Request().Context())
	if err != nil {
		return ErrorResponse(c, err)
	}
	out := make([]storeResponse, len(stores))
	for i, s := range stores {
		out[i] = storeResponse{Store: s.Store, Type: s.Type, Size: s.Size, Weeks: s.Weeks, TotalSales: s.TotalSales.StringFixed(2)}
	}
	return ListResponse(c, out, int64(len(out)))
}

type forecastResponse struct {
	Summary insights.ForecastSummary `json:"summary"`
	Result  forecast.Result          `json:"result"`
}

func (h *Handler) forecast(c echo.Context) error {
	_, outcome, failed := h.runForecast(c)
	if failed != nil {
		return failed()
	}
	return SuccessResponse(c, forecastResponse{Summary: outcome.Summary, Result: outcome.Result})
}

func (h *Handler) forecastChart(c echo.Context) error {
	req, outcome, failed := h.runForecast(c)
	if failed != nil {
		return failed()
	}

	var buf bytes.Buffer
	opts := render.ChartOptions{Title: outcome.Summary.Series, Width: req.Width, Height: req.Height}
	if err := render.ForecastChart(&buf, outcome.Result, opts); err != nil {
		return DataResponse(c, http.StatusUnprocessableEntity, err.Error())
	}
	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

// runForecast binds and runs a forecast request. On failure the returned
// func writes the error response.
func (h *Handler) runForecast(c echo.Context) (ForecastRequest, service.Outcome, func() error) {
	var req ForecastRequest
	if errs := readAndValidate(c, &req); errs != nil {
		return req, service.Outcome{}, func() error { return BadRequestResponse(c, errs) }
	}
	if h.maxHorizon > 0 && req.Horizon > h.maxHorizon {
		errs := []ValidationError{{
			Code:    "ERR_LTE",
			Field:   "Horizon",
			Message: fmt.Sprintf("Horizon must be less than or equal to %d", h.maxHorizon),
		}}
		return req, service.Outcome{}, func() error { return BadRequestResponse(c, errs) }
	}

	sreq := service.Request{
		Store:     req.Store,
		Horizon:   req.Horizon,
		Window:    req.Window,
		Threshold: req.Threshold,
	}
	if req.Dept > 0 {
		dept := req.Dept
		sreq.Dept = &dept
	}

	outcome, err := h.forecaster.Forecast(c.Request().Context(), sreq)
	if err != nil {
		return req, service.Outcome{}, func() error { return ErrorResponse(c, err) }
	}
	return req, outcome, nil
}

// rowMaps converts rows to JSON-friendly maps.
func rowMaps(rows []storage.Row) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		m := row.Map()
		for k, v := range m {
			switch t := v.(type) {
			case *big.Int:
				m[k] = t.String()
			case []byte:
				m[k] = string(t)
			}
		}
		out[i] = m
	}
	return out
}
