package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"retail-demand-optimizer/internal/forecast"
	"retail-demand-optimizer/internal/service"
	"retail-demand-optimizer/internal/storage"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ValidationError describes one rejected request field.
type ValidationError struct {
	Code    string         `json:"code,omitempty"`
	Field   string         `json:"field,omitempty"`
	Message string         `json:"message,omitempty"`
	Params  map[string]any `json:"params,omitempty"`
}

// ListDataResponse is a page of rows with the total row count.
type ListDataResponse struct {
	Rows  any   `json:"rows"`
	Total int64 `json:"total"`
}

// DataResponse writes the envelope with statusCode as both HTTP status and
// envelope status.
func DataResponse(c echo.Context, statusCode int, data any) error {
	return c.JSON(statusCode, APIResponse{
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Data:    data,
	})
}

// SuccessResponse writes a 200 envelope.
func SuccessResponse(c echo.Context, data any) error {
	return DataResponse(c, http.StatusOK, data)
}

// ListResponse writes a 200 envelope carrying rows and their total.
func ListResponse(c echo.Context, rows any, total int64) error {
	return SuccessResponse(c, &ListDataResponse{Rows: rows, Total: total})
}

// BadRequestResponse writes a 400 envelope.
func BadRequestResponse(c echo.Context, data any) error {
	return DataResponse(c, http.StatusBadRequest, data)
}

// ErrorResponse maps a core error onto an HTTP status.
func ErrorResponse(c echo.Context, err error) error {
	var cfgErr *forecast.ConfigError
	switch {
	case errors.As(err, &cfgErr):
		return BadRequestResponse(c, []ValidationError{{
			Code:    "ERR_CONFIG",
			Field:   cfgErr.Param,
			Message: cfgErr.Error(),
		}})
	case errors.Is(err, storage.ErrUnknownDataset), errors.Is(err, storage.ErrNoData):
		return DataResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotEnoughData):
		return DataResponse(c, http.StatusUnprocessableEntity, err.Error())
	default:
		return DataResponse(c, http.StatusInternalServerError, "Something went wrong")
	}
}
