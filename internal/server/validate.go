package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

// RowsRequest selects a page of raw rows.
type RowsRequest struct {
	Dataset string `param:"dataset" validate:"required,oneof=superstore walmart stores features test"`
	Limit   int    `query:"limit" default:"10" validate:"gte=1,lte=5000"`
}

// DatasetRequest names a dataset.
type DatasetRequest struct {
	Dataset string `param:"dataset" validate:"required,oneof=superstore walmart stores features test"`
}

// ForecastRequest selects a store series and optional overrides. Dept 0
// means every department; zero overrides keep the configured values.
type ForecastRequest struct {
	Store     int64   `query:"store" validate:"required,gt=0"`
	Dept      int64   `query:"dept" validate:"gte=0"`
	Horizon   int     `query:"horizon"`
	Window    int     `query:"window"`
	Threshold float64 `query:"threshold"`
	Width     int     `query:"width" default:"1280" validate:"gte=200,lte=4096"`
	Height    int     `query:"height" default:"720" validate:"gte=200,lte=4096"`
}

// readAndValidate binds path and query parameters, applies defaults and
// validates. It returns nil or the list of validation errors.
func readAndValidate(c echo.Context, req any) []ValidationError {
	if err := c.Bind(req); err != nil {
		return validationErrors(err)
	}
	if err := defaults.Set(req); err != nil {
		return validationErrors(err)
	}
	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		return validationErrors(err)
	}
	return nil
}

func validationErrors(err error) []ValidationError {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		out := make([]ValidationError, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			out = append(out, ValidationError{
				Code:    "ERR_" + strings.ToUpper(fe.Tag()),
				Field:   fe.Field(),
				Message: fieldMessage(fe),
			})
		}
		return out
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return []ValidationError{{Code: "ERR_BIND", Message: fmt.Sprintf("%v", he.Message)}}
	}
	return []ValidationError{{Code: "ERR_UNKNOWN", Message: err.Error()}}
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
