package forecast

import (
	"errors"
	"fmt"
)

// ErrInsufficientData marks a series shorter than the seasonal minimum. The
// orchestrator handles it by falling back; it never reaches callers.
var ErrInsufficientData = errors.New("forecast: insufficient data for seasonal model")

// ConfigError is an invalid parameter rejected at a component boundary.
type ConfigError struct {
	Param  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("forecast: invalid %s %v: %s", e.Param, e.Value, e.Reason)
}

// ModelFitError wraps any failure of the seasonal fit.
type ModelFitError struct {
	Model string
	Err   error
}

func (e *ModelFitError) Error() string {
	return fmt.Sprintf("forecast: %s fit failed: %v", e.Model, e.Err)
}

func (e *ModelFitError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is a ConfigError.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}

func fitError(format string, args ...any) error {
	return &ModelFitError{Model: string(ModelSeasonal), Err: fmt.Errorf(format, args...)}
}
