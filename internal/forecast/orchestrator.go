package forecast

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"retail-demand-optimizer/internal/timeseries"
)

// DefaultMinPointsForSeasonal is the history length below which the seasonal
// model is not attempted.
const DefaultMinPointsForSeasonal = 10

// Options configure the Orchestrator.
type Options struct {
	Window               int
	AnomalyThreshold     float64
	MinPointsForSeasonal int
}

// DefaultOptions returns the dashboard defaults.
func DefaultOptions() Options {
	return Options{
		Window:               DefaultWindow,
		AnomalyThreshold:     DefaultAnomalyThreshold,
		MinPointsForSeasonal: DefaultMinPointsForSeasonal,
	}
}

// Orchestrator picks the seasonal model when the history allows it and falls
// back to the rolling average otherwise. ProduceForecast only fails on an
// invalid horizon or an empty series.
type Orchestrator struct {
	fitter    Fitter
	rolling   *RollingAverageModel
	minPoints int
	logger    zerolog.Logger
}

// NewOrchestrator wires the fitter and the fallback. A nil fitter selects the
// seasonal model with its defaults.
func NewOrchestrator(opts Options, fitter Fitter, logger zerolog.Logger) (*Orchestrator, error) {
	rolling, err := NewRollingAverageModel(opts.Window, opts.AnomalyThreshold)
	if err != nil {
		return nil, err
	}
	if opts.MinPointsForSeasonal < 2 {
		return nil, &ConfigError{Param: "min_points_for_seasonal", Value: opts.MinPointsForSeasonal, Reason: "must be at least 2"}
	}
	if fitter == nil {
		model, err := NewSeasonalModel(DefaultSeasonalConfig())
		if err != nil {
			return nil, err
		}
		fitter = model
	}

	return &Orchestrator{
		fitter:    fitter,
		rolling:   rolling,
		minPoints: opts.MinPointsForSeasonal,
		logger:    logger.With().Str("component", "forecast").Logger(),
	}, nil
}

// ProduceForecast returns the seasonal forecast when it can be fitted and the
// rolling-average fallback otherwise. A fitter failure is never surfaced.
func (o *Orchestrator) ProduceForecast(series timeseries.Slice, horizon int) (Result, error) {
	if horizon <= 0 {
		return Result{}, &ConfigError{Param: "horizon", Value: horizon, Reason: "must be greater than zero"}
	}
	if series.Len() == 0 {
		return Result{}, timeseries.ErrEmptySeries
	}

	if series.Len() < o.minPoints {
		o.logger.Info().
			Str("series", series.Label()).
			Int("points", series.Len()).
			Int("min_points", o.minPoints).
			Msg("history too short for seasonal model, using rolling average")
		return o.fallback(series, horizon, FallbackInsufficientData, ErrInsufficientData)
	}

	// re-aggregate so a fitter never sees duplicate timestamps
	aggregated, err := timeseries.NewSlice(series.Points())
	if err != nil {
		return Result{}, fmt.Errorf("aggregate series: %w", err)
	}

	result, err := o.safeFit(aggregated, horizon)
	if err == nil {
		err = checkFit(result, aggregated.Len(), horizon)
	}
	if err != nil {
		o.logger.Warn().
			Err(err).
			Str("series", series.Label()).
			Int("points", series.Len()).
			Msg("seasonal fit failed, falling back to rolling average")
		return o.fallback(series, horizon, FallbackFitFailed, err)
	}

	result.ModelUsed = ModelSeasonal
	result.Horizon = horizon
	return result, nil
}

func (o *Orchestrator) safeFit(series timeseries.Slice, horizon int) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ModelFitError{Model: string(ModelSeasonal), Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	result, err = o.fitter.Fit(series, horizon)
	if err != nil {
		var fitErr *ModelFitError
		if !errors.As(err, &fitErr) {
			err = &ModelFitError{Model: string(ModelSeasonal), Err: err}
		}
	}
	return result, err
}

func checkFit(result Result, observed, horizon int) error {
	if len(result.Points) != observed+horizon {
		return &ModelFitError{
			Model: string(ModelSeasonal),
			Err:   fmt.Errorf("expected %d points, got %d", observed+horizon, len(result.Points)),
		}
	}
	return nil
}

func (o *Orchestrator) fallback(series timeseries.Slice, horizon int, reason FallbackReason, cause error) (Result, error) {
	result, err := o.rolling.Forecast(series)
	if err != nil {
		return Result{}, err
	}
	result.Fallback = reason
	result.Horizon = horizon
	if cause != nil && reason == FallbackFitFailed {
		result.FallbackError = cause.Error()
	}
	return result, nil
}
