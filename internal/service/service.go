package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"retail-demand-optimizer/internal/alerting"
	"retail-demand-optimizer/internal/config"
	"retail-demand-optimizer/internal/forecast"
	"retail-demand-optimizer/internal/insights"
	"retail-demand-optimizer/internal/timeseries"
)

// SeriesSource loads the weekly series for a store.
type SeriesSource interface {
	StoreSeries(ctx context.Context, store int64, dept *int64) (timeseries.Slice, error)
}

// Recorder receives forecast and notification outcomes.
type Recorder interface {
	ObserveForecast(model, fallback string, took time.Duration, anomalies int)
	NotificationSent(channel string, err error)
}

// Request selects the series and overrides the configured forecast knobs.
// Zero values keep the configured defaults.
type Request struct {
	Store     int64
	Dept      *int64
	Horizon   int
	Window    int
	Threshold float64
	Notify    bool
}

// Outcome is everything a presenter needs to render one forecast.
type Outcome struct {
	Series   timeseries.Slice
	Result   forecast.Result
	Summary  insights.ForecastSummary
	Notified bool
}

// Service runs the forecast pipeline: load series, forecast, summarise and
// optionally push an anomaly digest.
type Service struct {
	source   SeriesSource
	fitter   forecast.Fitter
	opts     forecast.Options
	horizon  int
	notifier alerting.Notifier
	recorder Recorder
	logger   zerolog.Logger

	alertsOn bool
	channels []string
	maxItems int
}

// New constructs the forecast service. notifier and recorder may be nil.
func New(cfg *config.Config, source SeriesSource, fitter forecast.Fitter, notifier alerting.Notifier, recorder Recorder, logger zerolog.Logger) *Service {
	return &Service{
		source:   source,
		fitter:   fitter,
		opts:     ForecastOptions(cfg.Forecast),
		horizon:  cfg.Forecast.Horizon,
		notifier: notifier,
		recorder: recorder,
		logger:   logger.With().Str("component", "service").Logger(),
		alertsOn: cfg.Alerting.Enabled,
		channels: cfg.Alerting.Channels,
		maxItems: cfg.Alerting.MaxItems,
	}
}

// Forecast runs one request. Errors are configuration errors, storage errors,
// or storage.ErrNoData when the store has no history.
func (s *Service) Forecast(ctx context.Context, req Request) (Outcome, error) {
	orchestrator, horizon, err := s.orchestratorFor(req)
	if err != nil {
		return Outcome{}, err
	}

	series, err := s.source.StoreSeries(ctx, req.Store, req.Dept)
	if err != nil {
		return Outcome{}, fmt.Errorf("load series: %w", err)
	}

	started := time.Now()
	result, err := orchestrator.ProduceForecast(series, horizon)
	if err != nil {
		return Outcome{}, err
	}
	took := time.Since(started)

	anomalies := result.Anomalies()
	if s.recorder != nil {
		s.recorder.ObserveForecast(string(result.ModelUsed), string(result.Fallback), took, len(anomalies))
	}

	s.logger.Info().
		Str("series", series.Label()).
		Str("model", string(result.ModelUsed)).
		Str("fallback", string(result.Fallback)).
		Int("points", series.Len()).
		Int("horizon", horizon).
		Int("anomalies", len(anomalies)).
		Dur("took", took).
		Msg("forecast produced")

	outcome := Outcome{
		Series:  series,
		Result:  result,
		Summary: insights.SummarizeForecast(series.Label(), result),
	}

	if req.Notify {
		outcome.Notified = s.notify(ctx, series.Label(), result, anomalies)
	}
	return outcome, nil
}

func (s *Service) orchestratorFor(req Request) (*forecast.Orchestrator, int, error) {
	opts := s.opts
	if req.Window != 0 {
		opts.Window = req.Window
	}
	if req.Threshold != 0 {
		opts.AnomalyThreshold = req.Threshold
	}
	horizon := s.horizon
	if req.Horizon != 0 {
		horizon = req.Horizon
	}
	if horizon <= 0 {
		return nil, 0, &forecast.ConfigError{Param: "horizon", Value: horizon, Reason: "must be greater than zero"}
	}

	orchestrator, err := forecast.NewOrchestrator(opts, s.fitter, s.logger)
	if err != nil {
		return nil, 0, err
	}
	return orchestrator, horizon, nil
}

func (s *Service) notify(ctx context.Context, label string, result forecast.Result, anomalies []forecast.Point) bool {
	if !s.alertsOn || s.notifier == nil {
		s.logger.Warn().Str("series", label).Msg("notification requested but alerting is disabled")
		return false
	}
	if len(anomalies) == 0 {
		s.logger.Debug().Str("series", label).Msg("no anomalies, digest not sent")
		return false
	}

	digest := alerting.Digest{
		Series:      label,
		ModelUsed:   result.ModelUsed,
		Fallback:    result.Fallback,
		GeneratedAt: time.Now().UTC(),
		Anomalies:   anomalies,
		MaxItems:    s.maxItems,
		Channels:    s.channels,
	}
	err := s.notifier.Notify(ctx, digest)
	if s.recorder != nil {
		for _, ch := range s.channels {
			s.recorder.NotificationSent(ch, err)
		}
	}
	if err != nil {
		s.logger.Error().Err(err).Str("series", label).Msg("failed to dispatch anomaly digest")
		return false
	}
	return true
}
