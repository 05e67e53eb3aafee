package service

import (
	"retail-demand-optimizer/internal/config"
	"retail-demand-optimizer/internal/forecast"
)

// ForecastOptions maps the configured forecast knobs onto orchestrator
// options.
func ForecastOptions(cfg config.ForecastConfig) forecast.Options {
	return forecast.Options{
		Window:               cfg.Window,
		AnomalyThreshold:     cfg.AnomalyThreshold,
		MinPointsForSeasonal: cfg.MinPointsForSeasonal,
	}
}

// SeasonalConfig maps the plain config block onto the model configuration.
func SeasonalConfig(cfg config.SeasonalConfig) forecast.SeasonalConfig {
	return forecast.SeasonalConfig{
		Mode:               forecast.SeasonalityMode(cfg.Mode),
		WeeklySeasonality:  forecast.Toggle(cfg.WeeklySeasonality),
		YearlySeasonality:  forecast.Toggle(cfg.YearlySeasonality),
		DailySeasonality:   forecast.Toggle(cfg.DailySeasonality),
		WeeklyFourierOrder: cfg.WeeklyFourierOrder,
		YearlyFourierOrder: cfg.YearlyFourierOrder,
		DailyFourierOrder:  cfg.DailyFourierOrder,
		IntervalWidth:      cfg.IntervalWidth,
		Cadence:            cfg.Cadence,
	}
}

// NewSeasonalModel builds the seasonal fitter from configuration.
func NewSeasonalModel(cfg config.SeasonalConfig) (*forecast.SeasonalModel, error) {
	return forecast.NewSeasonalModel(SeasonalConfig(cfg))
}
