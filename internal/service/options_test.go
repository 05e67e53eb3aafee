package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-demand-optimizer/internal/config"
	"retail-demand-optimizer/internal/forecast"
)

func TestForecastOptionsMapping(t *testing.T) {
	opts := ForecastOptions(config.ForecastConfig{Window: 8, AnomalyThreshold: 1.5, MinPointsForSeasonal: 20})
	assert.Equal(t, forecast.Options{Window: 8, AnomalyThreshold: 1.5, MinPointsForSeasonal: 20}, opts)
}

func TestNewSeasonalModelFromConfig(t *testing.T) {
	model, err := NewSeasonalModel(config.SeasonalConfig{
		Mode:               "additive",
		WeeklySeasonality:  "on",
		YearlySeasonality:  "off",
		DailySeasonality:   "off",
		WeeklyFourierOrder: 2,
		IntervalWidth:      0.9,
		Cadence:            24 * time.Hour,
	})
	require.NoError(t, err)

	got := model.Config()
	assert.Equal(t, forecast.ModeAdditive, got.Mode)
	assert.Equal(t, forecast.ToggleOff, got.YearlySeasonality)
	assert.Equal(t, 2, got.WeeklyFourierOrder)
	assert.Equal(t, 0.9, got.IntervalWidth)
	assert.Equal(t, 24*time.Hour, got.Cadence)

	_, err = NewSeasonalModel(config.SeasonalConfig{Mode: "log"})
	assert.True(t, forecast.IsConfigError(err))
}
