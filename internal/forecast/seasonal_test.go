package forecast

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefaultSeasonal(t *testing.T) *SeasonalModel {
	t.Helper()
	model, err := NewSeasonalModel(SeasonalConfig{})
	require.NoError(t, err)
	return model
}

func TestSeasonalFitShapesResult(t *testing.T) {
	model := newDefaultSeasonal(t)
	series := weeklySeries(seasonalValues(143))

	result, err := model.Fit(series, 12)
	require.NoError(t, err)

	assert.Equal(t, ModelSeasonal, result.ModelUsed)
	require.Len(t, result.Points, 143+12)
	assert.Equal(t, "weekly,yearly", result.Params["seasonalities"])

	last := series.Last().Timestamp
	for i, p := range result.Points {
		require.True(t, p.HasBounds(), "index %d", i)
		assert.LessOrEqual(t, *p.LowerBound, p.PointEstimate)
		assert.GreaterOrEqual(t, *p.UpperBound, p.PointEstimate)
		if i >= 143 {
			h := i - 143 + 1
			assert.True(t, p.IsFuture())
			assert.False(t, p.IsAnomaly)
			assert.Equal(t, last.Add(time.Duration(h)*7*24*time.Hour), p.Timestamp)
		}
	}

	assert.Len(t, result.Future(), 12)
}

func TestSeasonalFitTracksLevel(t *testing.T) {
	model := newDefaultSeasonal(t)
	values := seasonalValues(143)

	result, err := model.Fit(weeklySeries(values), 4)
	require.NoError(t, err)

	for i := range values {
		assert.InEpsilon(t, values[i], result.Points[i].PointEstimate, 0.10, "index %d", i)
	}
}

func TestSeasonalFlagsSpikeAndDrop(t *testing.T) {
	model := newDefaultSeasonal(t)
	values := seasonalValues(120)
	values[50] += 600
	values[70] -= 600

	result, err := model.Fit(weeklySeries(values), 0)
	require.NoError(t, err)

	spike := result.Points[50]
	drop := result.Points[70]
	assert.True(t, spike.IsAnomaly)
	assert.Greater(t, *spike.Observed, *spike.UpperBound)
	assert.True(t, drop.IsAnomaly)
	assert.Less(t, *drop.Observed, *drop.LowerBound)
}

func TestSeasonalFitIsDeterministic(t *testing.T) {
	model := newDefaultSeasonal(t)
	series := weeklySeries(seasonalValues(60))

	first, err := model.Fit(series, 8)
	require.NoError(t, err)
	second, err := model.Fit(series, 8)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSeasonalMultiplicativeRejectsNonPositiveObservation(t *testing.T) {
	model := newDefaultSeasonal(t)
	values := []float64{100, 90, 80, 0, 60, 50, 40, 30, 20, 10}

	_, err := model.Fit(weeklySeries(values), 12)
	require.Error(t, err)

	var fitErr *ModelFitError
	assert.True(t, errors.As(err, &fitErr))
}

func TestSeasonalAdditiveHandlesDecline(t *testing.T) {
	model, err := NewSeasonalModel(SeasonalConfig{Mode: ModeAdditive})
	require.NoError(t, err)

	declining := []float64{100, 90, 80, 70, 60, 50, 40, 30, 20, 10}
	result, err := model.Fit(weeklySeries(declining), 3)
	require.NoError(t, err)
	require.Len(t, result.Points, 13)
	assert.Equal(t, "additive", result.Params["mode"])
	for _, p := range result.Points {
		assert.True(t, allFinite([]float64{p.PointEstimate, *p.LowerBound, *p.UpperBound}))
	}
}

func TestSeasonalRejectsTooShortSeries(t *testing.T) {
	model := newDefaultSeasonal(t)
	_, err := model.Fit(weeklySeries([]float64{5}), 2)
	var fitErr *ModelFitError
	assert.True(t, errors.As(err, &fitErr))
}

func TestSeasonalWeeklyOnlyForShortHistory(t *testing.T) {
	model := newDefaultSeasonal(t)
	result, err := model.Fit(weeklySeries(seasonalValues(40)), 2)
	require.NoError(t, err)
	assert.Equal(t, "weekly", result.Params["seasonalities"])
	assert.Equal(t, "multiplicative", result.Params["mode"])
}

func TestSeasonalConfigValidation(t *testing.T) {
	cases := []SeasonalConfig{
		{Mode: "log"},
		{IntervalWidth: 1.5},
		{WeeklySeasonality: "sometimes"},
	}
	for _, cfg := range cases {
		_, err := NewSeasonalModel(cfg)
		assert.True(t, IsConfigError(err), "%+v", cfg)
	}
}

func TestZScore(t *testing.T) {
	assert.InDelta(t, 1.2816, zScore(0.8), 1e-4)
	assert.InDelta(t, 1.9600, zScore(0.95), 1e-4)
}
