package forecast

import (
	"math"

	"retail-demand-optimizer/internal/timeseries"
)

const (
	DefaultWindow           = 4
	DefaultAnomalyThreshold = 1.2
)

// RollingAverageModel is the trailing moving-average baseline. It has no
// intervals and never fails for a non-empty series.
type RollingAverageModel struct {
	window    int
	threshold float64
}

// NewRollingAverageModel validates the parameters eagerly.
func NewRollingAverageModel(window int, threshold float64) (*RollingAverageModel, error) {
	if window <= 0 {
		return nil, &ConfigError{Param: "window", Value: window, Reason: "must be greater than zero"}
	}
	if threshold <= 0 || math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return nil, &ConfigError{Param: "anomaly_threshold", Value: threshold, Reason: "must be a positive number"}
	}
	return &RollingAverageModel{window: window, threshold: threshold}, nil
}

// Window returns the configured window.
func (m *RollingAverageModel) Window() int {
	return m.window
}

// Threshold returns the configured anomaly multiplier.
func (m *RollingAverageModel) Threshold() float64 {
	return m.threshold
}

// Forecast computes mean(value[max(0,i-window+1)..i]) for every point; the
// window expands at the start of the series. A value is anomalous when it is
// strictly greater than estimate*threshold.
func (m *RollingAverageModel) Forecast(series timeseries.Slice) (Result, error) {
	if series.Len() == 0 {
		return Result{}, timeseries.ErrEmptySeries
	}

	values := series.Values()
	points := make([]Point, len(values))
	for i, value := range values {
		start := i - m.window + 1
		if start < 0 {
			start = 0
		}
		sum := 0.0
		for j := start; j <= i; j++ {
			sum += values[j]
		}
		estimate := sum / float64(i-start+1)

		points[i] = Point{
			Timestamp:     series.At(i).Timestamp,
			PointEstimate: estimate,
			Observed:      floatPtr(value),
			IsAnomaly:     value > estimate*m.threshold,
		}
	}

	return Result{
		Points:    points,
		ModelUsed: ModelRollingAverage,
		Params: map[string]any{
			"window":            m.window,
			"anomaly_threshold": m.threshold,
		},
	}, nil
}

// RollingAverage is a convenience wrapper around NewRollingAverageModel.
func RollingAverage(series timeseries.Slice, window int, threshold float64) (Result, error) {
	model, err := NewRollingAverageModel(window, threshold)
	if err != nil {
		return Result{}, err
	}
	return model.Forecast(series)
}
