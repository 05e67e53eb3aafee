package forecast

import "time"

// ModelUsed tags the path that produced a Result. Anomaly semantics differ:
// the seasonal model flags values outside its interval, the rolling average
// flags values above a multiple of its estimate.
type ModelUsed string

const (
	ModelSeasonal       ModelUsed = "seasonal"
	ModelRollingAverage ModelUsed = "rolling_average"
)

// FallbackReason explains why the rolling average ran instead of the seasonal model.
type FallbackReason string

const (
	FallbackNone             FallbackReason = ""
	FallbackInsufficientData FallbackReason = "insufficient_data"
	FallbackFitFailed        FallbackReason = "fit_failed"
)

// Point is a single estimate. Bounds are only set by models that produce
// intervals. Observed is nil for extrapolated points, which are never anomalous.
type Point struct {
	Timestamp     time.Time `json:"timestamp"`
	PointEstimate float64   `json:"point_estimate"`
	LowerBound    *float64  `json:"lower_bound,omitempty"`
	UpperBound    *float64  `json:"upper_bound,omitempty"`
	Observed      *float64  `json:"observed,omitempty"`
	IsAnomaly     bool      `json:"is_anomaly"`
}

// HasBounds reports whether the point carries an interval.
func (p Point) HasBounds() bool {
	return p.LowerBound != nil && p.UpperBound != nil
}

// IsFuture reports whether the point lies beyond the observed history.
func (p Point) IsFuture() bool {
	return p.Observed == nil
}

// Result is the single shape returned by every model.
type Result struct {
	Points        []Point        `json:"points"`
	ModelUsed     ModelUsed      `json:"model_used"`
	Fallback      FallbackReason `json:"fallback,omitempty"`
	FallbackError string         `json:"fallback_error,omitempty"`
	Horizon       int            `json:"horizon"`
	Params        map[string]any `json:"params,omitempty"`
}

// Anomalies returns the flagged points in time order.
func (r Result) Anomalies() []Point {
	out := make([]Point, 0)
	for _, p := range r.Points {
		if p.IsAnomaly {
			out = append(out, p)
		}
	}
	return out
}

// Future returns the extrapolated points.
func (r Result) Future() []Point {
	out := make([]Point, 0, r.Horizon)
	for _, p := range r.Points {
		if p.IsFuture() {
			out = append(out, p)
		}
	}
	return out
}

// InsufficientData reports whether the history was too short for the seasonal model.
func (r Result) InsufficientData() bool {
	return r.Fallback == FallbackInsufficientData
}

func floatPtr(v float64) *float64 {
	return &v
}
