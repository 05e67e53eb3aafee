package forecast

import (
	"math"
	"strconv"
	"time"

	"retail-demand-optimizer/internal/timeseries"
)

var testStart = time.Date(2010, 2, 5, 0, 0, 0, 0, time.UTC)

func weeklySeries(values []float64) timeseries.Slice {
	dims := map[string]string{"store": "1"}
	points := make([]timeseries.Point, len(values))
	for i, v := range values {
		points[i] = timeseries.NewPoint(testStart.AddDate(0, 0, 7*i), v, dims)
	}
	return timeseries.MustSlice(points)
}

func constantValues(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// seasonalValues is a gently trending weekly series with a yearly cycle.
func seasonalValues(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1000 + 2*float64(i) + 80*math.Sin(2*math.Pi*float64(i)/52)
	}
	return out
}

func storeDims(store int) map[string]string {
	return map[string]string{"store": strconv.Itoa(store)}
}
