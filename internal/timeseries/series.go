// Package timeseries holds the value objects shared by the forecasting and
// insight code: single observations and ordered, de-duplicated slices of them.
package timeseries

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// ErrEmptySeries is returned when a slice would contain no points.
var ErrEmptySeries = errors.New("timeseries: series is empty")

// Point is a single observation. Dimensions identify the entity the value
// belongs to (for example the store id).
type Point struct {
	Timestamp  time.Time
	Value      float64
	Dimensions map[string]string
}

// NewPoint copies dims so the point cannot be mutated through the caller's map.
func NewPoint(ts time.Time, value float64, dims map[string]string) Point {
	return Point{Timestamp: ts, Value: value, Dimensions: copyDims(dims)}
}

// Dimension returns a single dimension value or "".
func (p Point) Dimension(key string) string {
	return p.Dimensions[key]
}

// Slice is an ascending, duplicate-free series for one entity.
// The zero value is not valid; build one with NewSlice.
type Slice struct {
	points []Point
}

// NewSlice sorts the points by timestamp and merges points that share a
// timestamp into one whose value is the mean of the merged values. The
// dimensions of the first point at a timestamp are kept.
func NewSlice(points []Point) (Slice, error) {
	if len(points) == 0 {
		return Slice{}, ErrEmptySeries
	}

	sorted := make([]Point, len(points))
	for i, p := range points {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return Slice{}, fmt.Errorf("timeseries: non-finite value at %s", p.Timestamp.Format(time.DateOnly))
		}
		if p.Timestamp.IsZero() {
			return Slice{}, fmt.Errorf("timeseries: point %d has no timestamp", i)
		}
		sorted[i] = NewPoint(p.Timestamp, p.Value, p.Dimensions)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	merged := make([]Point, 0, len(sorted))
	for i := 0; i < len(sorted); {
		j := i + 1
		sum := sorted[i].Value
		for j < len(sorted) && sorted[j].Timestamp.Equal(sorted[i].Timestamp) {
			sum += sorted[j].Value
			j++
		}
		p := sorted[i]
		p.Value = sum / float64(j-i)
		merged = append(merged, p)
		i = j
	}

	return Slice{points: merged}, nil
}

// MustSlice is NewSlice for fixtures; it panics on error.
func MustSlice(points []Point) Slice {
	s, err := NewSlice(points)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of points.
func (s Slice) Len() int {
	return len(s.points)
}

// At returns the i-th point.
func (s Slice) At(i int) Point {
	return s.points[i]
}

// Points returns a copy of the underlying points.
func (s Slice) Points() []Point {
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

// Values extracts the values in time order.
func (s Slice) Values() []float64 {
	values := make([]float64, len(s.points))
	for i, p := range s.points {
		values[i] = p.Value
	}
	return values
}

// Times extracts the timestamps in order.
func (s Slice) Times() []time.Time {
	times := make([]time.Time, len(s.points))
	for i, p := range s.points {
		times[i] = p.Timestamp
	}
	return times
}

// First returns the earliest point.
func (s Slice) First() Point {
	return s.points[0]
}

// Last returns the latest point.
func (s Slice) Last() Point {
	return s.points[len(s.points)-1]
}

// Span is the duration between first and last timestamps.
func (s Slice) Span() time.Duration {
	if len(s.points) == 0 {
		return 0
	}
	return s.Last().Timestamp.Sub(s.First().Timestamp)
}

// Dimensions returns the dimensions of the first point; every point of a
// slice belongs to the same entity.
func (s Slice) Dimensions() map[string]string {
	if len(s.points) == 0 {
		return nil
	}
	return copyDims(s.points[0].Dimensions)
}

// Label renders the dimensions as sorted key=value pairs, for example
// "dept=3,store=17". A slice without dimensions is labelled "series".
func (s Slice) Label() string {
	dims := s.Dimensions()
	if len(dims) == 0 {
		return "series"
	}
	keys := make([]string, 0, len(dims))
	for k := range dims {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + dims[k]
	}
	return strings.Join(parts, ",")
}

func copyDims(dims map[string]string) map[string]string {
	if len(dims) == 0 {
		return nil
	}
	out := make(map[string]string, len(dims))
	for k, v := range dims {
		out[k] = v
	}
	return out
}
