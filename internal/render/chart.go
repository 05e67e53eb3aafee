package render

import (
	"errors"
	"io"
	"math"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"retail-demand-optimizer/internal/forecast"
	"retail-demand-optimizer/internal/insights"
	"retail-demand-optimizer/internal/storage"
)

// ErrTooFewPoints is returned when a chart would have no extent.
var ErrTooFewPoints = errors.New("render: at least two points are needed to draw a chart")

// ChartOptions size and title a chart.
type ChartOptions struct {
	Title  string
	Width  int
	Height int
}

func (o ChartOptions) withDefaults() ChartOptions {
	if o.Width <= 0 {
		o.Width = 1280
	}
	if o.Height <= 0 {
		o.Height = 720
	}
	return o
}

var (
	observedColor = drawing.ColorFromHex("1f77b4")
	estimateColor = drawing.ColorFromHex("ff7f0e")
	boundColor    = drawing.ColorFromHex("999999")
	anomalyColor  = drawing.ColorRed
)

func salesFormatter(v interface{}) string {
	return chart.FloatValueFormatterWithFormat(v, "%.0f")
}

// ForecastChart draws observed sales, the point estimate, the prediction
// bounds when present and a marker on each anomalous week.
func ForecastChart(w io.Writer, result forecast.Result, opts ChartOptions) error {
	if len(result.Points) < 2 {
		return ErrTooFewPoints
	}
	opts = opts.withDefaults()

	var (
		obsX, allX, boundX, anomalyX []time.Time
		obsY, estY, lowerY, upperY   []float64
		anomalyY                     []float64
	)
	lo, hi := math.Inf(1), math.Inf(-1)
	track := func(v float64) {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}

	for _, p := range result.Points {
		allX = append(allX, p.Timestamp)
		estY = append(estY, p.PointEstimate)
		track(p.PointEstimate)
		if p.Observed != nil {
			obsX = append(obsX, p.Timestamp)
			obsY = append(obsY, *p.Observed)
			track(*p.Observed)
		}
		if p.HasBounds() {
			boundX = append(boundX, p.Timestamp)
			lowerY = append(lowerY, *p.LowerBound)
			upperY = append(upperY, *p.UpperBound)
			track(*p.LowerBound)
			track(*p.UpperBound)
		}
		if p.IsAnomaly && p.Observed != nil {
			anomalyX = append(anomalyX, p.Timestamp)
			anomalyY = append(anomalyY, *p.Observed)
		}
	}

	var series []chart.Series
	if len(obsX) > 0 {
		series = append(series, chart.TimeSeries{
			Name:    "Observed",
			Style:   chart.Style{StrokeColor: observedColor, StrokeWidth: 2},
			XValues: obsX,
			YValues: obsY,
		})
	}
	series = append(series, chart.TimeSeries{
		Name:    "Estimate (" + string(result.ModelUsed) + ")",
		Style:   chart.Style{StrokeColor: estimateColor, StrokeWidth: 2},
		XValues: allX,
		YValues: estY,
	})
	if len(boundX) > 0 {
		bandStyle := chart.Style{StrokeColor: boundColor, StrokeWidth: 1, StrokeDashArray: []float64{5, 5}}
		series = append(series,
			chart.TimeSeries{Name: "Lower bound", Style: bandStyle, XValues: boundX, YValues: lowerY},
			chart.TimeSeries{Name: "Upper bound", Style: bandStyle, XValues: boundX, YValues: upperY},
		)
	}
	if len(anomalyX) > 0 {
		series = append(series, chart.TimeSeries{
			Name:    "Anomaly",
			Style:   chart.Style{StrokeWidth: chart.Disabled, DotWidth: 5, DotColor: anomalyColor},
			XValues: anomalyX,
			YValues: anomalyY,
		})
	}

	graph := chart.Chart{
		Title:  opts.Title,
		Width:  opts.Width,
		Height: opts.Height,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Weekly sales",
			ValueFormatter: salesFormatter,
			Range:          paddedRange(lo, hi),
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return graph.Render(chart.PNG, w)
}

// WeeklySalesChart draws a weekly sales line, marking holiday weeks.
func WeeklySalesChart(w io.Writer, weekly []storage.WeeklySales, opts ChartOptions) error {
	if len(weekly) < 2 {
		return ErrTooFewPoints
	}
	opts = opts.withDefaults()

	x := make([]time.Time, len(weekly))
	y := make([]float64, len(weekly))
	var holidayX []time.Time
	var holidayY []float64
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, s := range weekly {
		x[i], y[i] = s.Date, s.Sales
		lo, hi = math.Min(lo, s.Sales), math.Max(hi, s.Sales)
		if s.IsHoliday {
			holidayX = append(holidayX, s.Date)
			holidayY = append(holidayY, s.Sales)
		}
	}

	series := []chart.Series{
		chart.TimeSeries{
			Name:    "Weekly sales",
			Style:   chart.Style{StrokeColor: observedColor, StrokeWidth: 2},
			XValues: x,
			YValues: y,
		},
	}
	if len(holidayX) > 0 {
		series = append(series, chart.TimeSeries{
			Name:    "Holiday week",
			Style:   chart.Style{StrokeWidth: chart.Disabled, DotWidth: 4, DotColor: estimateColor},
			XValues: holidayX,
			YValues: holidayY,
		})
	}

	graph := chart.Chart{
		Title:  opts.Title,
		Width:  opts.Width,
		Height: opts.Height,
		XAxis:  chart.XAxis{ValueFormatter: chart.TimeDateValueFormatter},
		YAxis: chart.YAxis{
			Name:           "Sales",
			ValueFormatter: salesFormatter,
			Range:          paddedRange(lo, hi),
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return graph.Render(chart.PNG, w)
}

// TopGroupsChart draws a bar per group, for example the top stores.
func TopGroupsChart(w io.Writer, groups []insights.Group[float64], opts ChartOptions) error {
	if len(groups) == 0 {
		return ErrTooFewPoints
	}
	opts = opts.withDefaults()

	bars := make([]chart.Value, len(groups))
	top := 0.0
	for i, g := range groups {
		bars[i] = chart.Value{Label: g.Key, Value: g.Value}
		top = math.Max(top, g.Value)
	}
	if top <= 0 {
		top = 1
	}

	graph := chart.BarChart{
		Title:    opts.Title,
		Width:    opts.Width,
		Height:   opts.Height,
		BarWidth: 40,
		YAxis: chart.YAxis{
			ValueFormatter: salesFormatter,
			Range:          &chart.ContinuousRange{Min: 0, Max: top * 1.1},
		},
		Bars: bars,
	}
	return graph.Render(chart.PNG, w)
}

// paddedRange keeps the axis valid for flat series.
func paddedRange(lo, hi float64) *chart.ContinuousRange {
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = math.Max(1, math.Abs(hi)*0.05)
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}
