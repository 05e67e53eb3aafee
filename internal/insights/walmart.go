package insights

import (
	"strconv"
	"time"

	"retail-demand-optimizer/internal/storage"
)

// WalmartFeatureNames lists the indicators correlated with weekly totals.
var WalmartFeatureNames = []string{
	"temperature", "fuel_price", "cpi", "unemployment",
	"markdown1", "markdown2", "markdown3", "markdown4", "markdown5",
}

// WalmartSummary is the Walmart dashboard panel.
type WalmartSummary struct {
	Weeks        int              `json:"weeks"`
	WeeklyTotals []Group[float64] `json:"weekly_totals"`
	TopStores    []Group[float64] `json:"top_stores"`
	HolidayMean  *float64         `json:"holiday_mean"`
	RegularMean  *float64         `json:"regular_mean"`
	Correlations []Correlation    `json:"correlations"`
}

// HolidayLift is the ratio of mean holiday-week totals to mean regular-week
// totals.
func (s WalmartSummary) HolidayLift() (float64, bool) {
	if s.HolidayMean == nil || s.RegularMean == nil || *s.RegularMean == 0 {
		return 0, false
	}
	return *s.HolidayMean / *s.RegularMean, true
}

// SummarizeWalmart totals sales per week and per store and correlates the
// per-week mean of each feature with the weekly totals.
func SummarizeWalmart(sales []storage.WalmartSale, features []storage.WalmartFeature, topK int) WalmartSummary {
	byDate := func(s storage.WalmartSale) string { return dateKey(s.Date) }
	salesValue := func(s storage.WalmartSale) float64 { return s.WeeklySales }

	weekly := GroupSum(sales, byDate, salesValue)
	stores := GroupSum(sales, func(s storage.WalmartSale) string { return strconv.FormatInt(s.Store, 10) }, salesValue)

	target := make(map[string]float64, len(weekly))
	for _, w := range weekly {
		target[w.Key] = w.Value
	}

	holidayWeeks := make(map[string]bool)
	for _, s := range sales {
		if s.IsHoliday {
			holidayWeeks[dateKey(s.Date)] = true
		}
	}
	var holiday, regular []float64
	for _, w := range weekly {
		if holidayWeeks[w.Key] {
			holiday = append(holiday, w.Value)
		} else {
			regular = append(regular, w.Value)
		}
	}

	return WalmartSummary{
		Weeks:        len(weekly),
		WeeklyTotals: weekly,
		TopStores:    TopK(stores, topK, CompareFloat),
		HolidayMean:  meanOf(holiday),
		RegularMean:  meanOf(regular),
		Correlations: CorrelateWith(target, featureSeries(features)),
	}
}

// featureSeries averages every indicator per date across stores, ignoring
// missing values.
func featureSeries(features []storage.WalmartFeature) []FeatureSeries {
	out := make([]FeatureSeries, len(WalmartFeatureNames))
	for i, name := range WalmartFeatureNames {
		type acc struct {
			sum float64
			n   int
		}
		perDate := make(map[string]*acc)
		for _, f := range features {
			v := featureValue(f, name)
			if v == nil {
				continue
			}
			k := dateKey(f.Date)
			a, ok := perDate[k]
			if !ok {
				a = &acc{}
				perDate[k] = a
			}
			a.sum += *v
			a.n++
		}
		values := make(map[string]float64, len(perDate))
		for k, a := range perDate {
			values[k] = a.sum / float64(a.n)
		}
		out[i] = FeatureSeries{Name: name, Values: values}
	}
	return out
}

func featureValue(f storage.WalmartFeature, name string) *float64 {
	switch name {
	case "temperature":
		return f.Temperature
	case "fuel_price":
		return f.FuelPrice
	case "cpi":
		return f.CPI
	case "unemployment":
		return f.Unemployment
	case "markdown1":
		return f.Markdowns[0]
	case "markdown2":
		return f.Markdowns[1]
	case "markdown3":
		return f.Markdowns[2]
	case "markdown4":
		return f.Markdowns[3]
	case "markdown5":
		return f.Markdowns[4]
	}
	return nil
}

func meanOf(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	return &mean
}

func dateKey(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}
