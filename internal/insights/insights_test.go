package insights

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-demand-optimizer/internal/forecast"
	"retail-demand-optimizer/internal/storage"
)

type sale struct {
	key   string
	value float64
}

func TestGroupSumAndMeanSortByKey(t *testing.T) {
	items := []sale{{"b", 2}, {"a", 1}, {"b", 4}, {"c", 9}}
	key := func(s sale) string { return s.key }
	value := func(s sale) float64 { return s.value }

	assert.Equal(t, []Group[float64]{{"a", 1}, {"b", 6}, {"c", 9}}, GroupSum(items, key, value))
	assert.Equal(t, []Group[float64]{{"a", 1}, {"b", 3}, {"c", 9}}, GroupMean(items, key, value))
	assert.Len(t, items, 4)
	assert.Equal(t, "b", items[0].key)
}

func TestTopKBreaksTiesByKey(t *testing.T) {
	groups := []Group[float64]{{"delta", 5}, {"alpha", 7}, {"charlie", 7}, {"bravo", 5}}

	top := TopK(groups, 3, CompareFloat)
	assert.Equal(t, []Group[float64]{{"alpha", 7}, {"charlie", 7}, {"bravo", 5}}, top)
	assert.Equal(t, "delta", groups[0].Key)

	assert.Len(t, TopK(groups, 0, CompareFloat), 4)
}

func TestPearson(t *testing.T) {
	r, ok := Pearson([]float64{1, 2, 3, 4}, []float64{2, 4, 6, 8})
	require.True(t, ok)
	assert.InDelta(t, 1.0, r, 1e-12)

	r, ok = Pearson([]float64{1, 2, 3, 4}, []float64{8, 6, 4, 2})
	require.True(t, ok)
	assert.InDelta(t, -1.0, r, 1e-12)

	_, ok = Pearson([]float64{1, 1, 1}, []float64{1, 2, 3})
	assert.False(t, ok)

	_, ok = Pearson([]float64{1}, []float64{1})
	assert.False(t, ok)
}

func TestCorrelateWithAlignsKeys(t *testing.T) {
	target := map[string]float64{"w1": 10, "w2": 20, "w3": 30}
	corr := CorrelateWith(target, []FeatureSeries{
		{Name: "up", Values: map[string]float64{"w1": 1, "w2": 2, "w3": 3, "w9": 100}},
		{Name: "flat", Values: map[string]float64{"w1": 5, "w2": 5}},
	})

	require.Len(t, corr, 2)
	assert.Equal(t, "up", corr[0].Feature)
	assert.Equal(t, 3, corr[0].Pairs)
	require.NotNil(t, corr[0].Coefficient)
	assert.InDelta(t, 1.0, *corr[0].Coefficient, 1e-12)
	assert.Nil(t, corr[1].Coefficient)
}

func TestBucketMeanRightClosed(t *testing.T) {
	items := []sale{{"x", 0}, {"x", 0.1}, {"x", 0.15}, {"x", 0.2}, {"x", 0.8}, {"x", 1.5}}
	stats := BucketMean(items, DiscountEdges,
		func(s sale) float64 { return s.value },
		func(s sale) float64 { return s.value * 10 },
	)

	require.Len(t, stats, 4)
	assert.Equal(t, "(-0.01, 0.1]", stats[0].Label)
	assert.Equal(t, 2, stats[0].Count)
	assert.InDelta(t, 0.5, *stats[0].Mean, 1e-12)
	assert.Equal(t, 2, stats[1].Count)
	assert.InDelta(t, 1.75, *stats[1].Mean, 1e-12)
	assert.Equal(t, 0, stats[2].Count)
	assert.Nil(t, stats[2].Mean)
	assert.Equal(t, 1, stats[3].Count)
}

func TestDescribeNumericColumns(t *testing.T) {
	cols := []string{"store", "type", "weekly_sales", "markdown1"}
	rows := []storage.Row{
		storage.NewRow(cols, []any{int32(1), "A", 10.0, nil}),
		storage.NewRow(cols, []any{int32(2), "B", 20.0, 5.0}),
		storage.NewRow(cols, []any{int32(3), "A", 30.0, nil}),
		storage.NewRow(cols, []any{int32(4), "C", 40.0, nil}),
	}

	stats := Describe(rows)
	require.Len(t, stats, 3)
	assert.Equal(t, "store", stats[0].Column)

	sales := stats[1]
	assert.Equal(t, "weekly_sales", sales.Column)
	assert.Equal(t, 4, sales.Count)
	assert.Equal(t, 25.0, sales.Mean)
	assert.Equal(t, 10.0, sales.Min)
	assert.Equal(t, 17.5, sales.Q25)
	assert.Equal(t, 25.0, sales.Median)
	assert.Equal(t, 32.5, sales.Q75)
	assert.Equal(t, 40.0, sales.Max)
	assert.InDelta(t, 12.9099, sales.Std, 1e-4)

	assert.Equal(t, 3, stats[2].Nulls)
	assert.Equal(t, 1, stats[2].Count)
}

func TestSummarizeSuperstore(t *testing.T) {
	d := decimal.RequireFromString
	orders := []storage.SuperstoreOrder{
		{Category: "Furniture", Region: "West", Sales: d("500.10"), Profit: d("-20.5"), Quantity: 1, Discount: 0.3},
		{Category: "Office Supplies", Region: "West", Sales: d("20.20"), Profit: d("5.1"), Quantity: 9, Discount: 0},
		{Category: "Technology", Region: "East", Sales: d("300.00"), Profit: d("90"), Quantity: 2, Discount: 0.2},
		{Category: "Office Supplies", Region: "East", Sales: d("10.10"), Profit: d("2.4"), Quantity: 6, Discount: 0.1},
	}

	summary := SummarizeSuperstore(orders, 5)

	top, ok := summary.TopCategory()
	require.True(t, ok)
	assert.Equal(t, "Furniture", top.Key)
	assert.True(t, top.Value.Equal(d("500.10")))
	assert.Equal(t, "Office Supplies", summary.QuantityLeaders[0].Key)

	require.Len(t, summary.Regions, 2)
	assert.Equal(t, "East", summary.Regions[0].Region)
	assert.True(t, summary.Regions[0].Sales.Equal(d("310.10")))
	assert.True(t, summary.Regions[1].Profit.Equal(d("-15.4")))

	require.Len(t, summary.DiscountProfit, 4)
	assert.Equal(t, 2, summary.DiscountProfit[0].Count)
	assert.InDelta(t, 3.75, *summary.DiscountProfit[0].Mean, 1e-9)
	assert.InDelta(t, -20.5, *summary.DiscountProfit[2].Mean, 1e-9)
}

func TestSummarizeWalmart(t *testing.T) {
	w0 := time.Date(2010, 2, 5, 0, 0, 0, 0, time.UTC)
	w1 := w0.AddDate(0, 0, 7)
	w2 := w0.AddDate(0, 0, 14)

	sales := []storage.WalmartSale{
		{Store: 1, Dept: 1, Date: w0, WeeklySales: 100},
		{Store: 2, Dept: 1, Date: w0, WeeklySales: 50},
		{Store: 1, Dept: 1, Date: w1, WeeklySales: 300, IsHoliday: true},
		{Store: 2, Dept: 1, Date: w1, WeeklySales: 100, IsHoliday: true},
		{Store: 1, Dept: 1, Date: w2, WeeklySales: 150},
		{Store: 2, Dept: 1, Date: w2, WeeklySales: 50},
	}
	t1, t2, t3 := 30.0, 50.0, 40.0
	features := []storage.WalmartFeature{
		{Store: 1, Date: w0, Temperature: &t1},
		{Store: 2, Date: w0, Temperature: &t1},
		{Store: 1, Date: w1, Temperature: &t2},
		{Store: 1, Date: w2, Temperature: &t3},
	}

	summary := SummarizeWalmart(sales, features, 1)

	assert.Equal(t, 3, summary.Weeks)
	assert.Equal(t, []Group[float64]{{"2010-02-05", 150}, {"2010-02-12", 400}, {"2010-02-19", 200}}, summary.WeeklyTotals)
	assert.Equal(t, []Group[float64]{{"1", 550}}, summary.TopStores)

	lift, ok := summary.HolidayLift()
	require.True(t, ok)
	assert.InDelta(t, 400.0/175.0, lift, 1e-12)

	require.Len(t, summary.Correlations, len(WalmartFeatureNames))
	temp := summary.Correlations[0]
	assert.Equal(t, "temperature", temp.Feature)
	assert.Equal(t, 3, temp.Pairs)
	require.NotNil(t, temp.Coefficient)
	assert.Greater(t, *temp.Coefficient, 0.9)
	assert.Nil(t, summary.Correlations[4].Coefficient)
}

func TestSummarizeForecast(t *testing.T) {
	v := 13.0
	result := forecast.Result{
		ModelUsed: forecast.ModelRollingAverage,
		Fallback:  forecast.FallbackInsufficientData,
		Points: []forecast.Point{
			{PointEstimate: 10, Observed: &v},
			{PointEstimate: 10.75, Observed: &v, IsAnomaly: true},
		},
	}

	summary := SummarizeForecast("store=1", result)
	assert.True(t, summary.InsufficientData)
	assert.Equal(t, 1, summary.AnomalyCount)
	assert.Equal(t, 2, summary.Observed)
	assert.Empty(t, summary.Upcoming)
	assert.Len(t, summary.Notes, 2)
}
