// Package render turns core results into terminal tables, CSV files and PNG
// charts.
package render

import (
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"retail-demand-optimizer/internal/forecast"
	"retail-demand-optimizer/internal/ingest"
	"retail-demand-optimizer/internal/insights"
	"retail-demand-optimizer/internal/storage"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// Rows prints raw table rows with their column header.
func Rows(w io.Writer, rows []storage.Row) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "no rows found")
		return err
	}

	writer := newTable(w)
	columns := rows[0].Columns()
	fmt.Fprintln(writer, strings.Join(columns, "\t"))
	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, col := range columns {
			v, _ := row.Value(col)
			cells[i] = FormatValue(v)
		}
		fmt.Fprintln(writer, strings.Join(cells, "\t"))
	}
	return writer.Flush()
}

// FormatValue renders a driver value for display.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
			return t.Format(time.DateOnly)
		}
		return t.UTC().Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case decimal.Decimal:
		return t.String()
	case *big.Int:
		return t.String()
	case []byte:
		return sanitizeInline(string(t))
	case string:
		return sanitizeInline(t)
	default:
		return sanitizeInline(fmt.Sprint(t))
	}
}

// Describe prints the EDA statistics table.
func Describe(w io.Writer, stats []insights.ColumnStats) error {
	if len(stats) == 0 {
		_, err := fmt.Fprintln(w, "no numeric columns")
		return err
	}

	writer := newTable(w)
	fmt.Fprintln(writer, "Column\tCount\tNulls\tMean\tStd\tMin\t25%\t50%\t75%\tMax")
	for _, s := range stats {
		fmt.Fprintf(writer, "%s\t%d\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.Column, s.Count, s.Nulls,
			num(s.Mean), num(s.Std), num(s.Min), num(s.Q25), num(s.Median), num(s.Q75), num(s.Max))
	}
	return writer.Flush()
}

// Stores prints the store list.
func Stores(w io.Writer, stores []storage.StoreSummary) error {
	if len(stores) == 0 {
		_, err := fmt.Fprintln(w, "no stores found")
		return err
	}

	writer := newTable(w)
	fmt.Fprintln(writer, "Store\tType\tSize\tWeeks\tTotal Sales")
	for _, s := range stores {
		storeType, size := "", ""
		if s.Type != nil {
			storeType = *s.Type
		}
		if s.Size != nil {
			size = strconv.FormatInt(*s.Size, 10)
		}
		fmt.Fprintf(writer, "%d\t%s\t%s\t%d\t%s\n", s.Store, storeType, size, s.Weeks, s.TotalSales.StringFixed(2))
	}
	return writer.Flush()
}

// Forecast prints every forecast point. Bounds are blank for the rolling
// average.
func Forecast(w io.Writer, result forecast.Result) error {
	writer := newTable(w)
	fmt.Fprintln(writer, "Week\tObserved\tEstimate\tLower\tUpper\tAnomaly")
	for _, p := range result.Points {
		anomaly := ""
		if p.IsAnomaly {
			anomaly = "yes"
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.Timestamp.Format(time.DateOnly),
			optNum(p.Observed), num(p.PointEstimate), optNum(p.LowerBound), optNum(p.UpperBound), anomaly)
	}
	return writer.Flush()
}

// ForecastSummary prints the header lines describing a forecast.
func ForecastSummary(w io.Writer, s insights.ForecastSummary) error {
	writer := newTable(w)
	fmt.Fprintf(writer, "Series:\t%s\n", s.Series)
	fmt.Fprintf(writer, "Model:\t%s\n", s.ModelUsed)
	if s.Fallback != forecast.FallbackNone {
		fmt.Fprintf(writer, "Fallback:\t%s\n", s.Fallback)
	}
	fmt.Fprintf(writer, "Observed weeks:\t%d\n", s.Observed)
	fmt.Fprintf(writer, "Forecast weeks:\t%d\n", len(s.Upcoming))
	fmt.Fprintf(writer, "Anomalies:\t%d\n", s.AnomalyCount)
	for _, note := range s.Notes {
		fmt.Fprintf(writer, "Note:\t%s\n", note)
	}
	return writer.Flush()
}

// SuperstoreSummary prints the Superstore insight panel.
func SuperstoreSummary(w io.Writer, s insights.SuperstoreSummary) error {
	writer := newTable(w)
	fmt.Fprintf(writer, "Orders analysed:\t%d\n", s.Orders)
	if top, ok := s.TopCategory(); ok {
		fmt.Fprintf(writer, "Top category:\t%s (%s)\n", top.Key, top.Value.StringFixed(2))
	}

	fmt.Fprintln(writer, "\nCategory\tSales")
	for _, g := range s.TopCategories {
		fmt.Fprintf(writer, "%s\t%s\n", g.Key, g.Value.StringFixed(2))
	}

	fmt.Fprintln(writer, "\nDiscount\tOrders\tMean Profit")
	for _, b := range s.DiscountProfit {
		fmt.Fprintf(writer, "%s\t%d\t%s\n", b.Label, b.Count, optNum(b.Mean))
	}

	fmt.Fprintln(writer, "\nRegion\tSales\tProfit\tMargin")
	for _, r := range s.Regions {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s%%\n",
			r.Region, r.Sales.StringFixed(2), r.Profit.StringFixed(2), r.Margin().Mul(decimal.NewFromInt(100)).StringFixed(1))
	}
	return writer.Flush()
}

// WalmartSummary prints the Walmart insight panel.
func WalmartSummary(w io.Writer, s insights.WalmartSummary) error {
	writer := newTable(w)
	fmt.Fprintf(writer, "Weeks analysed:\t%d\n", s.Weeks)
	if len(s.TopStores) > 0 {
		fmt.Fprintf(writer, "Top store:\t%s (%s)\n", s.TopStores[0].Key, num(s.TopStores[0].Value))
	}
	if lift, ok := s.HolidayLift(); ok {
		fmt.Fprintf(writer, "Holiday lift:\t%.3f\n", lift)
	}

	fmt.Fprintln(writer, "\nStore\tSales")
	for _, g := range s.TopStores {
		fmt.Fprintf(writer, "%s\t%s\n", g.Key, num(g.Value))
	}

	fmt.Fprintln(writer, "\nFeature\tCorrelation\tPairs")
	for _, c := range s.Correlations {
		coef := "n/a"
		if c.Coefficient != nil {
			coef = fmt.Sprintf("%.3f", *c.Coefficient)
		}
		fmt.Fprintf(writer, "%s\t%s\t%d\n", c.Feature, coef, c.Pairs)
	}
	return writer.Flush()
}

// IngestReports prints one line per loaded file followed by the failed rows.
func IngestReports(w io.Writer, reports []*ingest.Report, maxFailures int) error {
	writer := newTable(w)
	fmt.Fprintln(writer, "Source\tTable\tTotal\tInserted\tSkipped\tFailed\tTook")
	for _, r := range reports {
		fmt.Fprintf(writer, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.Source, r.Table, r.Total, r.Inserted, r.Skipped, r.Failed, r.Duration.Round(time.Millisecond))
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	shown := 0
	for _, r := range reports {
		for _, row := range r.Failures() {
			if maxFailures > 0 && shown >= maxFailures {
				_, err := fmt.Fprintln(w, "... more failures omitted")
				return err
			}
			fmt.Fprintf(w, "%s:%d %s: %s\n", r.Source, row.Line, row.Key, sanitizeInline(row.Reason()))
			shown++
		}
	}
	return nil
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func optNum(v *float64) string {
	if v == nil {
		return ""
	}
	return num(*v)
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
