package insights

import (
	"math"
	"sort"

	"retail-demand-optimizer/internal/storage"
)

// ColumnStats summarises one numeric column.
type ColumnStats struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Nulls  int     `json:"nulls"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
}

// Describe computes summary statistics for every numeric column of rows, in
// column order. Columns holding any non-numeric value are skipped; booleans
// count as non-numeric.
func Describe(rows []storage.Row) []ColumnStats {
	if len(rows) == 0 {
		return nil
	}

	out := make([]ColumnStats, 0)
	for _, col := range rows[0].Columns() {
		values := make([]float64, 0, len(rows))
		nulls := 0
		numeric := true
		for _, row := range rows {
			raw, _ := row.Value(col)
			if raw == nil {
				nulls++
				continue
			}
			v, ok := numericValue(raw)
			if !ok {
				numeric = false
				break
			}
			values = append(values, v)
		}
		if !numeric || len(values) == 0 {
			continue
		}
		stats := summarize(values)
		stats.Column = col
		stats.Nulls = nulls
		out = append(out, stats)
	}
	return out
}

func summarize(values []float64) ColumnStats {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	n := float64(len(sorted))
	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / n

	var sq float64
	for _, v := range sorted {
		sq += (v - mean) * (v - mean)
	}
	std := 0.0
	if len(sorted) > 1 {
		std = math.Sqrt(sq / (n - 1))
	}

	return ColumnStats{
		Count:  len(sorted),
		Mean:   mean,
		Std:    std,
		Min:    sorted[0],
		Q25:    quantile(sorted, 0.25),
		Median: quantile(sorted, 0.5),
		Q75:    quantile(sorted, 0.75),
		Max:    sorted[len(sorted)-1],
	}
}

// quantile uses linear interpolation between closest ranks on sorted data.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case int16:
		return float64(n), true
	case int8:
		return float64(n), true
	case int:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint8:
		return float64(n), true
	default:
		return 0, false
	}
}
