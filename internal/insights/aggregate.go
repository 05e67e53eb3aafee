// Package insights holds the pure aggregation functions behind the dashboard
// summaries. Nothing here mutates its input or touches storage.
package insights

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/shopspring/decimal"
)

// Group is an aggregated value for one key.
type Group[V any] struct {
	Key   string `json:"key"`
	Value V      `json:"value"`
}

// GroupSum sums value per key. The result is sorted by key ascending.
func GroupSum[T any](items []T, key func(T) string, value func(T) float64) []Group[float64] {
	sums := make(map[string]float64)
	for _, item := range items {
		sums[key(item)] += value(item)
	}
	return sortedGroups(sums)
}

// GroupMean averages value per key. The result is sorted by key ascending.
func GroupMean[T any](items []T, key func(T) string, value func(T) float64) []Group[float64] {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, item := range items {
		k := key(item)
		sums[k] += value(item)
		counts[k]++
	}
	for k := range sums {
		sums[k] /= float64(counts[k])
	}
	return sortedGroups(sums)
}

// GroupMoney sums monetary amounts per key without float rounding.
func GroupMoney[T any](items []T, key func(T) string, amount func(T) decimal.Decimal) []Group[decimal.Decimal] {
	sums := make(map[string]decimal.Decimal)
	for _, item := range items {
		k := key(item)
		sums[k] = sums[k].Add(amount(item))
	}
	return sortedGroups(sums)
}

func sortedGroups[V any](m map[string]V) []Group[V] {
	out := make([]Group[V], 0, len(m))
	for k, v := range m {
		out = append(out, Group[V]{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// TopK returns the k groups with the largest values. The sort is stable,
// descending by value, and ties are broken by key ascending. k <= 0 keeps
// every group.
func TopK[V any](groups []Group[V], k int, compare func(a, b V) int) []Group[V] {
	sorted := slices.Clone(groups)
	slices.SortStableFunc(sorted, func(a, b Group[V]) int {
		if c := compare(b.Value, a.Value); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	if k > 0 && k < len(sorted) {
		sorted = sorted[:k]
	}
	return sorted
}

// CompareFloat orders float values for TopK.
func CompareFloat(a, b float64) int {
	return cmp.Compare(a, b)
}

// CompareMoney orders decimal values for TopK.
func CompareMoney(a, b decimal.Decimal) int {
	return a.Cmp(b)
}

// Pearson returns the correlation coefficient of x and y. ok is false when
// fewer than two pairs exist or either side has no variance.
func Pearson(x, y []float64) (r float64, ok bool) {
	n := len(x)
	if n != len(y) || n < 2 {
		return 0, false
	}
	var meanX, meanY float64
	for i := range x {
		meanX += x[i]
		meanY += y[i]
	}
	meanX /= float64(n)
	meanY /= float64(n)

	var sxy, sxx, syy float64
	for i := range x {
		dx, dy := x[i]-meanX, y[i]-meanY
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, false
	}
	return sxy / math.Sqrt(sxx*syy), true
}

// FeatureSeries is a named series keyed by an alignment key such as a date.
type FeatureSeries struct {
	Name   string
	Values map[string]float64
}

// Correlation is a feature's correlation with a target series. Coefficient
// is nil when it is undefined.
type Correlation struct {
	Feature     string   `json:"feature"`
	Coefficient *float64 `json:"coefficient"`
	Pairs       int      `json:"pairs"`
}

// CorrelateWith correlates every feature with target over the keys present
// in both. Output order follows features.
func CorrelateWith(target map[string]float64, features []FeatureSeries) []Correlation {
	out := make([]Correlation, 0, len(features))
	for _, feature := range features {
		keys := make([]string, 0, len(feature.Values))
		for k := range feature.Values {
			if _, ok := target[k]; ok {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)

		x := make([]float64, len(keys))
		y := make([]float64, len(keys))
		for i, k := range keys {
			x[i] = feature.Values[k]
			y[i] = target[k]
		}

		c := Correlation{Feature: feature.Name, Pairs: len(keys)}
		if r, ok := Pearson(x, y); ok {
			c.Coefficient = &r
		}
		out = append(out, c)
	}
	return out
}

// Bucket is a right-closed interval (Lower, Upper].
type Bucket struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Label renders the interval the way it is shown in reports.
func (b Bucket) Label() string {
	return fmt.Sprintf("(%g, %g]", b.Lower, b.Upper)
}

// Contains reports whether v falls in the bucket.
func (b Bucket) Contains(v float64) bool {
	return v > b.Lower && v <= b.Upper
}

// BucketStat is the mean metric of the items whose value falls in a bucket.
// Mean is nil for empty buckets.
type BucketStat struct {
	Bucket Bucket   `json:"bucket"`
	Label  string   `json:"label"`
	Count  int      `json:"count"`
	Mean   *float64 `json:"mean"`
}

// BucketMean bins items by value into right-closed buckets delimited by the
// ascending edges and averages metric per bucket. Values outside every
// bucket are dropped.
func BucketMean[T any](items []T, edges []float64, value func(T) float64, metric func(T) float64) []BucketStat {
	if len(edges) < 2 {
		return nil
	}
	stats := make([]BucketStat, len(edges)-1)
	sums := make([]float64, len(edges)-1)
	for i := range stats {
		b := Bucket{Lower: edges[i], Upper: edges[i+1]}
		stats[i] = BucketStat{Bucket: b, Label: b.Label()}
	}

	for _, item := range items {
		v := value(item)
		for i := range stats {
			if stats[i].Bucket.Contains(v) {
				stats[i].Count++
				sums[i] += metric(item)
				break
			}
		}
	}

	for i := range stats {
		if stats[i].Count > 0 {
			mean := sums[i] / float64(stats[i].Count)
			stats[i].Mean = &mean
		}
	}
	return stats
}
