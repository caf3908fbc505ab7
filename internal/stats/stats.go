// Package stats provides the order statistics shared by the scoring engines
// and the context profiler.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Scale is the upper bound of a percentile rank.
type Scale float64

const (
	// Unit ranks on 0.0-1.0.
	Unit Scale = 1
	// Percent ranks on 0-100.
	Percent Scale = 100
)

// PercentileRank returns the fractional rank of value within distribution,
// expressed on scale. Ties resolve to the average of the first and last
// matching sorted index. A distribution of length <= 1 yields the top rank.
// A value absent from the distribution takes its insertion index.
func PercentileRank(value float64, distribution []float64, scale Scale) float64 {
	n := len(distribution)
	if n <= 1 {
		return float64(scale)
	}

	sorted := sortedCopy(distribution)
	first := sort.SearchFloat64s(sorted, value)
	last := sort.Search(n, func(i int) bool { return sorted[i] > value }) - 1

	var idx float64
	if last >= first {
		idx = float64(first+last) / 2
	} else {
		idx = math.Min(float64(first), float64(n-1))
	}
	return idx / float64(n-1) * float64(scale)
}

// Median returns the middle value, the mean of the two middle values for even
// lengths, or 0 for an empty sequence.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := sortedCopy(values)
	mid := n / 2
	if n%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// ValueAtPercentile returns the value at the ceiling rank of percentile p
// (0-100, 1-indexed), clamped to the sequence bounds. Returns 0 when empty.
func ValueAtPercentile(values []float64, p float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := sortedCopy(values)
	idx := int(math.Ceil(p/100*float64(n))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return sorted[idx]
}

// MeanStdDev returns the population mean and standard deviation. Both are 0
// for an empty sequence.
func MeanStdDev(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	return stat.PopMeanStdDev(values, nil)
}

// Sum adds the values.
func Sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// Round rounds v to the given number of decimals.
func Round(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}

func sortedCopy(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	sort.Float64s(out)
	return out
}
