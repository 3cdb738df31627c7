package services

import (
	"math"
	"math/rand"
	"sort"

	"github.com/quantfolio/valuation-engine/internal/models"
)

func calculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func calculateStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := calculateMean(values)
	var sumSquares float64
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	variance := sumSquares / float64(len(values)-1)
	return math.Sqrt(variance)
}

// calculatePercentile returns the nearest-rank percentile (p in [0,100])
// over a sorted copy of the values.
func calculatePercentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}

func calculateMedian(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func calculateMin(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	min := values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

func calculateMax(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// summarize reduces a sample set to the standard Monte-Carlo summary
// statistics. The input must already be NaN-filtered.
func summarize(values []float64) models.SummaryStats {
	return models.SummaryStats{
		Mean:   calculateMean(values),
		Median: calculateMedian(values),
		StdDev: calculateStdDev(values),
		P10:    calculatePercentile(values, 10),
		P90:    calculatePercentile(values, 90),
		Min:    calculateMin(values),
		Max:    calculateMax(values),
		Count:  len(values),
	}
}

// filterValid drops NaN and Inf entries.
func filterValid(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// normalSample draws from Normal(mean, std) via the Box-Muller transform
// from two independent uniform(0,1) draws. Both engines share this
// primitive; the *rand.Rand source makes batches seedable.
func normalSample(rng *rand.Rand, mean, std float64) float64 {
	u1 := rng.Float64()
	u2 := rng.Float64()
	// Float64 may return exactly 0, which would blow up the log
	for u1 == 0 {
		u1 = rng.Float64()
	}
	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	return mean + z*std
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
