package comparison

import (
	"math"
	"sort"

	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// PercentileRank returns the rank-based percentile of value within the
// cohort distribution, with ties resolved by averaging ranks: a value is
// credited with every strictly smaller peer plus half of the equal ones.
// The cohort excludes the subject itself.
func PercentileRank(value float64, cohort []float64) shared.Percentile {
	n := len(cohort)
	if n == 0 {
		return 0
	}

	below := 0
	equal := 0
	for _, v := range cohort {
		switch {
		case v < value:
			below++
		case v == value:
			equal++
		}
	}

	rank := (float64(below) + float64(equal)/2) / float64(n) * 100
	if rank > 100 {
		rank = 100
	}
	return shared.Percentile(rank)
}

// ComputeStats summarizes a cohort distribution.
func ComputeStats(cohort []float64) CohortStats {
	n := len(cohort)
	if n == 0 {
		return CohortStats{}
	}

	sorted := make([]float64, n)
	copy(sorted, cohort)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	m := sum / float64(n)

	var ss float64
	for _, v := range sorted {
		ss += (v - m) * (v - m)
	}
	sd := 0.0
	if n > 1 {
		sd = math.Sqrt(ss / float64(n-1))
	}

	return CohortStats{
		Size:   n,
		Mean:   m,
		Median: median(sorted),
		StdDev: sd,
		Min:    sorted[0],
		Max:    sorted[n-1],
	}
}

// median expects a sorted slice.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
