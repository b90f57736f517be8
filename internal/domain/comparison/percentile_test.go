package comparison

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentileRank(t *testing.T) {
	cohort := []float64{5.0, 5.5, 6.0, 6.5, 7.0}

	// Three of five peers are strictly below 6.2.
	assert.InDelta(t, 60, PercentileRank(6.2, cohort).Float64(), 1e-9)
}

func TestPercentileRankTiesAverageRanks(t *testing.T) {
	cohort := []float64{5.0, 6.0, 6.0, 7.0}

	// One below plus half of the two equal peers.
	assert.InDelta(t, 50, PercentileRank(6.0, cohort).Float64(), 1e-9)
}

func TestPercentileRankAllEqual(t *testing.T) {
	cohort := []float64{6.0, 6.0, 6.0, 6.0}

	assert.InDelta(t, 50, PercentileRank(6.0, cohort).Float64(), 1e-9)
}

func TestPercentileRankExtremes(t *testing.T) {
	cohort := []float64{5.0, 6.0, 7.0}

	assert.InDelta(t, 100, PercentileRank(9.0, cohort).Float64(), 1e-9)
	assert.InDelta(t, 0, PercentileRank(4.0, cohort).Float64(), 1e-9)
}

func TestPercentileRankMeanOfSymmetricCohort(t *testing.T) {
	// A symmetric bell-shaped cohort around 6.0: paired offsets with
	// more mass near the center, plus the center itself. The mean
	// subject should sit near the middle of the distribution.
	cohort := []float64{6.0}
	offsets := []float64{
		0.1, 0.1, 0.1, 0.2, 0.2, 0.2, 0.3, 0.3,
		0.4, 0.4, 0.5, 0.6, 0.7, 0.8, 1.0, 1.2,
	}
	for _, d := range offsets {
		cohort = append(cohort, 6.0-d, 6.0+d)
	}

	stats := ComputeStats(cohort)
	assert.GreaterOrEqual(t, stats.Size, 30)
	assert.InDelta(t, 6.0, stats.Mean, 1e-9)

	rank := PercentileRank(stats.Mean, cohort).Float64()
	assert.GreaterOrEqual(t, rank, 45.0)
	assert.LessOrEqual(t, rank, 55.0)
}

func TestPercentileRankEmptyCohort(t *testing.T) {
	assert.InDelta(t, 0, PercentileRank(6.0, nil).Float64(), 1e-9)
}

func TestComputeStats(t *testing.T) {
	cohort := []float64{9.0, 2.0, 4.0, 4.0, 5.0, 5.0, 7.0, 4.0}

	stats := ComputeStats(cohort)

	assert.Equal(t, 8, stats.Size)
	assert.InDelta(t, 5.0, stats.Mean, 1e-9)
	assert.InDelta(t, 4.5, stats.Median, 1e-9)
	assert.InDelta(t, 2.0, stats.Min, 1e-9)
	assert.InDelta(t, 9.0, stats.Max, 1e-9)
	assert.InDelta(t, math.Sqrt(32.0/7.0), stats.StdDev, 1e-9)
}

func TestComputeStatsOddMedian(t *testing.T) {
	stats := ComputeStats([]float64{7.0, 5.0, 6.0})

	assert.InDelta(t, 6.0, stats.Median, 1e-9)
}

func TestComputeStatsSingleValue(t *testing.T) {
	stats := ComputeStats([]float64{6.5})

	assert.Equal(t, 1, stats.Size)
	assert.InDelta(t, 6.5, stats.Mean, 1e-9)
	assert.InDelta(t, 6.5, stats.Median, 1e-9)
	assert.Zero(t, stats.StdDev)
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(nil)

	assert.Zero(t, stats.Size)
	assert.Zero(t, stats.Mean)
}
