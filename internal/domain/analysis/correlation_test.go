package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/prepwise/prepwise-analytics/internal/domain/metric"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

func seriesAt(name string, origin time.Time, step time.Duration, values ...float64) metric.Series {
	points := make([]metric.Point, len(values))
	for i, v := range values {
		points[i] = metric.Point{Timestamp: origin.Add(time.Duration(i) * step), Value: v}
	}
	return metric.NewSeries("3f1c2b4a-0000-4000-8000-000000000001", shared.MetricName(name), points)
}

func TestCorrelatePerfectPositive(t *testing.T) {
	origin := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	a := seriesAt("practice_minutes", origin, time.Hour, 10, 20, 30, 40, 50, 60)
	b := seriesAt("overall_band", origin, time.Hour, 5.0, 5.5, 6.0, 6.5, 7.0, 7.5)

	result := Correlate(a, b, DefaultOptions())

	assert.False(t, result.Insufficient)
	assert.Equal(t, 6, result.SampleSize)
	assert.InDelta(t, 1.0, result.Coefficient, 1e-9)
	assert.InDelta(t, 0, result.PValue, 1e-9)
	assert.True(t, result.Significant)
}

func TestCorrelateNegative(t *testing.T) {
	origin := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	a := seriesAt("error_rate", origin, time.Hour, 9, 8, 7, 6, 5)
	b := seriesAt("overall_band", origin, time.Hour, 5.0, 5.5, 6.0, 6.5, 7.0)

	result := Correlate(a, b, DefaultOptions())

	assert.InDelta(t, -1.0, result.Coefficient, 1e-9)
	assert.True(t, result.Significant)
}

func TestCorrelateTooFewPairs(t *testing.T) {
	origin := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	a := seriesAt("practice_minutes", origin, time.Hour, 10)
	b := seriesAt("overall_band", origin, time.Hour, 5.0)

	result := Correlate(a, b, DefaultOptions())

	assert.True(t, result.Insufficient)
	assert.Equal(t, 1, result.SampleSize)
}

func TestCorrelateZeroVarianceSide(t *testing.T) {
	origin := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	a := seriesAt("practice_minutes", origin, time.Hour, 30, 30, 30, 30, 30)
	b := seriesAt("overall_band", origin, time.Hour, 5.0, 5.5, 6.0, 6.5, 7.0)

	result := Correlate(a, b, DefaultOptions())

	assert.False(t, result.Insufficient)
	assert.Zero(t, result.Coefficient)
	assert.Equal(t, 1.0, result.PValue)
	assert.False(t, result.Significant)
}

func TestCorrelateBelowMinSamplesNeverSignificant(t *testing.T) {
	// Three perfectly correlated pairs: the p-value may be tiny but the
	// sample is too small to report significance.
	origin := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	a := seriesAt("practice_minutes", origin, time.Hour, 10, 20, 30)
	b := seriesAt("overall_band", origin, time.Hour, 5.0, 6.0, 7.0)

	result := Correlate(a, b, DefaultOptions())

	assert.False(t, result.Insufficient)
	assert.Equal(t, 3, result.SampleSize)
	assert.False(t, result.Significant)
}

func TestCorrelatePairingTolerance(t *testing.T) {
	// Observations 30 minutes apart pair within the default one-hour
	// tolerance; a two-day gap does not.
	origin := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	a := seriesAt("practice_minutes", origin, 24*time.Hour, 10, 20, 30)
	b := seriesAt("overall_band", origin.Add(30*time.Minute), 24*time.Hour, 5.0, 6.0, 7.0)

	result := Correlate(a, b, DefaultOptions())
	assert.Equal(t, 3, result.SampleSize)

	far := seriesAt("overall_band", origin.Add(48*time.Hour+2*time.Hour), 24*time.Hour, 5.0)
	sparse := Correlate(a, far, DefaultOptions())
	assert.True(t, sparse.Insufficient)
}

func TestCorrelateWeakRelationNotSignificant(t *testing.T) {
	origin := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	a := seriesAt("practice_minutes", origin, time.Hour, 10, 25, 15, 30, 20, 12)
	b := seriesAt("overall_band", origin, time.Hour, 6.1, 5.9, 6.2, 6.0, 6.15, 6.05)

	result := Correlate(a, b, DefaultOptions())

	assert.False(t, result.Insufficient)
	assert.False(t, result.Significant)
	assert.Greater(t, result.PValue, 0.05)
}
