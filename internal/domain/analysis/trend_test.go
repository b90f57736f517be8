package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/prepwise/prepwise-analytics/internal/domain/metric"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

func hourlySeries(values ...float64) metric.Series {
	origin := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	points := make([]metric.Point, len(values))
	for i, v := range values {
		points[i] = metric.Point{Timestamp: origin.Add(time.Duration(i) * time.Hour), Value: v}
	}
	return metric.NewSeries(shared.SubjectID("3f1c2b4a-0000-4000-8000-000000000001"), shared.MetricName("overall_band"), points)
}

func TestDetectTrendImproving(t *testing.T) {
	s := hourlySeries(5.0, 5.5, 6.0, 6.5, 7.0)

	result := DetectTrend(s, DefaultOptions())

	assert.False(t, result.Insufficient)
	assert.Equal(t, 5, result.SampleSize)
	assert.Equal(t, ClassImproving, result.Classification)
	assert.InDelta(t, 0.5, result.Slope, 1e-9)
	assert.InDelta(t, 5.0, result.Intercept, 1e-9)
	assert.InDelta(t, 1.0, result.RSquared, 1e-9)
	assert.InDelta(t, 4.0, result.SpanHours, 1e-9)
}

func TestDetectTrendDeclining(t *testing.T) {
	s := hourlySeries(7.0, 6.0, 5.0, 4.0)

	result := DetectTrend(s, DefaultOptions())

	assert.Equal(t, ClassDeclining, result.Classification)
	assert.InDelta(t, -1.0, result.Slope, 1e-9)
}

func TestDetectTrendFlatSeriesIsStable(t *testing.T) {
	s := hourlySeries(6.5, 6.5, 6.5, 6.5)

	result := DetectTrend(s, DefaultOptions())

	assert.False(t, result.Insufficient)
	assert.Equal(t, ClassStable, result.Classification)
	assert.InDelta(t, 0, result.Slope, 1e-9)
	// A zero-variance series is a perfect fit.
	assert.InDelta(t, 1.0, result.RSquared, 1e-9)
}

func TestDetectTrendNoisyButFlatIsStable(t *testing.T) {
	// Values oscillate around 6 with no direction; the scaled epsilon keeps
	// the tiny fitted slope from being classified as a real trend.
	s := hourlySeries(6.0, 6.1, 5.9, 6.05, 5.95, 6.0)

	result := DetectTrend(s, DefaultOptions())

	assert.Equal(t, ClassStable, result.Classification)
}

func TestDetectTrendTooFewPoints(t *testing.T) {
	s := hourlySeries(5.0, 6.0)

	result := DetectTrend(s, DefaultOptions())

	assert.True(t, result.Insufficient)
	assert.Equal(t, 2, result.SampleSize)
	assert.Zero(t, result.Slope)
}

func TestDetectTrendSingleTimestamp(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	points := []metric.Point{
		{Timestamp: at, Value: 5.0},
		{Timestamp: at, Value: 6.0},
		{Timestamp: at, Value: 7.0},
	}
	s := metric.NewSeries("3f1c2b4a-0000-4000-8000-000000000001", "overall_band", points)

	result := DetectTrend(s, DefaultOptions())

	assert.True(t, result.Insufficient)
	assert.Equal(t, 3, result.SampleSize)
}

func TestDetectTrendResidualStdErr(t *testing.T) {
	// Perfectly linear data leaves no residuals.
	s := hourlySeries(1.0, 2.0, 3.0, 4.0)

	result := DetectTrend(s, DefaultOptions())

	assert.InDelta(t, 0, result.ResidualStdErr, 1e-9)

	noisy := hourlySeries(1.0, 2.5, 2.8, 4.3)
	noisyResult := DetectTrend(noisy, DefaultOptions())
	assert.Greater(t, noisyResult.ResidualStdErr, 0.0)
}
