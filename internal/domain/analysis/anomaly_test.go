package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectAnomaliesFlagsSpike(t *testing.T) {
	s := hourlySeries(6.0, 6.1, 5.9, 6.0, 6.05, 5.95, 6.1, 5.9, 6.0, 6.05, 5.95, 9.5)

	result := DetectAnomalies(s, DefaultOptions())

	assert.False(t, result.Insufficient)
	require.Len(t, result.Anomalies, 1)

	a := result.Anomalies[0]
	assert.Equal(t, 9.5, a.Value)
	assert.Greater(t, a.ZScore, DefaultOptions().AnomalyThreshold)
	assert.Equal(t, s.Points[11].Timestamp, a.Timestamp)
	assert.Greater(t, a.WindowStdDev, 0.0)
}

func TestDetectAnomaliesFlagsDip(t *testing.T) {
	s := hourlySeries(6.0, 6.1, 5.9, 6.0, 6.05, 5.95, 6.1, 5.9, 6.0, 6.05, 5.95, 2.0)

	result := DetectAnomalies(s, DefaultOptions())

	require.Len(t, result.Anomalies, 1)
	assert.Equal(t, 2.0, result.Anomalies[0].Value)
	assert.Less(t, result.Anomalies[0].ZScore, -DefaultOptions().AnomalyThreshold)
}

func TestDetectAnomaliesFlatSeries(t *testing.T) {
	// Zero window deviation yields no anomalies, never a division error.
	s := hourlySeries(6.0, 6.0, 6.0, 6.0, 6.0)

	result := DetectAnomalies(s, DefaultOptions())

	assert.False(t, result.Insufficient)
	assert.Empty(t, result.Anomalies)
}

func TestDetectAnomaliesTooFewPoints(t *testing.T) {
	s := hourlySeries(6.0)

	result := DetectAnomalies(s, DefaultOptions())

	assert.True(t, result.Insufficient)
	assert.Equal(t, 1, result.SampleSize)
	assert.Equal(t, DefaultOptions().AnomalyThreshold, result.Threshold)
}

func TestDetectAnomaliesFirstPointNeverFlagged(t *testing.T) {
	// The first observation has no trailing window to be judged against.
	s := hourlySeries(100.0, 6.0, 6.1, 5.9, 6.0)

	result := DetectAnomalies(s, DefaultOptions())

	for _, a := range result.Anomalies {
		assert.NotEqual(t, s.Points[0].Timestamp, a.Timestamp)
	}
}

func TestDetectAnomaliesWindowRecovers(t *testing.T) {
	opts := DefaultOptions()
	opts.AnomalyWindow = 5
	opts.AnomalyThreshold = 1.7

	// Once the spike leaves the trailing window, the rolling statistics
	// recover and ordinary baseline noise is not flagged.
	s := hourlySeries(6.0, 6.1, 5.9, 6.05, 9.0, 6.0, 6.1, 5.95, 6.0, 6.05)

	result := DetectAnomalies(s, opts)

	require.Len(t, result.Anomalies, 1)
	assert.Equal(t, 9.0, result.Anomalies[0].Value)
	assert.Equal(t, 1.7, result.Threshold)
}
