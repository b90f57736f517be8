package analysis

import (
	"math"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/metric"
)

// Anomaly is a single flagged observation.
type Anomaly struct {
	Timestamp time.Time
	Value     float64

	// ZScore is (value - rolling mean) / rolling stddev at this point.
	ZScore float64

	// WindowMean and WindowStdDev describe the trailing window the point
	// was judged against.
	WindowMean   float64
	WindowStdDev float64
}

// AnomalyResult is the outcome of scanning a series for outliers.
type AnomalyResult struct {
	Insufficient bool
	SampleSize   int
	Threshold    float64
	Anomalies    []Anomaly
}

// DetectAnomalies flags points whose z-score against a trailing rolling
// window exceeds the configured threshold in absolute value. A window with
// (near-)zero standard deviation yields no anomalies for its point, never
// a division error. Empty or single-point series short-circuit with an
// insufficient-data result.
func DetectAnomalies(s metric.Series, opts Options) AnomalyResult {
	opts = opts.normalize()

	if s.Len() < 2 {
		return AnomalyResult{Insufficient: true, SampleSize: s.Len(), Threshold: opts.AnomalyThreshold}
	}

	result := AnomalyResult{
		SampleSize: s.Len(),
		Threshold:  opts.AnomalyThreshold,
	}

	values := s.Values()
	for i := range values {
		start := i + 1 - opts.AnomalyWindow
		if start < 0 {
			start = 0
		}
		window := values[start : i+1]
		if len(window) < 2 {
			continue
		}

		m, sd := meanStdDev(window)
		if sd < 1e-9 {
			continue
		}

		z := (values[i] - m) / sd
		if math.Abs(z) > opts.AnomalyThreshold {
			result.Anomalies = append(result.Anomalies, Anomaly{
				Timestamp:    s.Points[i].Timestamp,
				Value:        values[i],
				ZScore:       z,
				WindowMean:   m,
				WindowStdDev: sd,
			})
		}
	}

	return result
}

// meanStdDev computes the mean and sample standard deviation of a window.
func meanStdDev(vs []float64) (m, sd float64) {
	m = mean(vs)
	if len(vs) < 2 {
		return m, 0
	}
	var ss float64
	for _, v := range vs {
		ss += (v - m) * (v - m)
	}
	return m, math.Sqrt(ss / float64(len(vs)-1))
}
