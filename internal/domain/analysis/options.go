// Package analysis contains the pure statistical functions of the
// analytics core: trend detection, correlation analysis, and anomaly
// detection over metric series. All functions are deterministic, side
// effect free, and bounded-time; persistence and caching belong to the
// callers. This is a pure domain layer with zero external dependencies.
package analysis

import "time"

// Options holds the tunable thresholds of the statistical engine. The
// defaults mirror the configuration defaults; call sites receive them from
// config rather than hard-coding.
type Options struct {
	// TrendEpsilonFraction scales the slope classification epsilon: a trend
	// is improving/declining only when the fitted change over the observed
	// span exceeds this fraction of the metric's value range.
	TrendEpsilonFraction float64

	// MinTrendPoints is the minimum number of points for a regression fit.
	MinTrendPoints int

	// CorrelationAlpha is the two-tailed significance level.
	CorrelationAlpha float64

	// MinCorrelationSamples is the minimum number of aligned pairs for a
	// correlation to be reported significant.
	MinCorrelationSamples int

	// PairingTolerance is the nearest-neighbor window for aligning two
	// series by timestamp.
	PairingTolerance time.Duration

	// AnomalyWindow is the trailing window size for rolling statistics.
	AnomalyWindow int

	// AnomalyThreshold is the |z-score| above which a point is anomalous.
	AnomalyThreshold float64
}

// DefaultOptions returns the engine defaults.
func DefaultOptions() Options {
	return Options{
		TrendEpsilonFraction:  0.1,
		MinTrendPoints:        3,
		CorrelationAlpha:      0.05,
		MinCorrelationSamples: 5,
		PairingTolerance:      time.Hour,
		AnomalyWindow:         30,
		AnomalyThreshold:      2.5,
	}
}

// normalize fills zero-value fields with defaults so that a partially
// configured Options never degenerates the algorithms.
func (o Options) normalize() Options {
	def := DefaultOptions()
	if o.TrendEpsilonFraction <= 0 {
		o.TrendEpsilonFraction = def.TrendEpsilonFraction
	}
	if o.MinTrendPoints < 3 {
		o.MinTrendPoints = def.MinTrendPoints
	}
	if o.CorrelationAlpha <= 0 || o.CorrelationAlpha >= 1 {
		o.CorrelationAlpha = def.CorrelationAlpha
	}
	if o.MinCorrelationSamples < 2 {
		o.MinCorrelationSamples = def.MinCorrelationSamples
	}
	if o.PairingTolerance <= 0 {
		o.PairingTolerance = def.PairingTolerance
	}
	if o.AnomalyWindow <= 1 {
		o.AnomalyWindow = def.AnomalyWindow
	}
	if o.AnomalyThreshold <= 0 {
		o.AnomalyThreshold = def.AnomalyThreshold
	}
	return o
}
