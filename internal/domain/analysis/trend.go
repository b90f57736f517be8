package analysis

import (
	"math"

	"github.com/prepwise/prepwise-analytics/internal/domain/metric"
)

// Classification buckets the direction of a fitted trend.
type Classification string

const (
	ClassImproving Classification = "improving"
	ClassDeclining Classification = "declining"
	ClassStable    Classification = "stable"
)

// TrendResult is the outcome of fitting a metric series.
//
// When Insufficient is true the fit fields are zero and must not be
// interpreted; dashboards render this as an "insufficient data" state.
type TrendResult struct {
	Insufficient bool
	SampleSize   int

	// Slope is the fitted change in metric value per hour of elapsed time.
	Slope float64

	// Intercept is the fitted value at the first observation.
	Intercept float64

	// RSquared is the coefficient of determination of the fit.
	RSquared float64

	// Classification is improving/declining/stable per the scaled epsilon.
	Classification Classification

	// Epsilon is the slope threshold actually used for classification.
	Epsilon float64

	// ResidualStdErr is the standard error of the regression residuals;
	// the prediction service widens confidence intervals with it.
	ResidualStdErr float64

	// SpanHours is the elapsed time between the first and last observation.
	SpanHours float64
}

// DetectTrend fits an ordinary least-squares regression of value over
// elapsed time (in hours since the first observation). Series with fewer
// than opts.MinTrendPoints points return an insufficient-data result
// rather than a degenerate fit.
func DetectTrend(s metric.Series, opts Options) TrendResult {
	opts = opts.normalize()

	if s.Len() < opts.MinTrendPoints {
		return TrendResult{Insufficient: true, SampleSize: s.Len()}
	}

	origin := s.First().Timestamp
	xs := make([]float64, s.Len())
	ys := make([]float64, s.Len())
	for i, p := range s.Points {
		xs[i] = p.Timestamp.Sub(origin).Hours()
		ys[i] = p.Value
	}

	slope, intercept, ok := leastSquares(xs, ys)
	if !ok {
		// All observations share one timestamp; no elapsed-time axis to fit.
		return TrendResult{Insufficient: true, SampleSize: s.Len()}
	}

	r2 := rSquared(xs, ys, slope, intercept)
	eps := slopeEpsilon(s, opts)

	result := TrendResult{
		SampleSize:     s.Len(),
		Slope:          slope,
		Intercept:      intercept,
		RSquared:       r2,
		Epsilon:        eps,
		ResidualStdErr: residualStdError(xs, ys, slope, intercept),
		SpanHours:      s.Span().Hours(),
		Classification: ClassStable,
	}
	switch {
	case slope > eps:
		result.Classification = ClassImproving
	case slope < -eps:
		result.Classification = ClassDeclining
	}
	return result
}

// slopeEpsilon scales the classification threshold to the metric's typical
// range: the fitted change over the observed span must exceed
// TrendEpsilonFraction of the value range to count as a real trend.
func slopeEpsilon(s metric.Series, opts Options) float64 {
	spanHours := s.Span().Hours()
	if spanHours <= 0 {
		return 0
	}
	return opts.TrendEpsilonFraction * s.ValueRange() / spanHours
}

// leastSquares fits y = slope*x + intercept. Returns ok=false when the
// x values have zero variance.
func leastSquares(xs, ys []float64) (slope, intercept float64, ok bool) {
	n := float64(len(xs))
	var sumX, sumY, sumXY, sumXX float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumXX += xs[i] * xs[i]
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, 0, false
	}

	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept, true
}

// rSquared computes the coefficient of determination of a linear fit.
// A series with zero value variance fits perfectly; R² is 1 there.
func rSquared(xs, ys []float64, slope, intercept float64) float64 {
	meanY := mean(ys)

	var ssRes, ssTot float64
	for i := range xs {
		pred := slope*xs[i] + intercept
		ssRes += (ys[i] - pred) * (ys[i] - pred)
		ssTot += (ys[i] - meanY) * (ys[i] - meanY)
	}
	if ssTot == 0 {
		return 1
	}
	return 1 - ssRes/ssTot
}

// residualStdError computes the standard error of the regression residuals
// for a fitted series; the prediction service widens confidence intervals
// with it. Requires len >= 3.
func residualStdError(xs, ys []float64, slope, intercept float64) float64 {
	if len(xs) < 3 {
		return 0
	}
	var ssRes float64
	for i := range xs {
		pred := slope*xs[i] + intercept
		ssRes += (ys[i] - pred) * (ys[i] - pred)
	}
	return math.Sqrt(ssRes / float64(len(xs)-2))
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}
