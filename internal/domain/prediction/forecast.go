package prediction

import (
	"math"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/analysis"
	"github.com/prepwise/prepwise-analytics/internal/domain/metric"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// zCritical95 is the normal critical value for a 95% interval.
const zCritical95 = 1.96

// Forecast projects the trend fit of a subject's series forward by the
// horizon and brackets the projection with a confidence interval that
// widens with both the horizon and the residual variance of the fit
// (noisier history, wider interval).
//
// Returns shared.ErrNotEnoughHistory when the series cannot support a fit;
// callers surface that as a typed state, never a zero-confidence guess.
func Forecast(id string, s metric.Series, horizon time.Duration, opts analysis.Options) (*PredictiveModel, error) {
	if horizon <= 0 {
		return nil, shared.NewDomainError("prediction", "Forecast", shared.ErrInvalidInput, "horizon must be positive")
	}

	trend := analysis.DetectTrend(s, opts)
	if trend.Insufficient {
		return nil, shared.ErrNotEnoughHistory
	}

	horizonHours := horizon.Hours()
	predicted := trend.Intercept + trend.Slope*(trend.SpanHours+horizonHours)

	margin := intervalMargin(trend, horizonHours)
	interval, err := shared.NewConfidenceInterval(predicted, predicted-margin, predicted+margin)
	if err != nil {
		return nil, err
	}

	return &PredictiveModel{
		ID:           id,
		SubjectID:    s.SubjectID,
		Type:         ModelLinearTrend,
		TargetMetric: s.Name,
		Predicted:    predicted,
		Interval:     interval,
		Horizon:      horizon,
		GeneratedAt:  time.Now().UTC(),
	}, nil
}

// intervalMargin widens the 95% band by the ratio of the forecast horizon
// to the observed history span: extrapolating one full span beyond the
// data roughly doubles the uncertainty.
func intervalMargin(trend analysis.TrendResult, horizonHours float64) float64 {
	spanHours := trend.SpanHours
	if spanHours <= 0 {
		spanHours = horizonHours
	}
	return zCritical95 * trend.ResidualStdErr * math.Sqrt(1+horizonHours/spanHours)
}

// Accuracy summarizes prediction quality for one subject and model type.
type Accuracy struct {
	SubjectID shared.SubjectID
	Type      ModelType

	// MAPE is the mean absolute percentage error over validated models.
	MAPE float64

	// Validated is the number of models that contributed to MAPE.
	Validated int

	// Total is the number of models generated, validated or not.
	Total int
}

// ComputeAccuracy folds validated models into a rolling MAPE. Models that
// are unvalidated, or whose actual value is zero, are excluded from the
// error average but still counted in Total.
func ComputeAccuracy(subjectID shared.SubjectID, modelType ModelType, models []*PredictiveModel) Accuracy {
	acc := Accuracy{SubjectID: subjectID, Type: modelType, Total: len(models)}

	var sum float64
	for _, m := range models {
		ape, ok := m.AbsolutePercentageError()
		if !ok {
			continue
		}
		sum += ape
		acc.Validated++
	}
	if acc.Validated > 0 {
		acc.MAPE = sum / float64(acc.Validated)
	}
	return acc
}
