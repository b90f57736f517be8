package prediction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepwise/prepwise-analytics/internal/domain/analysis"
	"github.com/prepwise/prepwise-analytics/internal/domain/metric"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

const testSubject = shared.SubjectID("3f1c2b4a-0000-4000-8000-000000000001")

func bandSeries(values ...float64) metric.Series {
	origin := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	points := make([]metric.Point, len(values))
	for i, v := range values {
		points[i] = metric.Point{Timestamp: origin.Add(time.Duration(i) * time.Hour), Value: v}
	}
	return metric.NewSeries(testSubject, "overall_band", points)
}

func TestForecastLinearProjection(t *testing.T) {
	// A perfectly linear series rising 0.5 per hour over 4 hours projects
	// to 7.0 + 0.5*2 two hours out, with a degenerate interval.
	s := bandSeries(5.0, 5.5, 6.0, 6.5, 7.0)

	model, err := Forecast("model-1", s, 2*time.Hour, analysis.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, "model-1", model.ID)
	assert.Equal(t, testSubject, model.SubjectID)
	assert.Equal(t, ModelLinearTrend, model.Type)
	assert.Equal(t, shared.MetricName("overall_band"), model.TargetMetric)
	assert.InDelta(t, 8.0, model.Predicted, 1e-9)
	assert.InDelta(t, 0, model.Interval.Width(), 1e-9)
	assert.Equal(t, 2*time.Hour, model.Horizon)
	assert.False(t, model.IsValidated())
}

func TestForecastIntervalWidensWithHorizon(t *testing.T) {
	s := bandSeries(5.0, 5.6, 5.9, 6.6, 6.9, 7.6)

	near, err := Forecast("near", s, 24*time.Hour, analysis.DefaultOptions())
	require.NoError(t, err)
	far, err := Forecast("far", s, 30*24*time.Hour, analysis.DefaultOptions())
	require.NoError(t, err)

	assert.Greater(t, near.Interval.Width(), 0.0)
	assert.Greater(t, far.Interval.Width(), near.Interval.Width())
	assert.True(t, near.Interval.Brackets(near.Predicted))
	assert.True(t, far.Interval.Brackets(far.Predicted))
}

func TestForecastRejectsNonPositiveHorizon(t *testing.T) {
	s := bandSeries(5.0, 5.5, 6.0)

	_, err := Forecast("model-1", s, 0, analysis.DefaultOptions())
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))

	_, err = Forecast("model-1", s, -time.Hour, analysis.DefaultOptions())
	assert.Error(t, err)
}

func TestForecastNotEnoughHistory(t *testing.T) {
	s := bandSeries(5.0, 6.0)

	_, err := Forecast("model-1", s, time.Hour, analysis.DefaultOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrNotEnoughHistory)
	assert.True(t, shared.IsInsufficientData(err))
}

func TestValidateOnce(t *testing.T) {
	s := bandSeries(5.0, 5.5, 6.0, 6.5)
	model, err := Forecast("model-1", s, time.Hour, analysis.DefaultOptions())
	require.NoError(t, err)

	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, model.Validate(6.8, at))

	assert.True(t, model.IsValidated())
	require.NotNil(t, model.ActualValue)
	assert.Equal(t, 6.8, *model.ActualValue)
	assert.Equal(t, at, *model.ValidatedAt)

	err = model.Validate(7.0, at)
	assert.ErrorIs(t, err, shared.ErrModelAlreadyValidated)
	assert.Equal(t, 6.8, *model.ActualValue)
}

func TestValidateZeroTimeDefaultsToNow(t *testing.T) {
	s := bandSeries(5.0, 5.5, 6.0, 6.5)
	model, err := Forecast("model-1", s, time.Hour, analysis.DefaultOptions())
	require.NoError(t, err)

	require.NoError(t, model.Validate(6.8, time.Time{}))
	require.NotNil(t, model.ValidatedAt)
	assert.WithinDuration(t, time.Now().UTC(), *model.ValidatedAt, time.Minute)
}

func TestAbsolutePercentageError(t *testing.T) {
	model := &PredictiveModel{ID: "m", Predicted: 8.0}

	_, ok := model.AbsolutePercentageError()
	assert.False(t, ok, "unvalidated model has no error")

	require.NoError(t, model.Validate(10.0, time.Now()))
	ape, ok := model.AbsolutePercentageError()
	require.True(t, ok)
	assert.InDelta(t, 0.2, ape, 1e-9)
}

func TestAbsolutePercentageErrorZeroActual(t *testing.T) {
	model := &PredictiveModel{ID: "m", Predicted: 8.0}
	require.NoError(t, model.Validate(0, time.Now()))

	_, ok := model.AbsolutePercentageError()
	assert.False(t, ok)
}

func TestComputeAccuracy(t *testing.T) {
	validated := func(predicted, actual float64) *PredictiveModel {
		m := &PredictiveModel{ID: "m", Predicted: predicted, Type: ModelLinearTrend}
		_ = m.Validate(actual, time.Now())
		return m
	}

	models := []*PredictiveModel{
		validated(8.0, 10.0), // APE 0.2
		validated(9.0, 10.0), // APE 0.1
		{ID: "pending", Predicted: 7.0},
	}

	acc := ComputeAccuracy(testSubject, ModelLinearTrend, models)

	assert.Equal(t, 3, acc.Total)
	assert.Equal(t, 2, acc.Validated)
	assert.InDelta(t, 0.15, acc.MAPE, 1e-9)
}

func TestComputeAccuracyNoValidatedModels(t *testing.T) {
	acc := ComputeAccuracy(testSubject, ModelLinearTrend, nil)

	assert.Zero(t, acc.Total)
	assert.Zero(t, acc.Validated)
	assert.Zero(t, acc.MAPE)
}
