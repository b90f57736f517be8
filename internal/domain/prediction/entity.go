// Package prediction contains predictive models: point forecasts with
// confidence bounds projected from a subject's metric history, plus the
// validation loop that tracks how accurate past predictions turned out.
// Models are never deleted; superseded predictions remain for audit.
package prediction

import (
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// ModelType identifies the forecasting method that produced a model.
type ModelType string

const (
	// ModelLinearTrend projects the OLS trend fit forward.
	ModelLinearTrend ModelType = "linear_trend"
)

// IsValid checks if the model type is known.
func (m ModelType) IsValid() bool {
	return m == ModelLinearTrend
}

// String returns the string representation.
func (m ModelType) String() string {
	return string(m)
}

// PredictiveModel is one forecast. Lifecycle: created at prediction time,
// optionally validated later when the real outcome is known, then counted
// into the rolling accuracy for its model type.
type PredictiveModel struct {
	ID           string
	SubjectID    shared.SubjectID
	Type         ModelType
	TargetMetric shared.MetricName
	Predicted    float64
	Interval     shared.ConfidenceInterval
	Horizon      time.Duration
	GeneratedAt  time.Time

	// Set by Validate once the outcome is observed.
	ValidatedAt *time.Time
	ActualValue *float64
}

// IsValidated reports whether the outcome has been recorded.
func (m *PredictiveModel) IsValidated() bool {
	return m.ValidatedAt != nil
}

// Validate closes the loop by recording the observed outcome. A model can
// only be validated once.
func (m *PredictiveModel) Validate(actual float64, at time.Time) error {
	if m.IsValidated() {
		return shared.ErrModelAlreadyValidated
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	at = at.UTC()
	m.ActualValue = &actual
	m.ValidatedAt = &at
	return nil
}

// AbsolutePercentageError returns |actual - predicted| / |actual| for a
// validated model. The ok flag is false for unvalidated models and for
// actual values of zero, where the percentage error is undefined.
func (m *PredictiveModel) AbsolutePercentageError() (float64, bool) {
	if !m.IsValidated() || *m.ActualValue == 0 {
		return 0, false
	}
	diff := *m.ActualValue - m.Predicted
	if diff < 0 {
		diff = -diff
	}
	actual := *m.ActualValue
	if actual < 0 {
		actual = -actual
	}
	return diff / actual, true
}
