package query

import (
	"context"

	"github.com/prepwise/prepwise-analytics/internal/domain/prediction"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PREDICTION ACCURACY QUERY
// Rolls up validated predictions for a subject into accuracy figures: mean
// absolute percentage error and the share of outcomes that fell inside the
// forecast interval.
// ══════════════════════════════════════════════════════════════════════════════

// PredictionAccuracyQuery contains the accuracy request parameters.
type PredictionAccuracyQuery struct {
	SubjectID string

	// ModelType defaults to linear_trend.
	ModelType string
}

// PredictionAccuracyResult summarizes how past forecasts fared.
type PredictionAccuracyResult struct {
	SubjectID string `json:"subject_id"`
	ModelType string `json:"model_type"`

	TotalModels    int `json:"total_models"`
	ValidatedCount int `json:"validated_count"`

	// MeanAbsolutePercentageError averages over validated models with a
	// nonzero outcome; nil when no model qualifies.
	MeanAbsolutePercentageError *float64 `json:"mean_absolute_percentage_error,omitempty"`

	// WithinIntervalRate is the share of validated outcomes inside their
	// confidence bounds; nil when nothing is validated.
	WithinIntervalRate *float64 `json:"within_interval_rate,omitempty"`
}

// PredictionAccuracyHandler handles the PredictionAccuracyQuery.
type PredictionAccuracyHandler struct {
	models prediction.Repository
}

// NewPredictionAccuracyHandler creates a new PredictionAccuracyHandler.
func NewPredictionAccuracyHandler(models prediction.Repository) *PredictionAccuracyHandler {
	return &PredictionAccuracyHandler{models: models}
}

// Handle executes the prediction accuracy query.
func (h *PredictionAccuracyHandler) Handle(ctx context.Context, q PredictionAccuracyQuery) (*PredictionAccuracyResult, error) {
	subjectID, err := shared.NewSubjectID(q.SubjectID)
	if err != nil {
		return nil, err
	}

	modelType := prediction.ModelType(q.ModelType)
	if q.ModelType == "" {
		modelType = prediction.ModelLinearTrend
	}
	if !modelType.IsValid() {
		return nil, shared.NewDomainError("prediction", "Accuracy", shared.ErrInvalidInput, "unknown model type")
	}

	models, err := h.models.FindBySubject(ctx, subjectID, modelType)
	if err != nil {
		return nil, err
	}

	result := &PredictionAccuracyResult{
		SubjectID:   string(subjectID),
		ModelType:   string(modelType),
		TotalModels: len(models),
	}

	var (
		apeSum   float64
		apeCount int
		within   int
	)
	for _, m := range models {
		if !m.IsValidated() {
			continue
		}
		result.ValidatedCount++
		if m.Interval.Brackets(*m.ActualValue) {
			within++
		}
		if ape, ok := m.AbsolutePercentageError(); ok {
			apeSum += ape
			apeCount++
		}
	}

	if apeCount > 0 {
		mape := apeSum / float64(apeCount)
		result.MeanAbsolutePercentageError = &mape
	}
	if result.ValidatedCount > 0 {
		rate := float64(within) / float64(result.ValidatedCount)
		result.WithinIntervalRate = &rate
	}
	return result, nil
}
