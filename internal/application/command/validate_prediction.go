package command

import (
	"context"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/prediction"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALIDATE PREDICTION COMMAND
// Closes the prediction loop: once the forecast horizon has passed and the
// real outcome is known, the observed value is recorded on the model. A
// model can only be validated once.
// ══════════════════════════════════════════════════════════════════════════════

// ValidatePredictionCommand contains the observed outcome for a model.
type ValidatePredictionCommand struct {
	// ModelID identifies the predictive model.
	ModelID string

	// ActualValue is the observed outcome.
	ActualValue float64

	// ObservedAt is when the outcome was measured; zero means now.
	ObservedAt time.Time
}

// ValidatePredictionResult describes how the prediction fared.
type ValidatePredictionResult struct {
	ModelID     string  `json:"model_id"`
	Predicted   float64 `json:"predicted"`
	ActualValue float64 `json:"actual_value"`

	// WithinInterval reports whether the outcome fell inside the
	// confidence bounds.
	WithinInterval bool `json:"within_interval"`

	// AbsolutePercentageError is |actual-predicted|/|actual|; omitted when
	// the actual value is zero.
	AbsolutePercentageError *float64 `json:"absolute_percentage_error,omitempty"`
}

// ValidatePredictionHandler handles the ValidatePredictionCommand.
type ValidatePredictionHandler struct {
	models prediction.Repository
}

// NewValidatePredictionHandler creates a new ValidatePredictionHandler.
func NewValidatePredictionHandler(models prediction.Repository) *ValidatePredictionHandler {
	return &ValidatePredictionHandler{models: models}
}

// Handle executes the validate prediction command.
func (h *ValidatePredictionHandler) Handle(ctx context.Context, cmd ValidatePredictionCommand) (*ValidatePredictionResult, error) {
	model, err := h.models.Find(ctx, cmd.ModelID)
	if err != nil {
		return nil, err
	}

	if err := model.Validate(cmd.ActualValue, cmd.ObservedAt); err != nil {
		return nil, err
	}
	if err := h.models.Update(ctx, model); err != nil {
		return nil, err
	}

	result := &ValidatePredictionResult{
		ModelID:        model.ID,
		Predicted:      model.Predicted,
		ActualValue:    cmd.ActualValue,
		WithinInterval: model.Interval.Brackets(cmd.ActualValue),
	}
	if ape, ok := model.AbsolutePercentageError(); ok {
		result.AbsolutePercentageError = &ape
	}
	return result, nil
}
