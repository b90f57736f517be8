package prediction

import (
	"context"

	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// Repository defines persistence operations for predictive models.
// Models are append-only: Save inserts, Update only fills in validation
// fields, and nothing is ever deleted (superseded predictions remain for
// audit).
type Repository interface {
	// Save stores a newly generated model.
	Save(ctx context.Context, m *PredictiveModel) error

	// Find returns a model by ID, or shared.ErrModelNotFound.
	Find(ctx context.Context, id string) (*PredictiveModel, error)

	// Update persists the validation fields of a validated model.
	Update(ctx context.Context, m *PredictiveModel) error

	// FindBySubject returns all models of one type for a subject, newest
	// first. Used to compute rolling accuracy.
	FindBySubject(ctx context.Context, subjectID shared.SubjectID, modelType ModelType) ([]*PredictiveModel, error)
}
