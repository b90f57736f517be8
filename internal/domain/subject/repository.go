package subject

import (
	"context"

	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// CohortFilter selects a peer set. Zero-value fields are not filtered on.
// The subject identified by ExcludeSubject is always excluded, matching the
// comparison contract (a subject is never its own peer).
type CohortFilter struct {
	Cohort         shared.Cohort
	Band           ProficiencyBand
	OnlyActive     bool
	ExcludeSubject shared.SubjectID
}

// Repository defines persistence operations for subjects.
type Repository interface {
	// Register stores a new subject. Registering an existing ID is a no-op
	// (idempotent under retry).
	Register(ctx context.Context, s *Subject) error

	// Find returns a subject by ID, or shared.ErrSubjectNotFound.
	Find(ctx context.Context, id shared.SubjectID) (*Subject, error)

	// Exists reports whether a subject is registered. Used for write-time
	// referential checks on the ingestion path.
	Exists(ctx context.Context, id shared.SubjectID) (bool, error)

	// FindPeers returns the subject IDs matching the cohort filter.
	FindPeers(ctx context.Context, filter CohortFilter) ([]shared.SubjectID, error)
}
