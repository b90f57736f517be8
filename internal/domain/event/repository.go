package event

import (
	"context"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// Repository defines persistence operations for behavioral events.
// Writes are append-only and idempotent: recording an event whose ID is
// already stored is a no-op, not an error.
type Repository interface {
	// Record appends an event. Duplicate IDs are silently ignored.
	Record(ctx context.Context, e *Event) error

	// Query returns events for a subject ordered by occurred_at ascending,
	// restricted to the half-open time range. Category is optional (empty
	// matches all). An unknown subject yields an empty slice, not an error.
	Query(ctx context.Context, subjectID shared.SubjectID, category Category, tr shared.TimeRange) ([]*Event, error)

	// PruneBefore deletes events that occurred before the cutoff, returning
	// the number removed. Used by the retention job.
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
