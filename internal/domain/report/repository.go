package report

import (
	"context"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// DefinitionRepository persists report definitions.
type DefinitionRepository interface {
	// Save inserts or updates a definition.
	Save(ctx context.Context, d *Definition) error

	// Find returns a definition by ID, or shared.ErrReportNotFound.
	Find(ctx context.Context, id string) (*Definition, error)

	// FindByOwner returns the definitions owned by a user.
	FindByOwner(ctx context.Context, ownerID shared.SubjectID) ([]*Definition, error)

	// FindScheduled returns all definitions with a non-empty schedule.
	FindScheduled(ctx context.Context) ([]*Definition, error)

	// Delete removes a definition. Past executions are retained; only
	// future scheduled runs are cascaded away (nothing will claim new
	// ticks for a deleted definition).
	Delete(ctx context.Context, id string) error
}

// ExecutionRepository persists report executions.
type ExecutionRepository interface {
	// Create inserts a new pending execution. For scheduled executions the
	// (report_id, scheduled_for) pair is unique: creating a second
	// execution for an already-claimed tick returns
	// shared.ErrDuplicateTick. This is the mutual-exclusion point that
	// stops a scheduler firing twice from running duplicates.
	Create(ctx context.Context, e *Execution) error

	// Update persists a state transition.
	Update(ctx context.Context, e *Execution) error

	// Find returns an execution by ID, or shared.ErrExecutionNotFound.
	Find(ctx context.Context, id string) (*Execution, error)

	// FindByTick returns the execution claimed for a schedule tick, or
	// shared.ErrExecutionNotFound.
	FindByTick(ctx context.Context, reportID string, tick time.Time) (*Execution, error)

	// ListByReport returns executions for a report, newest first.
	ListByReport(ctx context.Context, reportID string, p shared.Pagination) ([]*Execution, error)
}
