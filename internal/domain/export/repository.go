package export

import "context"

// Repository persists data exports.
type Repository interface {
	// Create inserts a new pending export.
	Create(ctx context.Context, e *DataExport) error

	// Update persists a state or progress change.
	Update(ctx context.Context, e *DataExport) error

	// Find returns an export by ID, or shared.ErrExportNotFound.
	Find(ctx context.Context, id string) (*DataExport, error)

	// ListPending returns pending exports oldest first; the worker drains
	// this queue.
	ListPending(ctx context.Context, limit int) ([]*DataExport, error)
}
