package command

import (
	"context"

	"github.com/prepwise/prepwise-analytics/internal/domain/report"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DELETE REPORT COMMAND
// Removes a report definition. Past executions and their artifacts are
// retained; only future scheduled runs disappear with the definition.
// ══════════════════════════════════════════════════════════════════════════════

// DeleteReportCommand identifies the definition to delete.
type DeleteReportCommand struct {
	ReportID string

	// OwnerID must match the definition's owner.
	OwnerID string
}

// DeleteReportHandler handles the DeleteReportCommand.
type DeleteReportHandler struct {
	defs report.DefinitionRepository
}

// NewDeleteReportHandler creates a new DeleteReportHandler.
func NewDeleteReportHandler(defs report.DefinitionRepository) *DeleteReportHandler {
	return &DeleteReportHandler{defs: defs}
}

// Handle executes the delete report command.
func (h *DeleteReportHandler) Handle(ctx context.Context, cmd DeleteReportCommand) error {
	ownerID, err := shared.NewSubjectID(cmd.OwnerID)
	if err != nil {
		return err
	}

	def, err := h.defs.Find(ctx, cmd.ReportID)
	if err != nil {
		return err
	}
	if def.OwnerID != ownerID {
		// Ownership mismatches surface as not-found rather than leaking the
		// definition's existence.
		return shared.ErrReportNotFound
	}

	return h.defs.Delete(ctx, cmd.ReportID)
}
