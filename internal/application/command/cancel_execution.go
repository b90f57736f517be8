package command

import (
	"context"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/report"
)

// ══════════════════════════════════════════════════════════════════════════════
// CANCEL EXECUTION COMMAND
// Cancels a pending report execution. Running executions are never forcibly
// interrupted; they finish on their own.
// ══════════════════════════════════════════════════════════════════════════════

// CancelExecutionCommand identifies the execution to cancel.
type CancelExecutionCommand struct {
	ExecutionID string
}

// CancelExecutionResult contains the cancelled execution's state.
type CancelExecutionResult struct {
	ExecutionID string     `json:"execution_id"`
	Status      string     `json:"status"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// CancelExecutionHandler handles the CancelExecutionCommand.
type CancelExecutionHandler struct {
	execs report.ExecutionRepository
}

// NewCancelExecutionHandler creates a new CancelExecutionHandler.
func NewCancelExecutionHandler(execs report.ExecutionRepository) *CancelExecutionHandler {
	return &CancelExecutionHandler{execs: execs}
}

// Handle executes the cancel execution command.
func (h *CancelExecutionHandler) Handle(ctx context.Context, cmd CancelExecutionCommand) (*CancelExecutionResult, error) {
	exec, err := h.execs.Find(ctx, cmd.ExecutionID)
	if err != nil {
		return nil, err
	}

	if err := exec.Cancel(time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := h.execs.Update(ctx, exec); err != nil {
		return nil, err
	}

	return &CancelExecutionResult{
		ExecutionID: exec.ID,
		Status:      string(exec.Status),
		FinishedAt:  exec.FinishedAt,
	}, nil
}
