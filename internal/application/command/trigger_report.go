package command

import (
	"context"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/report"
)

// ══════════════════════════════════════════════════════════════════════════════
// TRIGGER REPORT COMMAND
// Runs a report ad hoc, outside its schedule. Ad hoc runs carry no schedule
// tick and therefore never collide with scheduled executions.
// ══════════════════════════════════════════════════════════════════════════════

// ReportRunner executes reports; implemented by the report engine.
type ReportRunner interface {
	Trigger(ctx context.Context, reportID string) (*report.Execution, error)
}

// TriggerReportCommand identifies the report to run.
type TriggerReportCommand struct {
	ReportID string
}

// TriggerReportResult describes the execution that ran.
type TriggerReportResult struct {
	ExecutionID string     `json:"execution_id"`
	ReportID    string     `json:"report_id"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// TriggerReportHandler handles the TriggerReportCommand.
type TriggerReportHandler struct {
	runner ReportRunner
}

// NewTriggerReportHandler creates a new TriggerReportHandler.
func NewTriggerReportHandler(runner ReportRunner) *TriggerReportHandler {
	return &TriggerReportHandler{runner: runner}
}

// Handle executes the trigger report command. The run happens inline; the
// result reflects the execution's terminal state.
func (h *TriggerReportHandler) Handle(ctx context.Context, cmd TriggerReportCommand) (*TriggerReportResult, error) {
	exec, err := h.runner.Trigger(ctx, cmd.ReportID)
	if exec == nil {
		return nil, err
	}

	// A failed run is still a created execution; callers inspect the status
	// rather than receiving a transport error.
	return &TriggerReportResult{
		ExecutionID: exec.ID,
		ReportID:    exec.ReportID,
		Status:      string(exec.Status),
		Error:       exec.Error,
		FinishedAt:  exec.FinishedAt,
	}, nil
}
