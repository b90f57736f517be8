package jobs

import (
	"context"
	"log/slog"

	"github.com/prepwise/prepwise-analytics/internal/domain/export"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
	"github.com/prepwise/prepwise-analytics/internal/infrastructure/service"
)

// ══════════════════════════════════════════════════════════════════════════════
// RUN EXPORTS JOB
// ══════════════════════════════════════════════════════════════════════════════

// RunExportsJob drains a batch of pending data exports per pass, oldest
// first. One failed export does not stop the rest of the batch.
type RunExportsJob struct {
	exports   export.Repository
	svc       *service.ExportService
	batchSize int
	logger    *slog.Logger
}

// NewRunExportsJob creates the job.
func NewRunExportsJob(exports export.Repository, svc *service.ExportService, batchSize int, logger *slog.Logger) *RunExportsJob {
	if logger == nil {
		logger = slog.Default()
	}
	if batchSize <= 0 {
		batchSize = 5
	}
	return &RunExportsJob{exports: exports, svc: svc, batchSize: batchSize, logger: logger}
}

// Name implements scheduler.Job.
func (j *RunExportsJob) Name() string {
	return "run-exports"
}

// Description implements scheduler.Job.
func (j *RunExportsJob) Description() string {
	return "drains the pending data-export queue in batches"
}

// Run implements scheduler.Job.
func (j *RunExportsJob) Run(ctx context.Context) error {
	pending, err := j.exports.ListPending(ctx, j.batchSize)
	if err != nil {
		return err
	}

	var failures int
	for _, exp := range pending {
		if err := j.svc.Run(ctx, exp); err != nil {
			failures++
			j.logger.Error("export run failed", "export_id", exp.ID, "error", err)
		}
	}

	if failures > 0 {
		return shared.WrapError("scheduler", "RunExports", shared.ErrExecutionFailed, "one or more exports failed", nil)
	}
	return nil
}
