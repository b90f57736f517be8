package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/event"
)

// ══════════════════════════════════════════════════════════════════════════════
// PRUNE EVENTS JOB
// ══════════════════════════════════════════════════════════════════════════════

// PruneEventsJob removes raw behavioral events older than the retention
// policy allows. Metrics are never pruned; only the event stream is.
type PruneEventsJob struct {
	events event.Repository
	policy event.RetentionPolicy
	logger *slog.Logger
}

// NewPruneEventsJob creates the job.
func NewPruneEventsJob(events event.Repository, policy event.RetentionPolicy, logger *slog.Logger) *PruneEventsJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &PruneEventsJob{events: events, policy: policy, logger: logger}
}

// Name implements scheduler.Job.
func (j *PruneEventsJob) Name() string {
	return "prune-events"
}

// Description implements scheduler.Job.
func (j *PruneEventsJob) Description() string {
	return "deletes behavioral events past the retention cutoff"
}

// Run implements scheduler.Job.
func (j *PruneEventsJob) Run(ctx context.Context) error {
	if !j.policy.Enabled() {
		return nil
	}

	cutoff := j.policy.CutoffBefore(time.Now().UTC())
	removed, err := j.events.PruneBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	if removed > 0 {
		j.logger.Info("pruned expired events", "removed", removed, "cutoff", cutoff)
	}
	return nil
}
