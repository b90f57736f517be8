// Package jobs contains the background jobs registered with the
// scheduler: scheduled report runs, export queue draining, and event
// retention pruning.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/report"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
	"github.com/prepwise/prepwise-analytics/internal/infrastructure/scheduler"
	"github.com/prepwise/prepwise-analytics/internal/infrastructure/service"
)

// ══════════════════════════════════════════════════════════════════════════════
// RUN DUE REPORTS JOB
// ══════════════════════════════════════════════════════════════════════════════

// RunDueReportsJob evaluates every scheduled report definition and runs
// the ones whose cron tick has arrived. Claiming the tick is what makes
// this safe to run from overlapping passes or multiple workers: a tick
// already claimed surfaces as shared.ErrDuplicateTick and is skipped.
type RunDueReportsJob struct {
	defs       report.DefinitionRepository
	engine     *service.ReportEngine
	logger     *slog.Logger
	lookBehind time.Duration
}

// NewRunDueReportsJob creates the job. lookBehind bounds how far back a
// missed tick is still picked up; it should exceed the job's own
// scheduling interval.
func NewRunDueReportsJob(defs report.DefinitionRepository, engine *service.ReportEngine, lookBehind time.Duration, logger *slog.Logger) *RunDueReportsJob {
	if logger == nil {
		logger = slog.Default()
	}
	if lookBehind <= 0 {
		lookBehind = 2 * time.Minute
	}
	return &RunDueReportsJob{defs: defs, engine: engine, logger: logger, lookBehind: lookBehind}
}

// Name implements scheduler.Job.
func (j *RunDueReportsJob) Name() string {
	return "run-due-reports"
}

// Description implements scheduler.Job.
func (j *RunDueReportsJob) Description() string {
	return "runs scheduled report definitions whose cron tick has arrived"
}

// Run implements scheduler.Job.
func (j *RunDueReportsJob) Run(ctx context.Context) error {
	defs, err := j.defs.FindScheduled(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	var failures int
	for _, def := range defs {
		if err := j.runIfDue(ctx, def, now); err != nil {
			failures++
			j.logger.Error("scheduled report run failed",
				"report_id", def.ID, "error", err)
		}
	}

	if failures > 0 {
		return shared.WrapError("scheduler", "RunDueReports", shared.ErrExecutionFailed, "one or more scheduled reports failed", nil)
	}
	return nil
}

func (j *RunDueReportsJob) runIfDue(ctx context.Context, def *report.Definition, now time.Time) error {
	sched, err := scheduler.NewCronSchedule(def.Schedule)
	if err != nil {
		// Schedules are validated at creation; a bad one here means stored
		// data drifted. Log and move on rather than blocking other reports.
		j.logger.Warn("stored schedule no longer parses",
			"report_id", def.ID, "schedule", def.Schedule, "error", err)
		return nil
	}

	tick := sched.Next(now.Add(-j.lookBehind))
	if tick.After(now) {
		return nil
	}

	_, err = j.engine.RunTick(ctx, def, tick)
	if errors.Is(err, shared.ErrDuplicateTick) {
		// Another pass or worker already owns this tick.
		return nil
	}
	return err
}
