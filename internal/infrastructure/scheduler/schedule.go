package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULES
// ══════════════════════════════════════════════════════════════════════════════

// IntervalSchedule runs a job at a fixed interval.
type IntervalSchedule struct {
	Interval time.Duration
}

// NewIntervalSchedule creates a new IntervalSchedule.
func NewIntervalSchedule(interval time.Duration) *IntervalSchedule {
	return &IntervalSchedule{Interval: interval}
}

// Next returns the next scheduled time.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

// String returns the string representation of the schedule.
func (s *IntervalSchedule) String() string {
	return fmt.Sprintf("@every %s", s.Interval.String())
}

// CronSchedule evaluates a standard 5-field cron expression in UTC.
// Report definitions carry these expressions; the schedule produces the
// tick times the report engine claims.
type CronSchedule struct {
	expr     string
	schedule cron.Schedule
}

// cronParser accepts the standard 5-field syntax plus descriptors like
// @daily.
var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// NewCronSchedule parses a cron expression.
func NewCronSchedule(expr string) (*CronSchedule, error) {
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("scheduler: invalid cron expression %q: %w", expr, err)
	}
	return &CronSchedule{expr: expr, schedule: schedule}, nil
}

// ValidateCronExpr reports whether a cron expression parses. The
// application layer uses it to reject bad schedules at definition time.
func ValidateCronExpr(expr string) error {
	_, err := cronParser.Parse(expr)
	if err != nil {
		return fmt.Errorf("scheduler: invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// Next returns the next occurrence after t, in UTC.
func (s *CronSchedule) Next(t time.Time) time.Time {
	return s.schedule.Next(t.UTC())
}

// String returns the cron expression.
func (s *CronSchedule) String() string {
	return s.expr
}
