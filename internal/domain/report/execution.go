package report

import (
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// Status is the lifecycle state of an execution. Transitions are
// monotonic: pending → running → (completed | failed), with cancellation
// allowed from pending only. A finished execution never regresses.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether the status is final.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// canTransition encodes the legal state machine edges.
func canTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusRunning || to == StatusCancelled
	case StatusRunning:
		return to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}

// ArtifactRef points at one rendered artifact. Each format renders
// independently: a failed format leaves the refs of successful formats in
// place.
type ArtifactRef struct {
	Format    OutputFormat `json:"format"`
	Ref       string       `json:"ref"`
	SizeBytes int64        `json:"size_bytes"`
}

// Execution is one attempt at materializing a report definition.
// Immutable once FinishedAt is set.
type Execution struct {
	ID       string
	ReportID string
	Status   Status

	// ScheduledFor is the schedule tick this execution belongs to; nil for
	// manual ad hoc runs. At most one execution exists per
	// (ReportID, ScheduledFor) pair - that uniqueness is the scheduler
	// idempotence and mutual-exclusion point.
	ScheduledFor *time.Time

	RequestedAt time.Time
	StartedAt   *time.Time
	FinishedAt  *time.Time
	Error       string
	Artifacts   []ArtifactRef
}

// NewExecution creates a pending execution.
func NewExecution(id, reportID string, scheduledFor *time.Time) (*Execution, error) {
	if id == "" || reportID == "" {
		return nil, shared.NewDomainError("report", "NewExecution", shared.ErrInvalidID, "execution and report IDs are required")
	}
	if scheduledFor != nil {
		t := scheduledFor.UTC().Truncate(time.Minute)
		scheduledFor = &t
	}
	return &Execution{
		ID:           id,
		ReportID:     reportID,
		Status:       StatusPending,
		ScheduledFor: scheduledFor,
		RequestedAt:  time.Now().UTC(),
	}, nil
}

// IsAdHoc reports whether the execution was manually triggered.
func (e *Execution) IsAdHoc() bool {
	return e.ScheduledFor == nil
}

// Start moves pending → running.
func (e *Execution) Start(at time.Time) error {
	if !canTransition(e.Status, StatusRunning) {
		return shared.WrapError("report", "Start", shared.ErrStateTransition, string(e.Status)+" → running", nil)
	}
	at = at.UTC()
	e.Status = StatusRunning
	e.StartedAt = &at
	return nil
}

// Complete moves running → completed, attaching the artifact references.
func (e *Execution) Complete(at time.Time, artifacts []ArtifactRef) error {
	if !canTransition(e.Status, StatusCompleted) {
		return shared.WrapError("report", "Complete", shared.ErrStateTransition, string(e.Status)+" → completed", nil)
	}
	at = at.UTC()
	e.Status = StatusCompleted
	e.FinishedAt = &at
	e.Artifacts = artifacts
	return nil
}

// Fail moves running → failed, recording the error. Artifacts already
// produced by other formats in the same run are retained, not rolled back.
func (e *Execution) Fail(at time.Time, message string, artifacts []ArtifactRef) error {
	if !canTransition(e.Status, StatusFailed) {
		return shared.WrapError("report", "Fail", shared.ErrStateTransition, string(e.Status)+" → failed", nil)
	}
	at = at.UTC()
	e.Status = StatusFailed
	e.FinishedAt = &at
	e.Error = message
	e.Artifacts = artifacts
	return nil
}

// Cancel moves pending → cancelled. A running execution is never forcibly
// interrupted; it completes or fails on its own.
func (e *Execution) Cancel(at time.Time) error {
	if !canTransition(e.Status, StatusCancelled) {
		return shared.ErrExecutionNotPending
	}
	at = at.UTC()
	e.Status = StatusCancelled
	e.FinishedAt = &at
	return nil
}
