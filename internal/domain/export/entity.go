// Package export contains raw-data export jobs. A DataExport mirrors the
// report execution lifecycle but pulls raw metrics/events instead of
// rendered analyses.
package export

import (
	"strings"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// Format is the export output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// IsValid checks if the format is supported.
func (f Format) IsValid() bool {
	return f == FormatJSON || f == FormatCSV
}

// ParseFormat parses an export format from its string form.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !f.IsValid() {
		return "", shared.NewDomainError("export", "ParseFormat", shared.ErrInvalidInput, "unsupported export format")
	}
	return f, nil
}

// Kind selects what raw data the export pulls.
type Kind string

const (
	KindMetrics Kind = "metrics"
	KindEvents  Kind = "events"
)

// Scope bounds what an export pulls. A scope matching zero records is a
// valid, completable export with an empty artifact.
type Scope struct {
	Kind      Kind              `json:"kind"`
	SubjectID shared.SubjectID  `json:"subject_id"`
	Metric    shared.MetricName `json:"metric,omitempty"` // metrics exports only
	Category  string            `json:"category,omitempty"` // events exports only
	Range     shared.TimeRange  `json:"range"`
}

// Validate checks the scope.
func (s Scope) Validate() error {
	if s.Kind != KindMetrics && s.Kind != KindEvents {
		return shared.ErrInvalidScope
	}
	if !s.SubjectID.IsValid() {
		return shared.NewDomainError("export", "Validate", shared.ErrInvalidID, "invalid subject ID in scope")
	}
	if !s.Range.IsValid() {
		return shared.ErrMalformedTimeRange
	}
	return nil
}

// Status is the export lifecycle state; same monotonic shape as report
// executions.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether the status is final.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// DataExport is one raw-data pull request.
type DataExport struct {
	ID          string
	RequesterID shared.SubjectID
	Scope       Scope
	Format      Format
	Status      Status
	ProgressPct int
	ArtifactRef string
	Error       string
	RequestedAt time.Time
	StartedAt   *time.Time
	FinishedAt  *time.Time
}

// NewDataExport creates a pending export with validation.
func NewDataExport(id string, requesterID shared.SubjectID, scope Scope, format Format) (*DataExport, error) {
	if strings.TrimSpace(id) == "" {
		return nil, shared.NewDomainError("export", "New", shared.ErrInvalidID, "export ID is required")
	}
	if !requesterID.IsValid() {
		return nil, shared.NewDomainError("export", "New", shared.ErrInvalidID, "invalid requester ID")
	}
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	if !format.IsValid() {
		return nil, shared.NewDomainError("export", "New", shared.ErrInvalidInput, "unsupported export format")
	}

	return &DataExport{
		ID:          id,
		RequesterID: requesterID,
		Scope:       scope,
		Format:      format,
		Status:      StatusPending,
		RequestedAt: time.Now().UTC(),
	}, nil
}

// Start moves pending → running.
func (e *DataExport) Start(at time.Time) error {
	if e.Status != StatusPending {
		return shared.WrapError("export", "Start", shared.ErrStateTransition, string(e.Status)+" → running", nil)
	}
	at = at.UTC()
	e.Status = StatusRunning
	e.StartedAt = &at
	return nil
}

// SetProgress clamps and records progress percentage.
func (e *DataExport) SetProgress(pct int) {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	e.ProgressPct = pct
}

// Complete moves running → completed. An empty artifact (zero matching
// records) still completes; emptiness is not a failure.
func (e *DataExport) Complete(at time.Time, artifactRef string) error {
	if e.Status != StatusRunning {
		return shared.WrapError("export", "Complete", shared.ErrStateTransition, string(e.Status)+" → completed", nil)
	}
	at = at.UTC()
	e.Status = StatusCompleted
	e.FinishedAt = &at
	e.ArtifactRef = artifactRef
	e.ProgressPct = 100
	return nil
}

// Fail moves running → failed, recording the error.
func (e *DataExport) Fail(at time.Time, message string) error {
	if e.Status != StatusRunning {
		return shared.WrapError("export", "Fail", shared.ErrStateTransition, string(e.Status)+" → failed", nil)
	}
	at = at.UTC()
	e.Status = StatusFailed
	e.FinishedAt = &at
	e.Error = message
	return nil
}
