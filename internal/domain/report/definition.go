// Package report contains report definitions and the execution state
// machine. A definition describes what to compute and how to render it; an
// execution is one attempt at materializing a definition into artifacts.
// This is a pure domain layer with zero external dependencies; cron
// expressions are validated at the application edge and evaluated by the
// scheduler.
package report

import (
	"strings"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// OutputFormat is a rendered artifact format.
type OutputFormat string

const (
	FormatJSON OutputFormat = "json"
	FormatCSV  OutputFormat = "csv"
)

// IsValid checks if the format is supported.
func (f OutputFormat) IsValid() bool {
	return f == FormatJSON || f == FormatCSV
}

// String returns the string representation.
func (f OutputFormat) String() string {
	return string(f)
}

// ParseFormat parses an output format from its string form.
func ParseFormat(s string) (OutputFormat, error) {
	f := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if !f.IsValid() {
		return "", shared.NewDomainError("report", "ParseFormat", shared.ErrInvalidInput, "unsupported output format")
	}
	return f, nil
}

// SectionKind selects which analysis a report section runs.
type SectionKind string

const (
	SectionSeries      SectionKind = "series"
	SectionTrend       SectionKind = "trend"
	SectionAnomalies   SectionKind = "anomalies"
	SectionForecast    SectionKind = "forecast"
	SectionComparison  SectionKind = "comparison"
	SectionCorrelation SectionKind = "correlation"
)

// IsValid checks if the section kind is known.
func (k SectionKind) IsValid() bool {
	switch k {
	case SectionSeries, SectionTrend, SectionAnomalies, SectionForecast,
		SectionComparison, SectionCorrelation:
		return true
	}
	return false
}

// MetricSelector names one analysis to include in a report. SecondMetric
// is only used by correlation sections.
type MetricSelector struct {
	Kind         SectionKind       `json:"kind"`
	Metric       shared.MetricName `json:"metric"`
	SecondMetric shared.MetricName `json:"second_metric,omitempty"`
}

// Validate checks the selector.
func (s MetricSelector) Validate() error {
	if !s.Kind.IsValid() {
		return shared.NewDomainError("report", "Validate", shared.ErrInvalidInput, "unknown section kind")
	}
	if !s.Metric.IsValid() {
		return shared.NewDomainError("report", "Validate", shared.ErrInvalidFormat, "invalid metric name in selector")
	}
	if s.Kind == SectionCorrelation && !s.SecondMetric.IsValid() {
		return shared.NewDomainError("report", "Validate", shared.ErrInvalidFormat, "correlation selector requires a second metric")
	}
	return nil
}

// Definition is a report description owned by a user. Mutable by its
// owner; deleting it cascades to future scheduled runs but never to past
// executions.
type Definition struct {
	ID        string
	OwnerID   shared.SubjectID
	Name      string
	SubjectID shared.SubjectID // subject the report is about
	Selectors []MetricSelector
	LookbackDays int
	Formats   []OutputFormat

	// Schedule is a standard 5-field cron expression; empty means ad hoc
	// only. Syntax is validated at creation time by the application layer.
	Schedule   string
	Recipients []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewDefinition creates a Definition with validation.
func NewDefinition(id string, ownerID, subjectID shared.SubjectID, name string, selectors []MetricSelector, formats []OutputFormat) (*Definition, error) {
	if strings.TrimSpace(id) == "" {
		return nil, shared.NewDomainError("report", "New", shared.ErrInvalidID, "definition ID is required")
	}
	if !ownerID.IsValid() || !subjectID.IsValid() {
		return nil, shared.NewDomainError("report", "New", shared.ErrInvalidID, "invalid owner or subject ID")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("report", "New", shared.ErrEmptyValue, "report name is required")
	}
	if len(selectors) == 0 {
		return nil, shared.NewDomainError("report", "New", shared.ErrInvalidInput, "at least one metric selector is required")
	}
	for _, sel := range selectors {
		if err := sel.Validate(); err != nil {
			return nil, err
		}
	}
	if len(formats) == 0 {
		formats = []OutputFormat{FormatJSON}
	}
	for _, f := range formats {
		if !f.IsValid() {
			return nil, shared.NewDomainError("report", "New", shared.ErrInvalidInput, "unsupported output format")
		}
	}

	now := time.Now().UTC()
	return &Definition{
		ID:           id,
		OwnerID:      ownerID,
		SubjectID:    subjectID,
		Name:         strings.TrimSpace(name),
		Selectors:    selectors,
		LookbackDays: 90,
		Formats:      formats,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// IsScheduled reports whether the definition has a cron schedule.
func (d *Definition) IsScheduled() bool {
	return strings.TrimSpace(d.Schedule) != ""
}

// Lookback returns the time range the report covers, ending at ref.
func (d *Definition) Lookback(ref time.Time) shared.TimeRange {
	days := d.LookbackDays
	if days <= 0 {
		days = 90
	}
	return shared.TimeRange{Start: ref.AddDate(0, 0, -days), End: ref}
}

// Touch updates the modification timestamp.
func (d *Definition) Touch() {
	d.UpdatedAt = time.Now().UTC()
}
