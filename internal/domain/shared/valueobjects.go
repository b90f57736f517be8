// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// SubjectID represents a unique subject (learner) identifier in UUID format.
type SubjectID string

// IsValid checks if the subject ID is a valid UUID.
func (s SubjectID) IsValid() bool {
	return uuidRegex.MatchString(string(s))
}

// String returns the string representation.
func (s SubjectID) String() string {
	return string(s)
}

// IsEmpty checks if the ID is empty.
func (s SubjectID) IsEmpty() bool {
	return s == ""
}

// NewSubjectID creates a new SubjectID with validation.
func NewSubjectID(id string) (SubjectID, error) {
	sid := SubjectID(strings.ToLower(strings.TrimSpace(id)))
	if !sid.IsValid() {
		return "", NewDomainError("shared", "NewSubjectID", ErrInvalidID, "invalid subject ID format")
	}
	return sid, nil
}

// MetricName identifies a metric time series (e.g., "overall_band",
// "listening_accuracy", "reading_speed_wpm").
type MetricName string

// Metric name format: snake_case segments.
var metricNameRegex = regexp.MustCompile(`^[a-z][a-z0-9]*(_[a-z0-9]+)*$`)

// IsValid checks if the metric name format is valid.
func (m MetricName) IsValid() bool {
	s := string(m)
	return len(s) >= 2 && len(s) <= 64 && metricNameRegex.MatchString(s)
}

// String returns the string representation.
func (m MetricName) String() string {
	return string(m)
}

// NewMetricName creates a new MetricName with validation.
func NewMetricName(name string) (MetricName, error) {
	mn := MetricName(strings.ToLower(strings.TrimSpace(name)))
	if !mn.IsValid() {
		return "", NewDomainError("shared", "NewMetricName", ErrInvalidFormat, "invalid metric name format, expected snake_case")
	}
	return mn, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Cohort Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Cohort represents an enrollment period (e.g., "2026-spring").
type Cohort string

var cohortRegex = regexp.MustCompile(`^\d{4}-(spring|summer|fall|winter)$`)

// IsValid checks if the cohort format is valid.
func (c Cohort) IsValid() bool {
	return cohortRegex.MatchString(string(c))
}

// String returns the string representation.
func (c Cohort) String() string {
	return string(c)
}

// NewCohort creates a new Cohort with validation.
func NewCohort(value string) (Cohort, error) {
	c := Cohort(strings.ToLower(strings.TrimSpace(value)))
	if !c.IsValid() {
		return "", NewDomainError("shared", "NewCohort", ErrInvalidFormat, "invalid cohort format, expected YYYY-season")
	}
	return c, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// TimeRange Value Object
// ═══════════════════════════════════════════════════════════════════════════

// TimeRange represents a half-open time interval [Start, End).
// A point at exactly Start is inside the range; a point at End is not.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// IsValid checks if the time range is well formed. Only an inverted range
// is malformed; [t, t) is a valid empty range that contains nothing.
func (t TimeRange) IsValid() bool {
	return !t.Start.IsZero() && !t.End.IsZero() && !t.Start.After(t.End)
}

// IsEmpty reports whether the range covers no instant at all.
func (t TimeRange) IsEmpty() bool {
	return !t.Start.Before(t.End)
}

// IsZero reports whether both bounds are unset.
func (t TimeRange) IsZero() bool {
	return t.Start.IsZero() && t.End.IsZero()
}

// Duration returns the length of the range.
func (t TimeRange) Duration() time.Duration {
	return t.End.Sub(t.Start)
}

// Contains checks if a time falls within the half-open interval.
func (t TimeRange) Contains(tm time.Time) bool {
	return !tm.Before(t.Start) && tm.Before(t.End)
}

// String returns a human-readable representation.
func (t TimeRange) String() string {
	return fmt.Sprintf("[%s, %s)", t.Start.Format(time.RFC3339), t.End.Format(time.RFC3339))
}

// NewTimeRange creates a new TimeRange with validation.
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	tr := TimeRange{Start: start, End: end}
	if !tr.IsValid() {
		return TimeRange{}, ErrMalformedTimeRange
	}
	return tr, nil
}

// LastNDays returns a TimeRange covering the last N days up to now.
func LastNDays(n int) TimeRange {
	now := time.Now().UTC()
	return TimeRange{Start: now.AddDate(0, 0, -n), End: now}
}

// ═══════════════════════════════════════════════════════════════════════════
// Percentile Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Percentile represents a percentile rank in [0, 100].
type Percentile float64

// IsValid checks if the percentile is within range.
func (p Percentile) IsValid() bool {
	return p >= 0 && p <= 100
}

// Float64 returns the underlying value.
func (p Percentile) Float64() float64 {
	return float64(p)
}

// NewPercentile creates a new Percentile with validation.
func NewPercentile(value float64) (Percentile, error) {
	if value < 0 || value > 100 {
		return 0, NewDomainError("shared", "NewPercentile", ErrValueOutOfRange, "percentile must be in [0, 100]")
	}
	return Percentile(value), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// ConfidenceInterval Value Object
// ═══════════════════════════════════════════════════════════════════════════

// ConfidenceInterval represents the uncertainty bounds of a prediction.
// The invariant Low <= Predicted <= High is enforced at construction.
type ConfidenceInterval struct {
	Low  float64
	High float64
}

// IsValid checks bounds ordering.
func (ci ConfidenceInterval) IsValid() bool {
	return ci.Low <= ci.High
}

// Width returns the interval width.
func (ci ConfidenceInterval) Width() float64 {
	return ci.High - ci.Low
}

// Brackets reports whether the interval brackets the given value.
func (ci ConfidenceInterval) Brackets(v float64) bool {
	return ci.Low <= v && v <= ci.High
}

// NewConfidenceInterval creates an interval centered on predicted, clamping
// the bounds so that Low <= predicted <= High always holds.
func NewConfidenceInterval(predicted, low, high float64) (ConfidenceInterval, error) {
	if low > high {
		return ConfidenceInterval{}, NewDomainError("shared", "NewConfidenceInterval", ErrValueOutOfRange, "interval low exceeds high")
	}
	if low > predicted {
		low = predicted
	}
	if high < predicted {
		high = predicted
	}
	return ConfidenceInterval{Low: low, High: high}, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Pagination Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Pagination represents pagination parameters.
type Pagination struct {
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// Offset returns the offset for database queries.
func (p Pagination) Offset() int {
	if p.Page <= 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

// Limit returns the limit for database queries.
func (p Pagination) Limit() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return p.PageSize
}

// NewPagination creates a new Pagination with defaults.
func NewPagination(page, pageSize int) Pagination {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Pagination{Page: page, PageSize: pageSize}
}
