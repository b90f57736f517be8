// Package metric contains derived performance metrics and the time-series
// view the statistical engine operates on. Metrics are append-only:
// corrections are recorded as new points, never edits.
// This is a pure domain layer with zero external dependencies.
package metric

import (
	"math"
	"strings"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// Module is the skill area a metric belongs to (listening, reading, ...).
type Module string

const (
	ModuleListening Module = "listening"
	ModuleReading   Module = "reading"
	ModuleWriting   Module = "writing"
	ModuleSpeaking  Module = "speaking"
	ModuleOverall   Module = "overall"
)

// IsValid checks if the module is known.
func (m Module) IsValid() bool {
	switch m {
	case ModuleListening, ModuleReading, ModuleWriting, ModuleSpeaking, ModuleOverall:
		return true
	}
	return false
}

// String returns the string representation.
func (m Module) String() string {
	return string(m)
}

// ParseModule parses a module from its string form.
func ParseModule(s string) (Module, error) {
	m := Module(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", shared.NewDomainError("metric", "ParseModule", shared.ErrInvalidInput, "unknown module")
	}
	return m, nil
}

// Metric is a single recorded measurement. The ID is supplied by the
// instrumentation client so retried writes can be deduplicated.
type Metric struct {
	ID         string
	SubjectID  shared.SubjectID
	Name       shared.MetricName
	Module     Module
	Value      float64
	RecordedAt time.Time
	Metadata   map[string]string
}

// NewMetric creates a new Metric with validation.
func NewMetric(id string, subjectID shared.SubjectID, name shared.MetricName, module Module, value float64, recordedAt time.Time) (*Metric, error) {
	if strings.TrimSpace(id) == "" {
		return nil, shared.NewDomainError("metric", "New", shared.ErrInvalidID, "metric ID is required")
	}
	if !subjectID.IsValid() {
		return nil, shared.NewDomainError("metric", "New", shared.ErrInvalidID, "invalid subject ID")
	}
	if !name.IsValid() {
		return nil, shared.NewDomainError("metric", "New", shared.ErrInvalidFormat, "invalid metric name")
	}
	if !module.IsValid() {
		return nil, shared.NewDomainError("metric", "New", shared.ErrInvalidInput, "invalid module")
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, shared.NewDomainError("metric", "New", shared.ErrInvalidInput, "metric value must be finite")
	}
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}
	if recordedAt.After(time.Now().Add(time.Minute)) {
		return nil, shared.NewDomainError("metric", "New", shared.ErrFutureTimestamp, "metric recorded_at is in the future")
	}

	return &Metric{
		ID:         strings.TrimSpace(id),
		SubjectID:  subjectID,
		Name:       name,
		Module:     module,
		Value:      value,
		RecordedAt: recordedAt.UTC(),
		Metadata:   make(map[string]string),
	}, nil
}
