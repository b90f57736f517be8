// Package comparison contains comparative analysis: benchmarking one
// subject's metrics against a peer cohort. Results are treated as cache
// entries with a freshness window and recomputed on demand.
package comparison

import (
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
	"github.com/prepwise/prepwise-analytics/internal/domain/subject"
)

// DefaultMinCohortSize is the smallest peer set that yields a meaningful
// percentile; below it the comparison reports cohort-too-small instead of
// a misleading 0th/100th percentile. Configurable, not an invariant.
const DefaultMinCohortSize = 5

// CohortDefinition describes how the peer set was selected.
type CohortDefinition struct {
	Cohort shared.Cohort          `json:"cohort,omitempty"`
	Band   subject.ProficiencyBand `json:"band,omitempty"`
}

// IsZero reports whether no selection criteria were given.
func (d CohortDefinition) IsZero() bool {
	return d.Cohort == "" && d.Band == ""
}

// Key returns a stable cache-key fragment for the definition.
func (d CohortDefinition) Key() string {
	return string(d.Cohort) + "|" + string(d.Band)
}

// CohortStats summarizes the peer distribution.
type CohortStats struct {
	Size   int     `json:"size"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// ComparativeAnalysis is one benchmark result.
type ComparativeAnalysis struct {
	ID          string            `json:"id"`
	SubjectID   shared.SubjectID  `json:"subject_id"`
	Metric      shared.MetricName `json:"metric"`
	Definition  CohortDefinition  `json:"cohort_definition"`
	SubjectValue float64          `json:"subject_value"`
	Percentile  shared.Percentile `json:"subject_percentile"`
	Stats       CohortStats       `json:"cohort_stats"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// IsFresh reports whether the analysis is younger than the freshness window.
func (c *ComparativeAnalysis) IsFresh(window time.Duration, now time.Time) bool {
	if window <= 0 {
		return false
	}
	return now.Sub(c.GeneratedAt) < window
}
