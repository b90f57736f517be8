// Package subject contains the subject (learner) registry used for
// write-time referential integrity: every event and metric must reference
// a registered subject. This is a pure domain layer with zero external
// dependencies.
package subject

import (
	"strings"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// ProficiencyBand buckets subjects by current skill level; used together
// with the cohort to select peer sets for comparative analysis.
type ProficiencyBand string

const (
	BandFoundation   ProficiencyBand = "foundation"
	BandIntermediate ProficiencyBand = "intermediate"
	BandUpper        ProficiencyBand = "upper"
	BandAdvanced     ProficiencyBand = "advanced"
)

// IsValid checks if the band is one of the known values.
func (b ProficiencyBand) IsValid() bool {
	switch b {
	case BandFoundation, BandIntermediate, BandUpper, BandAdvanced:
		return true
	}
	return false
}

// String returns the string representation.
func (b ProficiencyBand) String() string {
	return string(b)
}

// ParseBand parses a proficiency band from its string form.
func ParseBand(s string) (ProficiencyBand, error) {
	b := ProficiencyBand(strings.ToLower(strings.TrimSpace(s)))
	if !b.IsValid() {
		return "", shared.NewDomainError("subject", "ParseBand", shared.ErrInvalidInput, "unknown proficiency band")
	}
	return b, nil
}

// Subject is a registered learner on the practice platform. The analytics
// core only needs the attributes that drive cohort selection; profile data
// lives with the external platform.
type Subject struct {
	ID          shared.SubjectID
	ExternalRef string // identifier on the practice platform
	Cohort      shared.Cohort
	Band        ProficiencyBand
	EnrolledAt  time.Time
	Active      bool
}

// NewSubject creates a new Subject with validation.
func NewSubject(id shared.SubjectID, externalRef string, cohort shared.Cohort, band ProficiencyBand, enrolledAt time.Time) (*Subject, error) {
	if !id.IsValid() {
		return nil, shared.NewDomainError("subject", "New", shared.ErrInvalidID, "invalid subject ID")
	}
	if !cohort.IsValid() {
		return nil, shared.NewDomainError("subject", "New", shared.ErrInvalidFormat, "invalid cohort")
	}
	if !band.IsValid() {
		return nil, shared.NewDomainError("subject", "New", shared.ErrInvalidInput, "invalid proficiency band")
	}
	if enrolledAt.IsZero() {
		enrolledAt = time.Now().UTC()
	}

	return &Subject{
		ID:          id,
		ExternalRef: strings.TrimSpace(externalRef),
		Cohort:      cohort,
		Band:        band,
		EnrolledAt:  enrolledAt.UTC(),
		Active:      true,
	}, nil
}

// Deactivate marks the subject inactive. Inactive subjects keep their data
// but drop out of peer cohorts.
func (s *Subject) Deactivate() {
	s.Active = false
}
