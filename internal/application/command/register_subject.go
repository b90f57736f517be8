package command

import (
	"context"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
	"github.com/prepwise/prepwise-analytics/internal/domain/subject"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER SUBJECT COMMAND
// Registers a learner in the analytics registry. Registration is idempotent:
// repeating an ID is a no-op, so the upstream platform can sync blindly.
// ══════════════════════════════════════════════════════════════════════════════

// RegisterSubjectCommand contains the data to register a subject.
type RegisterSubjectCommand struct {
	// SubjectID is the learner's UUID.
	SubjectID string

	// ExternalRef is the learner's identifier on the practice platform.
	ExternalRef string

	// Cohort is the enrollment period, e.g. "2026-spring".
	Cohort string

	// Band is the proficiency band (foundation, intermediate, upper, advanced).
	Band string

	// EnrolledAt is when the learner enrolled; zero means now.
	EnrolledAt time.Time
}

// RegisterSubjectResult contains the result of registering a subject.
type RegisterSubjectResult struct {
	SubjectID  string    `json:"subject_id"`
	Cohort     string    `json:"cohort"`
	Band       string    `json:"band"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// RegisterSubjectHandler handles the RegisterSubjectCommand.
type RegisterSubjectHandler struct {
	subjects subject.Repository
}

// NewRegisterSubjectHandler creates a new RegisterSubjectHandler.
func NewRegisterSubjectHandler(subjects subject.Repository) *RegisterSubjectHandler {
	return &RegisterSubjectHandler{subjects: subjects}
}

// Handle executes the register subject command.
func (h *RegisterSubjectHandler) Handle(ctx context.Context, cmd RegisterSubjectCommand) (*RegisterSubjectResult, error) {
	subjectID, err := shared.NewSubjectID(cmd.SubjectID)
	if err != nil {
		return nil, err
	}
	cohort, err := shared.NewCohort(cmd.Cohort)
	if err != nil {
		return nil, err
	}
	band, err := subject.ParseBand(cmd.Band)
	if err != nil {
		return nil, err
	}

	s, err := subject.NewSubject(subjectID, cmd.ExternalRef, cohort, band, cmd.EnrolledAt)
	if err != nil {
		return nil, err
	}

	if err := h.subjects.Register(ctx, s); err != nil {
		return nil, err
	}

	return &RegisterSubjectResult{
		SubjectID:  string(s.ID),
		Cohort:     string(s.Cohort),
		Band:       string(s.Band),
		EnrolledAt: s.EnrolledAt,
	}, nil
}
