package query

import (
	"context"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/report"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST REPORTS QUERY
// Returns the report definitions owned by a user.
// ══════════════════════════════════════════════════════════════════════════════

// ListReportsQuery identifies the owner.
type ListReportsQuery struct {
	OwnerID string
}

// ReportDefinitionDTO is the transport form of a definition.
type ReportDefinitionDTO struct {
	ReportID     string    `json:"report_id"`
	Name         string    `json:"name"`
	SubjectID    string    `json:"subject_id"`
	LookbackDays int       `json:"lookback_days"`
	Schedule     string    `json:"schedule,omitempty"`
	Formats      []string  `json:"formats"`
	Recipients   []string  `json:"recipients,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ListReportsResult contains the owner's definitions.
type ListReportsResult struct {
	OwnerID string                `json:"owner_id"`
	Reports []ReportDefinitionDTO `json:"reports"`
}

// ListReportsHandler handles the ListReportsQuery.
type ListReportsHandler struct {
	defs report.DefinitionRepository
}

// NewListReportsHandler creates a new ListReportsHandler.
func NewListReportsHandler(defs report.DefinitionRepository) *ListReportsHandler {
	return &ListReportsHandler{defs: defs}
}

// Handle executes the list reports query.
func (h *ListReportsHandler) Handle(ctx context.Context, q ListReportsQuery) (*ListReportsResult, error) {
	ownerID, err := shared.NewSubjectID(q.OwnerID)
	if err != nil {
		return nil, err
	}

	defs, err := h.defs.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	reports := make([]ReportDefinitionDTO, len(defs))
	for i, d := range defs {
		formats := make([]string, len(d.Formats))
		for j, f := range d.Formats {
			formats[j] = string(f)
		}
		reports[i] = ReportDefinitionDTO{
			ReportID:     d.ID,
			Name:         d.Name,
			SubjectID:    string(d.SubjectID),
			LookbackDays: d.LookbackDays,
			Schedule:     d.Schedule,
			Formats:      formats,
			Recipients:   d.Recipients,
			CreatedAt:    d.CreatedAt,
			UpdatedAt:    d.UpdatedAt,
		}
	}

	return &ListReportsResult{OwnerID: string(ownerID), Reports: reports}, nil
}
