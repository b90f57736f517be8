package query

import (
	"context"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/report"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXECUTION QUERIES
// Reads over the report execution history: one execution by ID, and the
// paginated list for a report.
// ══════════════════════════════════════════════════════════════════════════════

// ArtifactDTO describes one rendered artifact.
type ArtifactDTO struct {
	Format    string `json:"format"`
	Ref       string `json:"ref"`
	SizeBytes int64  `json:"size_bytes"`
}

// ExecutionDTO is the transport form of an execution.
type ExecutionDTO struct {
	ExecutionID  string        `json:"execution_id"`
	ReportID     string        `json:"report_id"`
	Status       string        `json:"status"`
	ScheduledFor *time.Time    `json:"scheduled_for,omitempty"`
	RequestedAt  time.Time     `json:"requested_at"`
	StartedAt    *time.Time    `json:"started_at,omitempty"`
	FinishedAt   *time.Time    `json:"finished_at,omitempty"`
	Error        string        `json:"error,omitempty"`
	Artifacts    []ArtifactDTO `json:"artifacts,omitempty"`
}

func toExecutionDTO(e *report.Execution) ExecutionDTO {
	artifacts := make([]ArtifactDTO, len(e.Artifacts))
	for i, a := range e.Artifacts {
		artifacts[i] = ArtifactDTO{Format: string(a.Format), Ref: a.Ref, SizeBytes: a.SizeBytes}
	}
	return ExecutionDTO{
		ExecutionID:  e.ID,
		ReportID:     e.ReportID,
		Status:       string(e.Status),
		ScheduledFor: e.ScheduledFor,
		RequestedAt:  e.RequestedAt,
		StartedAt:    e.StartedAt,
		FinishedAt:   e.FinishedAt,
		Error:        e.Error,
		Artifacts:    artifacts,
	}
}

// GetExecutionQuery identifies one execution.
type GetExecutionQuery struct {
	ExecutionID string
}

// GetExecutionHandler handles the GetExecutionQuery.
type GetExecutionHandler struct {
	execs report.ExecutionRepository
}

// NewGetExecutionHandler creates a new GetExecutionHandler.
func NewGetExecutionHandler(execs report.ExecutionRepository) *GetExecutionHandler {
	return &GetExecutionHandler{execs: execs}
}

// Handle executes the get execution query.
func (h *GetExecutionHandler) Handle(ctx context.Context, q GetExecutionQuery) (*ExecutionDTO, error) {
	exec, err := h.execs.Find(ctx, q.ExecutionID)
	if err != nil {
		return nil, err
	}
	dto := toExecutionDTO(exec)
	return &dto, nil
}

// ListExecutionsQuery lists a report's executions, newest first.
type ListExecutionsQuery struct {
	ReportID string
	Page     int
	PageSize int
}

// ListExecutionsResult contains one page of executions.
type ListExecutionsResult struct {
	ReportID   string         `json:"report_id"`
	Executions []ExecutionDTO `json:"executions"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
}

// ListExecutionsHandler handles the ListExecutionsQuery.
type ListExecutionsHandler struct {
	defs  report.DefinitionRepository
	execs report.ExecutionRepository
}

// NewListExecutionsHandler creates a new ListExecutionsHandler.
func NewListExecutionsHandler(defs report.DefinitionRepository, execs report.ExecutionRepository) *ListExecutionsHandler {
	return &ListExecutionsHandler{defs: defs, execs: execs}
}

// Handle executes the list executions query.
func (h *ListExecutionsHandler) Handle(ctx context.Context, q ListExecutionsQuery) (*ListExecutionsResult, error) {
	if _, err := h.defs.Find(ctx, q.ReportID); err != nil {
		return nil, err
	}

	p := shared.NewPagination(q.Page, q.PageSize)
	execs, err := h.execs.ListByReport(ctx, q.ReportID, p)
	if err != nil {
		return nil, err
	}

	dtos := make([]ExecutionDTO, len(execs))
	for i, e := range execs {
		dtos[i] = toExecutionDTO(e)
	}

	return &ListExecutionsResult{
		ReportID:   q.ReportID,
		Executions: dtos,
		Page:       p.Page,
		PageSize:   p.Limit(),
	}, nil
}
