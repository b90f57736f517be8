package query

import (
	"context"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/export"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET EXPORT QUERY
// Returns an export job's status and, once completed, its artifact ref.
// ══════════════════════════════════════════════════════════════════════════════

// GetExportQuery identifies one export.
type GetExportQuery struct {
	ExportID string
}

// GetExportResult contains the export state.
type GetExportResult struct {
	ExportID    string     `json:"export_id"`
	Status      string     `json:"status"`
	ProgressPct int        `json:"progress_pct"`
	ArtifactRef string     `json:"artifact_ref,omitempty"`
	Error       string     `json:"error,omitempty"`
	RequestedAt time.Time  `json:"requested_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// GetExportHandler handles the GetExportQuery.
type GetExportHandler struct {
	exports export.Repository
}

// NewGetExportHandler creates a new GetExportHandler.
func NewGetExportHandler(exports export.Repository) *GetExportHandler {
	return &GetExportHandler{exports: exports}
}

// Handle executes the get export query.
func (h *GetExportHandler) Handle(ctx context.Context, q GetExportQuery) (*GetExportResult, error) {
	exp, err := h.exports.Find(ctx, q.ExportID)
	if err != nil {
		return nil, err
	}

	return &GetExportResult{
		ExportID:    exp.ID,
		Status:      string(exp.Status),
		ProgressPct: exp.ProgressPct,
		ArtifactRef: exp.ArtifactRef,
		Error:       exp.Error,
		RequestedAt: exp.RequestedAt,
		FinishedAt:  exp.FinishedAt,
	}, nil
}
