package command

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/prepwise/prepwise-analytics/internal/domain/export"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST EXPORT COMMAND
// Enqueues a raw-data export. The worker drains the queue asynchronously;
// the caller polls the export status until it reaches a terminal state.
// ══════════════════════════════════════════════════════════════════════════════

// RequestExportCommand contains the data to enqueue an export.
type RequestExportCommand struct {
	// RequesterID is the user asking for the data.
	RequesterID string

	// Kind selects the record type: "metrics" or "events".
	Kind string

	// SubjectID scopes the export to one learner.
	SubjectID string

	// Metric names the series for metrics exports.
	Metric string

	// Category filters events exports; empty matches all.
	Category string

	// From and To bound the half-open time range [From, To).
	From time.Time
	To   time.Time

	// Format is the output format: "json" or "csv".
	Format string
}

// RequestExportResult contains the queued export's identity.
type RequestExportResult struct {
	ExportID    string    `json:"export_id"`
	Status      string    `json:"status"`
	RequestedAt time.Time `json:"requested_at"`
}

// RequestExportHandler handles the RequestExportCommand.
type RequestExportHandler struct {
	exports export.Repository
}

// NewRequestExportHandler creates a new RequestExportHandler.
func NewRequestExportHandler(exports export.Repository) *RequestExportHandler {
	return &RequestExportHandler{exports: exports}
}

// Handle executes the request export command.
func (h *RequestExportHandler) Handle(ctx context.Context, cmd RequestExportCommand) (*RequestExportResult, error) {
	requesterID, err := shared.NewSubjectID(cmd.RequesterID)
	if err != nil {
		return nil, err
	}
	subjectID, err := shared.NewSubjectID(cmd.SubjectID)
	if err != nil {
		return nil, err
	}
	format, err := export.ParseFormat(cmd.Format)
	if err != nil {
		return nil, err
	}
	tr, err := shared.NewTimeRange(cmd.From, cmd.To)
	if err != nil {
		return nil, err
	}

	scope := export.Scope{
		Kind:      export.Kind(cmd.Kind),
		SubjectID: subjectID,
		Metric:    shared.MetricName(cmd.Metric),
		Category:  cmd.Category,
		Range:     tr,
	}

	exp, err := export.NewDataExport(uuid.NewString(), requesterID, scope, format)
	if err != nil {
		return nil, err
	}

	if err := h.exports.Create(ctx, exp); err != nil {
		return nil, err
	}

	return &RequestExportResult{
		ExportID:    exp.ID,
		Status:      string(exp.Status),
		RequestedAt: exp.RequestedAt,
	}, nil
}
