package command

import (
	"context"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/dashboard"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SAVE DASHBOARD COMMAND
// Upserts an owner's dashboard configuration. The analytics core stores the
// layout verbatim after validation; it computes nothing from it.
// ══════════════════════════════════════════════════════════════════════════════

// WidgetInput is one dashboard tile in transport form.
type WidgetInput struct {
	Kind     string `json:"kind"`
	Metric   string `json:"metric"`
	Position int    `json:"position"`
	Width    int    `json:"width"`
}

// SaveDashboardCommand contains the configuration to save.
type SaveDashboardCommand struct {
	OwnerID         string
	Widgets         []WidgetInput
	RefreshInterval time.Duration
}

// SaveDashboardResult confirms the save.
type SaveDashboardResult struct {
	OwnerID   string    `json:"owner_id"`
	Widgets   int       `json:"widgets"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SaveDashboardHandler handles the SaveDashboardCommand.
type SaveDashboardHandler struct {
	dashboards dashboard.Repository
}

// NewSaveDashboardHandler creates a new SaveDashboardHandler.
func NewSaveDashboardHandler(dashboards dashboard.Repository) *SaveDashboardHandler {
	return &SaveDashboardHandler{dashboards: dashboards}
}

// Handle executes the save dashboard command.
func (h *SaveDashboardHandler) Handle(ctx context.Context, cmd SaveDashboardCommand) (*SaveDashboardResult, error) {
	ownerID, err := shared.NewSubjectID(cmd.OwnerID)
	if err != nil {
		return nil, err
	}

	widgets := make([]dashboard.Widget, 0, len(cmd.Widgets))
	for _, in := range cmd.Widgets {
		widgets = append(widgets, dashboard.Widget{
			Kind:     dashboard.WidgetKind(in.Kind),
			Metric:   shared.MetricName(in.Metric),
			Position: in.Position,
			Width:    in.Width,
		})
	}

	d := &dashboard.AnalyticsDashboard{
		OwnerID:         ownerID,
		Widgets:         widgets,
		RefreshInterval: cmd.RefreshInterval,
		UpdatedAt:       time.Now().UTC(),
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	if err := h.dashboards.Save(ctx, d); err != nil {
		return nil, err
	}

	return &SaveDashboardResult{
		OwnerID:   string(d.OwnerID),
		Widgets:   len(d.Widgets),
		UpdatedAt: d.UpdatedAt,
	}, nil
}
