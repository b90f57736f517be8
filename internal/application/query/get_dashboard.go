package query

import (
	"context"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/dashboard"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET DASHBOARD QUERY
// Returns the owner's dashboard configuration, falling back to the default
// layout when none was ever saved.
// ══════════════════════════════════════════════════════════════════════════════

// GetDashboardQuery identifies the dashboard owner.
type GetDashboardQuery struct {
	OwnerID string
}

// WidgetDTO is one dashboard tile in transport form.
type WidgetDTO struct {
	Kind     string `json:"kind"`
	Metric   string `json:"metric"`
	Position int    `json:"position"`
	Width    int    `json:"width"`
}

// GetDashboardResult contains the configuration.
type GetDashboardResult struct {
	OwnerID         string      `json:"owner_id"`
	Widgets         []WidgetDTO `json:"widgets"`
	RefreshInterval string      `json:"refresh_interval"`
	UpdatedAt       time.Time   `json:"updated_at"`
	IsDefault       bool        `json:"is_default"`
}

// GetDashboardHandler handles the GetDashboardQuery.
type GetDashboardHandler struct {
	dashboards dashboard.Repository
}

// NewGetDashboardHandler creates a new GetDashboardHandler.
func NewGetDashboardHandler(dashboards dashboard.Repository) *GetDashboardHandler {
	return &GetDashboardHandler{dashboards: dashboards}
}

// Handle executes the get dashboard query.
func (h *GetDashboardHandler) Handle(ctx context.Context, q GetDashboardQuery) (*GetDashboardResult, error) {
	ownerID, err := shared.NewSubjectID(q.OwnerID)
	if err != nil {
		return nil, err
	}

	isDefault := false
	d, err := h.dashboards.Get(ctx, ownerID)
	if err != nil {
		if !shared.IsNotFound(err) {
			return nil, err
		}
		d = dashboard.Default(ownerID)
		isDefault = true
	}

	widgets := make([]WidgetDTO, len(d.Widgets))
	for i, w := range d.Widgets {
		widgets[i] = WidgetDTO{
			Kind:     string(w.Kind),
			Metric:   string(w.Metric),
			Position: w.Position,
			Width:    w.Width,
		}
	}

	return &GetDashboardResult{
		OwnerID:         string(d.OwnerID),
		Widgets:         widgets,
		RefreshInterval: d.RefreshInterval.String(),
		UpdatedAt:       d.UpdatedAt,
		IsDefault:       isDefault,
	}, nil
}
