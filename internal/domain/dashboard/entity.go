// Package dashboard contains the persisted dashboard configuration: widget
// layout and refresh preferences per owner. The presentation layer reads
// this; the core computes nothing from it.
package dashboard

import (
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// WidgetKind identifies what a widget renders.
type WidgetKind string

const (
	WidgetSeries     WidgetKind = "series"
	WidgetTrend      WidgetKind = "trend"
	WidgetAnomalies  WidgetKind = "anomalies"
	WidgetForecast   WidgetKind = "forecast"
	WidgetComparison WidgetKind = "comparison"
)

// IsValid checks if the widget kind is known.
func (k WidgetKind) IsValid() bool {
	switch k {
	case WidgetSeries, WidgetTrend, WidgetAnomalies, WidgetForecast, WidgetComparison:
		return true
	}
	return false
}

// Widget is one dashboard tile.
type Widget struct {
	Kind     WidgetKind        `json:"kind"`
	Metric   shared.MetricName `json:"metric"`
	Position int               `json:"position"`
	Width    int               `json:"width"` // grid columns, 1-12
}

// Validate checks the widget.
func (w Widget) Validate() error {
	if !w.Kind.IsValid() {
		return shared.ErrInvalidWidget
	}
	if !w.Metric.IsValid() {
		return shared.NewDomainError("dashboard", "Validate", shared.ErrInvalidFormat, "invalid metric name in widget")
	}
	if w.Width < 1 || w.Width > 12 {
		return shared.NewDomainError("dashboard", "Validate", shared.ErrValueOutOfRange, "widget width must be 1-12")
	}
	return nil
}

// AnalyticsDashboard is one owner's dashboard configuration.
type AnalyticsDashboard struct {
	OwnerID         shared.SubjectID `json:"owner_id"`
	Widgets         []Widget         `json:"widgets"`
	RefreshInterval time.Duration    `json:"refresh_interval"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Default returns the dashboard shown to owners who never saved one.
func Default(ownerID shared.SubjectID) *AnalyticsDashboard {
	return &AnalyticsDashboard{
		OwnerID: ownerID,
		Widgets: []Widget{
			{Kind: WidgetSeries, Metric: "overall_band", Position: 0, Width: 12},
			{Kind: WidgetTrend, Metric: "overall_band", Position: 1, Width: 6},
			{Kind: WidgetComparison, Metric: "overall_band", Position: 2, Width: 6},
		},
		RefreshInterval: 5 * time.Minute,
		UpdatedAt:       time.Now().UTC(),
	}
}

// Validate checks the whole configuration.
func (d *AnalyticsDashboard) Validate() error {
	if !d.OwnerID.IsValid() {
		return shared.NewDomainError("dashboard", "Validate", shared.ErrInvalidID, "invalid owner ID")
	}
	if d.RefreshInterval < 30*time.Second {
		return shared.NewDomainError("dashboard", "Validate", shared.ErrValueOutOfRange, "refresh interval must be at least 30s")
	}
	for _, w := range d.Widgets {
		if err := w.Validate(); err != nil {
			return err
		}
	}
	return nil
}
