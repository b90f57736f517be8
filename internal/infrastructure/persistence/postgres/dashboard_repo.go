package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/dashboard"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DASHBOARD REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// DashboardRepository implements dashboard.Repository for PostgreSQL.
type DashboardRepository struct {
	conn *Connection
}

// NewDashboardRepository creates a new DashboardRepository.
func NewDashboardRepository(conn *Connection) *DashboardRepository {
	return &DashboardRepository{conn: conn}
}

// Get returns the owner's dashboard.
func (r *DashboardRepository) Get(ctx context.Context, ownerID shared.SubjectID) (*dashboard.AnalyticsDashboard, error) {
	query := `
		SELECT owner_id, widgets, refresh_interval_seconds, updated_at
		FROM dashboards
		WHERE owner_id = $1
	`

	var d dashboard.AnalyticsDashboard
	var rawOwner string
	var widgets []byte
	var refreshSeconds int

	err := r.conn.QueryRow(ctx, query, string(ownerID)).Scan(
		&rawOwner, &widgets, &refreshSeconds, &d.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrDashboardNotFound
		}
		return nil, fmt.Errorf("failed to get dashboard: %w", err)
	}

	d.OwnerID = shared.SubjectID(rawOwner)
	d.RefreshInterval = time.Duration(refreshSeconds) * time.Second
	if err := json.Unmarshal(widgets, &d.Widgets); err != nil {
		return nil, fmt.Errorf("failed to unmarshal widgets: %w", err)
	}
	return &d, nil
}

// Save upserts the owner's dashboard.
func (r *DashboardRepository) Save(ctx context.Context, d *dashboard.AnalyticsDashboard) error {
	widgets, err := json.Marshal(d.Widgets)
	if err != nil {
		return fmt.Errorf("failed to marshal widgets: %w", err)
	}

	query := `
		INSERT INTO dashboards (owner_id, widgets, refresh_interval_seconds, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner_id) DO UPDATE SET
			widgets = EXCLUDED.widgets,
			refresh_interval_seconds = EXCLUDED.refresh_interval_seconds,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.conn.Exec(ctx, query,
		string(d.OwnerID),
		widgets,
		int(d.RefreshInterval.Seconds()),
		d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save dashboard: %w", err)
	}
	return nil
}
