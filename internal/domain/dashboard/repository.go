package dashboard

import (
	"context"

	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// Repository persists dashboard configurations, keyed by owner.
type Repository interface {
	// Get returns the owner's dashboard, or shared.ErrDashboardNotFound
	// when none was ever saved (callers fall back to Default).
	Get(ctx context.Context, ownerID shared.SubjectID) (*AnalyticsDashboard, error)

	// Save upserts the owner's dashboard.
	Save(ctx context.Context, d *AnalyticsDashboard) error
}
