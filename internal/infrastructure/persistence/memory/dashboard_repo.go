package memory

import (
	"context"
	"sync"

	"github.com/prepwise/prepwise-analytics/internal/domain/dashboard"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// DashboardRepository is an in-memory dashboard.Repository.
type DashboardRepository struct {
	mu         sync.RWMutex
	dashboards map[shared.SubjectID]*dashboard.AnalyticsDashboard
}

// NewDashboardRepository creates an empty in-memory dashboard repository.
func NewDashboardRepository() *DashboardRepository {
	return &DashboardRepository{
		dashboards: make(map[shared.SubjectID]*dashboard.AnalyticsDashboard),
	}
}

// Get returns the owner's dashboard.
func (r *DashboardRepository) Get(ctx context.Context, ownerID shared.SubjectID) (*dashboard.AnalyticsDashboard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.dashboards[ownerID]
	if !ok {
		return nil, shared.ErrDashboardNotFound
	}
	cp := *d
	return &cp, nil
}

// Save upserts the owner's dashboard.
func (r *DashboardRepository) Save(ctx context.Context, d *dashboard.AnalyticsDashboard) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *d
	r.dashboards[d.OwnerID] = &cp
	return nil
}
