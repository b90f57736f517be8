package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/prepwise/prepwise-analytics/internal/domain/export"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// ExportRepository is an in-memory export.Repository.
type ExportRepository struct {
	mu      sync.RWMutex
	exports map[string]*export.DataExport
}

// NewExportRepository creates an empty in-memory export repository.
func NewExportRepository() *ExportRepository {
	return &ExportRepository{exports: make(map[string]*export.DataExport)}
}

// Create inserts a new pending export.
func (r *ExportRepository) Create(ctx context.Context, e *export.DataExport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.exports[e.ID]; exists {
		return shared.NewDomainError("export", "Create", shared.ErrAlreadyExists, "export ID already exists")
	}
	cp := *e
	r.exports[e.ID] = &cp
	return nil
}

// Update persists a state or progress change.
func (r *ExportRepository) Update(ctx context.Context, e *export.DataExport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.exports[e.ID]; !ok {
		return shared.ErrExportNotFound
	}
	cp := *e
	r.exports[e.ID] = &cp
	return nil
}

// Find returns an export by ID.
func (r *ExportRepository) Find(ctx context.Context, id string) (*export.DataExport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.exports[id]
	if !ok {
		return nil, shared.ErrExportNotFound
	}
	cp := *e
	return &cp, nil
}

// ListPending returns pending exports oldest first.
func (r *ExportRepository) ListPending(ctx context.Context, limit int) ([]*export.DataExport, error) {
	if limit <= 0 {
		limit = 10
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var pending []*export.DataExport
	for _, e := range r.exports {
		if e.Status != export.StatusPending {
			continue
		}
		cp := *e
		pending = append(pending, &cp)
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].RequestedAt.Before(pending[j].RequestedAt)
	})

	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}
