package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/report"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// ReportDefinitionRepository is an in-memory report.DefinitionRepository.
type ReportDefinitionRepository struct {
	mu   sync.RWMutex
	defs map[string]*report.Definition
}

// NewReportDefinitionRepository creates an empty in-memory definition
// repository.
func NewReportDefinitionRepository() *ReportDefinitionRepository {
	return &ReportDefinitionRepository{defs: make(map[string]*report.Definition)}
}

// Save inserts or updates a definition.
func (r *ReportDefinitionRepository) Save(ctx context.Context, d *report.Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *d
	r.defs[d.ID] = &cp
	return nil
}

// Find returns a definition by ID.
func (r *ReportDefinitionRepository) Find(ctx context.Context, id string) (*report.Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.defs[id]
	if !ok {
		return nil, shared.ErrReportNotFound
	}
	cp := *d
	return &cp, nil
}

// FindByOwner returns the definitions owned by a user.
func (r *ReportDefinitionRepository) FindByOwner(ctx context.Context, ownerID shared.SubjectID) ([]*report.Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*report.Definition
	for _, d := range r.defs {
		if d.OwnerID != ownerID {
			continue
		}
		cp := *d
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// FindScheduled returns all definitions with a non-empty schedule.
func (r *ReportDefinitionRepository) FindScheduled(ctx context.Context) ([]*report.Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*report.Definition
	for _, d := range r.defs {
		if !d.IsScheduled() {
			continue
		}
		cp := *d
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// Delete removes a definition; past executions are untouched.
func (r *ReportDefinitionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.defs[id]; !ok {
		return shared.ErrReportNotFound
	}
	delete(r.defs, id)
	return nil
}

// ReportExecutionRepository is an in-memory report.ExecutionRepository.
// A claim map mirrors the database's unique (report_id, scheduled_for)
// index so the scheduler's mutual exclusion holds in dev mode too.
type ReportExecutionRepository struct {
	mu     sync.RWMutex
	execs  map[string]*report.Execution
	claims map[string]string // tickKey → execution ID
}

// NewReportExecutionRepository creates an empty in-memory execution
// repository.
func NewReportExecutionRepository() *ReportExecutionRepository {
	return &ReportExecutionRepository{
		execs:  make(map[string]*report.Execution),
		claims: make(map[string]string),
	}
}

func tickKey(reportID string, tick time.Time) string {
	return reportID + "@" + tick.UTC().Truncate(time.Minute).Format(time.RFC3339)
}

// Create inserts a new pending execution, claiming its schedule tick.
func (r *ReportExecutionRepository) Create(ctx context.Context, e *report.Execution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ScheduledFor != nil {
		key := tickKey(e.ReportID, *e.ScheduledFor)
		if _, claimed := r.claims[key]; claimed {
			return shared.ErrDuplicateTick
		}
		r.claims[key] = e.ID
	}

	cp := *e
	r.execs[e.ID] = &cp
	return nil
}

// Update persists a state transition.
func (r *ReportExecutionRepository) Update(ctx context.Context, e *report.Execution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.execs[e.ID]; !ok {
		return shared.ErrExecutionNotFound
	}
	cp := *e
	r.execs[e.ID] = &cp
	return nil
}

// Find returns an execution by ID.
func (r *ReportExecutionRepository) Find(ctx context.Context, id string) (*report.Execution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.execs[id]
	if !ok {
		return nil, shared.ErrExecutionNotFound
	}
	cp := *e
	return &cp, nil
}

// FindByTick returns the execution claimed for a schedule tick.
func (r *ReportExecutionRepository) FindByTick(ctx context.Context, reportID string, tick time.Time) (*report.Execution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.claims[tickKey(reportID, tick)]
	if !ok {
		return nil, shared.ErrExecutionNotFound
	}
	cp := *r.execs[id]
	return &cp, nil
}

// ListByReport returns executions for a report, newest first.
func (r *ReportExecutionRepository) ListByReport(ctx context.Context, reportID string, p shared.Pagination) ([]*report.Execution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*report.Execution
	for _, e := range r.execs {
		if e.ReportID != reportID {
			continue
		}
		cp := *e
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].RequestedAt.After(result[j].RequestedAt)
	})

	offset := p.Offset()
	if offset >= len(result) {
		return []*report.Execution{}, nil
	}
	end := offset + p.Limit()
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], nil
}
