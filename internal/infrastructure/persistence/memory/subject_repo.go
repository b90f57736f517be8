// Package memory provides in-memory repository implementations. They
// back the development mode (no DATABASE_URL) and the test suites, and
// honor the same contracts as the PostgreSQL repositories: idempotent
// ingestion writes, half-open range queries, and unique schedule ticks.
package memory

import (
	"context"
	"sync"

	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
	"github.com/prepwise/prepwise-analytics/internal/domain/subject"
)

// SubjectRepository is an in-memory subject.Repository.
type SubjectRepository struct {
	mu       sync.RWMutex
	subjects map[shared.SubjectID]*subject.Subject
}

// NewSubjectRepository creates an empty in-memory subject repository.
func NewSubjectRepository() *SubjectRepository {
	return &SubjectRepository{subjects: make(map[shared.SubjectID]*subject.Subject)}
}

// Register stores a subject; re-registering an ID is a no-op.
func (r *SubjectRepository) Register(ctx context.Context, s *subject.Subject) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.subjects[s.ID]; exists {
		return nil
	}
	cp := *s
	r.subjects[s.ID] = &cp
	return nil
}

// Find returns a subject by ID.
func (r *SubjectRepository) Find(ctx context.Context, id shared.SubjectID) (*subject.Subject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.subjects[id]
	if !ok {
		return nil, shared.ErrSubjectNotFound
	}
	cp := *s
	return &cp, nil
}

// Exists reports whether a subject is registered.
func (r *SubjectRepository) Exists(ctx context.Context, id shared.SubjectID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.subjects[id]
	return ok, nil
}

// FindPeers returns subject IDs matching the cohort filter.
func (r *SubjectRepository) FindPeers(ctx context.Context, filter subject.CohortFilter) ([]shared.SubjectID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var peers []shared.SubjectID
	for id, s := range r.subjects {
		if id == filter.ExcludeSubject {
			continue
		}
		if filter.Cohort != "" && s.Cohort != filter.Cohort {
			continue
		}
		if filter.Band != "" && s.Band != filter.Band {
			continue
		}
		if filter.OnlyActive && !s.Active {
			continue
		}
		peers = append(peers, id)
	}
	return peers, nil
}
