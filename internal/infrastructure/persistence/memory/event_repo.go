package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/event"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// EventRepository is an in-memory event.Repository.
type EventRepository struct {
	mu     sync.RWMutex
	events map[string]*event.Event
}

// NewEventRepository creates an empty in-memory event repository.
func NewEventRepository() *EventRepository {
	return &EventRepository{events: make(map[string]*event.Event)}
}

// Record appends an event; a duplicate ID is a no-op.
func (r *EventRepository) Record(ctx context.Context, e *event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.events[e.ID]; exists {
		return nil
	}
	cp := *e
	r.events[e.ID] = &cp
	return nil
}

// Query returns a subject's events inside the half-open range, oldest
// first. Category is optional.
func (r *EventRepository) Query(ctx context.Context, subjectID shared.SubjectID, category event.Category, tr shared.TimeRange) ([]*event.Event, error) {
	if !tr.IsValid() {
		return nil, shared.ErrMalformedTimeRange
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*event.Event, 0)
	for _, e := range r.events {
		if e.SubjectID != subjectID {
			continue
		}
		if category != "" && e.Category != category {
			continue
		}
		if !tr.Contains(e.OccurredAt) {
			continue
		}
		cp := *e
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].OccurredAt.Before(result[j].OccurredAt)
	})
	return result, nil
}

// PruneBefore deletes events older than the cutoff.
func (r *EventRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var pruned int64
	for id, e := range r.events {
		if e.OccurredAt.Before(cutoff) {
			delete(r.events, id)
			pruned++
		}
	}
	return pruned, nil
}
