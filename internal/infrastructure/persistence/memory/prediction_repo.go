package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/prepwise/prepwise-analytics/internal/domain/prediction"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// PredictionRepository is an in-memory prediction.Repository.
type PredictionRepository struct {
	mu     sync.RWMutex
	models map[string]*prediction.PredictiveModel
}

// NewPredictionRepository creates an empty in-memory prediction repository.
func NewPredictionRepository() *PredictionRepository {
	return &PredictionRepository{models: make(map[string]*prediction.PredictiveModel)}
}

// Save stores a newly generated model.
func (r *PredictionRepository) Save(ctx context.Context, m *prediction.PredictiveModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.models[m.ID]; exists {
		return shared.NewDomainError("prediction", "Save", shared.ErrAlreadyExists, "model ID already exists")
	}
	cp := *m
	r.models[m.ID] = &cp
	return nil
}

// Find returns a model by ID.
func (r *PredictionRepository) Find(ctx context.Context, id string) (*prediction.PredictiveModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.models[id]
	if !ok {
		return nil, shared.ErrModelNotFound
	}
	cp := *m
	return &cp, nil
}

// Update persists the validation fields of a validated model.
func (r *PredictionRepository) Update(ctx context.Context, m *prediction.PredictiveModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.models[m.ID]; !ok {
		return shared.ErrModelNotFound
	}
	cp := *m
	r.models[m.ID] = &cp
	return nil
}

// FindBySubject returns all models of one type for a subject, newest first.
func (r *PredictionRepository) FindBySubject(ctx context.Context, subjectID shared.SubjectID, modelType prediction.ModelType) ([]*prediction.PredictiveModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*prediction.PredictiveModel
	for _, m := range r.models {
		if m.SubjectID != subjectID || m.Type != modelType {
			continue
		}
		cp := *m
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].GeneratedAt.After(result[j].GeneratedAt)
	})
	return result, nil
}
