package memory

import (
	"context"
	"sync"

	"github.com/prepwise/prepwise-analytics/internal/domain/metric"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// MetricRepository is an in-memory metric.Repository.
type MetricRepository struct {
	mu      sync.RWMutex
	metrics map[string]*metric.Metric
}

// NewMetricRepository creates an empty in-memory metric repository.
func NewMetricRepository() *MetricRepository {
	return &MetricRepository{metrics: make(map[string]*metric.Metric)}
}

// Record appends a metric point; a duplicate ID is a no-op.
func (r *MetricRepository) Record(ctx context.Context, m *metric.Metric) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.metrics[m.ID]; exists {
		return nil
	}
	cp := *m
	r.metrics[m.ID] = &cp
	return nil
}

// QuerySeries returns the time-ordered series inside the half-open range.
func (r *MetricRepository) QuerySeries(ctx context.Context, subjectID shared.SubjectID, name shared.MetricName, tr shared.TimeRange) (metric.Series, error) {
	if !tr.IsValid() {
		return metric.Series{}, shared.ErrMalformedTimeRange
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	points := make([]metric.Point, 0)
	for _, m := range r.metrics {
		if m.SubjectID != subjectID || m.Name != name {
			continue
		}
		if !tr.Contains(m.RecordedAt) {
			continue
		}
		points = append(points, metric.Point{Timestamp: m.RecordedAt, Value: m.Value})
	}

	return metric.NewSeries(subjectID, name, points), nil
}

// LatestValue returns the most recent point of a metric for a subject.
func (r *MetricRepository) LatestValue(ctx context.Context, subjectID shared.SubjectID, name shared.MetricName) (metric.Point, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *metric.Metric
	for _, m := range r.metrics {
		if m.SubjectID != subjectID || m.Name != name {
			continue
		}
		if latest == nil || m.RecordedAt.After(latest.RecordedAt) {
			latest = m
		}
	}
	if latest == nil {
		return metric.Point{}, shared.ErrMetricNotFound
	}
	return metric.Point{Timestamp: latest.RecordedAt, Value: latest.Value}, nil
}

// LatestValues returns each subject's most recent value of the metric.
func (r *MetricRepository) LatestValues(ctx context.Context, subjectIDs []shared.SubjectID, name shared.MetricName) (map[shared.SubjectID]float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[shared.SubjectID]bool, len(subjectIDs))
	for _, id := range subjectIDs {
		wanted[id] = true
	}

	latest := make(map[shared.SubjectID]*metric.Metric)
	for _, m := range r.metrics {
		if !wanted[m.SubjectID] || m.Name != name {
			continue
		}
		if prev, ok := latest[m.SubjectID]; !ok || m.RecordedAt.After(prev.RecordedAt) {
			latest[m.SubjectID] = m
		}
	}

	result := make(map[shared.SubjectID]float64, len(latest))
	for id, m := range latest {
		result[id] = m.Value
	}
	return result, nil
}
