package memory

import (
	"context"
	"sync"

	"github.com/prepwise/prepwise-analytics/internal/domain/comparison"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// ComparisonCache is an in-memory comparison.Cache used when Redis is
// disabled. Freshness is still enforced by the caller; entries here are
// simply overwritten on Put.
type ComparisonCache struct {
	mu      sync.RWMutex
	entries map[string]*comparison.ComparativeAnalysis
}

// NewComparisonCache creates an empty in-memory comparison cache.
func NewComparisonCache() *ComparisonCache {
	return &ComparisonCache{entries: make(map[string]*comparison.ComparativeAnalysis)}
}

func cacheKey(subjectID shared.SubjectID, metric shared.MetricName, def comparison.CohortDefinition) string {
	return string(subjectID) + "|" + string(metric) + "|" + def.Key()
}

// Get returns the cached analysis, or shared.ErrNotFound on a miss.
func (c *ComparisonCache) Get(ctx context.Context, subjectID shared.SubjectID, metric shared.MetricName, def comparison.CohortDefinition) (*comparison.ComparativeAnalysis, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	a, ok := c.entries[cacheKey(subjectID, metric, def)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

// Put stores an analysis.
func (c *ComparisonCache) Put(ctx context.Context, analysis *comparison.ComparativeAnalysis) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cp := *analysis
	c.entries[cacheKey(analysis.SubjectID, analysis.Metric, analysis.Definition)] = &cp
	return nil
}
