package redis

import (
	"context"
	"errors"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/comparison"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPARISON CACHE
// ══════════════════════════════════════════════════════════════════════════════

// ComparisonCache implements comparison.Cache on Redis. The TTL matches
// the configured freshness window, so an entry that is still present is
// by construction fresh enough to serve.
type ComparisonCache struct {
	cache  *Cache
	window time.Duration
}

// NewComparisonCache creates a comparison cache with the given freshness
// window as TTL.
func NewComparisonCache(cache *Cache, window time.Duration) *ComparisonCache {
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &ComparisonCache{cache: cache, window: window}
}

func comparisonKey(subjectID shared.SubjectID, metric shared.MetricName, def comparison.CohortDefinition) string {
	return PrefixComparison + string(subjectID) + ":" + string(metric) + ":" + def.Key()
}

// Get returns the cached analysis, or shared.ErrNotFound on a miss.
func (c *ComparisonCache) Get(ctx context.Context, subjectID shared.SubjectID, metric shared.MetricName, def comparison.CohortDefinition) (*comparison.ComparativeAnalysis, error) {
	var analysis comparison.ComparativeAnalysis
	err := c.cache.Get(ctx, comparisonKey(subjectID, metric, def), &analysis)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &analysis, nil
}

// Put stores an analysis for the freshness window.
func (c *ComparisonCache) Put(ctx context.Context, analysis *comparison.ComparativeAnalysis) error {
	key := comparisonKey(analysis.SubjectID, analysis.Metric, analysis.Definition)
	return c.cache.Set(ctx, key, analysis, c.window)
}
