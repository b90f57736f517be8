package comparison

import (
	"context"

	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// Cache stores computed comparative analyses for the freshness window.
// A miss (or a disabled cache) simply triggers recomputation; cache errors
// are never surfaced to the caller as comparison failures.
type Cache interface {
	// Get returns the cached analysis, or shared.ErrNotFound on a miss.
	Get(ctx context.Context, subjectID shared.SubjectID, metric shared.MetricName, def CohortDefinition) (*ComparativeAnalysis, error)

	// Put stores an analysis for the freshness window.
	Put(ctx context.Context, analysis *ComparativeAnalysis) error
}
