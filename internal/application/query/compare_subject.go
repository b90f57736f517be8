package query

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/prepwise/prepwise-analytics/internal/domain/comparison"
	"github.com/prepwise/prepwise-analytics/internal/domain/metric"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
	"github.com/prepwise/prepwise-analytics/internal/domain/subject"
	"github.com/prepwise/prepwise-analytics/pkg/metrics"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPARE SUBJECT QUERY
// Benchmarks one subject's latest metric value against a peer cohort.
// Results are cached for a freshness window; a cohort below the minimum
// size yields a typed cohort-too-small outcome, never a fake percentile.
// ══════════════════════════════════════════════════════════════════════════════

// CompareSubjectQuery contains the comparison request parameters.
type CompareSubjectQuery struct {
	SubjectID string
	Metric    string

	// Cohort and Band narrow the peer set; both empty defaults to the
	// subject's own cohort and band.
	Cohort string
	Band   string
}

// CompareSubjectResult contains the comparative analysis.
type CompareSubjectResult struct {
	SubjectID    string  `json:"subject_id"`
	Metric       string  `json:"metric"`
	SubjectValue float64 `json:"subject_value"`
	Percentile   float64 `json:"percentile"`

	CohortSize   int     `json:"cohort_size"`
	CohortMean   float64 `json:"cohort_mean"`
	CohortMedian float64 `json:"cohort_median"`
	CohortStdDev float64 `json:"cohort_std_dev"`

	GeneratedAt time.Time `json:"generated_at"`
	FromCache   bool      `json:"from_cache"`
}

// CompareSubjectHandlerConfig tunes the comparison behavior.
type CompareSubjectHandlerConfig struct {
	MinCohortSize   int
	FreshnessWindow time.Duration
}

// CompareSubjectHandler handles the CompareSubjectQuery. It also backs the
// report engine's comparison sections, so scheduled reports and the API
// share one code path and one cache.
type CompareSubjectHandler struct {
	subjects subject.Repository
	metrics  metric.Repository
	cache    comparison.Cache
	monitor  *metrics.Manager

	minCohortSize int
	freshness     time.Duration
}

// NewCompareSubjectHandler creates a new CompareSubjectHandler.
func NewCompareSubjectHandler(subjects subject.Repository, metricRepo metric.Repository, cache comparison.Cache, monitor *metrics.Manager, cfg CompareSubjectHandlerConfig) *CompareSubjectHandler {
	if cfg.MinCohortSize <= 0 {
		cfg.MinCohortSize = comparison.DefaultMinCohortSize
	}
	if cfg.FreshnessWindow <= 0 {
		cfg.FreshnessWindow = 15 * time.Minute
	}
	return &CompareSubjectHandler{
		subjects:      subjects,
		metrics:       metricRepo,
		cache:         cache,
		monitor:       monitor,
		minCohortSize: cfg.MinCohortSize,
		freshness:     cfg.FreshnessWindow,
	}
}

// Handle executes the compare subject query.
func (h *CompareSubjectHandler) Handle(ctx context.Context, q CompareSubjectQuery) (*CompareSubjectResult, error) {
	subjectID, err := shared.NewSubjectID(q.SubjectID)
	if err != nil {
		return nil, err
	}
	name, err := shared.NewMetricName(q.Metric)
	if err != nil {
		return nil, err
	}

	def := comparison.CohortDefinition{
		Cohort: shared.Cohort(q.Cohort),
		Band:   subject.ProficiencyBand(q.Band),
	}
	if q.Cohort != "" && !def.Cohort.IsValid() {
		return nil, shared.NewDomainError("comparison", "Compare", shared.ErrInvalidFormat, "invalid cohort")
	}
	if q.Band != "" && !def.Band.IsValid() {
		return nil, shared.NewDomainError("comparison", "Compare", shared.ErrInvalidInput, "unknown proficiency band")
	}

	fromCache := true
	result, err := h.compareCached(ctx, subjectID, name, def, func() { fromCache = false })
	if err != nil {
		return nil, err
	}

	return &CompareSubjectResult{
		SubjectID:    string(result.SubjectID),
		Metric:       string(result.Metric),
		SubjectValue: result.SubjectValue,
		Percentile:   result.Percentile.Float64(),
		CohortSize:   result.Stats.Size,
		CohortMean:   result.Stats.Mean,
		CohortMedian: result.Stats.Median,
		CohortStdDev: result.Stats.StdDev,
		GeneratedAt:  result.GeneratedAt,
		FromCache:    fromCache,
	}, nil
}

// Compare implements the report engine's comparison dependency.
func (h *CompareSubjectHandler) Compare(ctx context.Context, subjectID shared.SubjectID, name shared.MetricName, def comparison.CohortDefinition) (*comparison.ComparativeAnalysis, error) {
	return h.compareCached(ctx, subjectID, name, def, nil)
}

// compareCached serves from cache when fresh, recomputing otherwise.
// onMiss, when set, is called before a recompute.
func (h *CompareSubjectHandler) compareCached(ctx context.Context, subjectID shared.SubjectID, name shared.MetricName, def comparison.CohortDefinition, onMiss func()) (*comparison.ComparativeAnalysis, error) {
	resolved, err := h.resolveDefinition(ctx, subjectID, def)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		cached, cacheErr := h.cache.Get(ctx, subjectID, name, resolved)
		if cacheErr == nil && cached.IsFresh(h.freshness, time.Now().UTC()) {
			if h.monitor != nil {
				h.monitor.CacheHit()
			}
			return cached, nil
		}
		if h.monitor != nil {
			h.monitor.CacheMiss()
		}
	}
	if onMiss != nil {
		onMiss()
	}

	result, err := h.compute(ctx, subjectID, name, resolved)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		// Cache failures degrade to recomputation, never to a comparison error.
		_ = h.cache.Put(ctx, result)
	}
	return result, nil
}

// resolveDefinition fills an empty definition with the subject's own
// cohort and band.
func (h *CompareSubjectHandler) resolveDefinition(ctx context.Context, subjectID shared.SubjectID, def comparison.CohortDefinition) (comparison.CohortDefinition, error) {
	if !def.IsZero() {
		return def, nil
	}
	subj, err := h.subjects.Find(ctx, subjectID)
	if err != nil {
		return comparison.CohortDefinition{}, err
	}
	return comparison.CohortDefinition{Cohort: subj.Cohort, Band: subj.Band}, nil
}

func (h *CompareSubjectHandler) compute(ctx context.Context, subjectID shared.SubjectID, name shared.MetricName, def comparison.CohortDefinition) (*comparison.ComparativeAnalysis, error) {
	point, err := h.metrics.LatestValue(ctx, subjectID, name)
	if err != nil {
		return nil, err
	}

	peers, err := h.subjects.FindPeers(ctx, subject.CohortFilter{
		Cohort:         def.Cohort,
		Band:           def.Band,
		OnlyActive:     true,
		ExcludeSubject: subjectID,
	})
	if err != nil {
		return nil, err
	}

	values, err := h.metrics.LatestValues(ctx, peers, name)
	if err != nil {
		return nil, err
	}

	cohort := make([]float64, 0, len(values))
	for _, v := range values {
		cohort = append(cohort, v)
	}
	if len(cohort) < h.minCohortSize {
		return nil, shared.WrapError("comparison", "Compare", shared.ErrCohortTooSmall,
			"peer cohort below minimum size", nil)
	}

	return &comparison.ComparativeAnalysis{
		ID:           uuid.NewString(),
		SubjectID:    subjectID,
		Metric:       name,
		Definition:   def,
		SubjectValue: point.Value,
		Percentile:   comparison.PercentileRank(point.Value, cohort),
		Stats:        comparison.ComputeStats(cohort),
		GeneratedAt:  time.Now().UTC(),
	}, nil
}
