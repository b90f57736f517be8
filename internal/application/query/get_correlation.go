package query

import (
	"context"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/analysis"
	"github.com/prepwise/prepwise-analytics/internal/domain/metric"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET CORRELATION QUERY
// Correlates two metric series of one subject, pairing observations by
// nearest timestamp. Significance is decided against the configured alpha.
// ══════════════════════════════════════════════════════════════════════════════

// GetCorrelationQuery contains the correlation request parameters.
type GetCorrelationQuery struct {
	SubjectID    string
	Metric       string
	SecondMetric string
	From         time.Time
	To           time.Time
}

// GetCorrelationResult contains the correlation analysis.
type GetCorrelationResult struct {
	SubjectID    string `json:"subject_id"`
	Metric       string `json:"metric"`
	SecondMetric string `json:"second_metric"`

	Insufficient bool    `json:"insufficient"`
	SampleSize   int     `json:"sample_size"`
	Coefficient  float64 `json:"coefficient,omitempty"`
	PValue       float64 `json:"p_value,omitempty"`
	Significant  bool    `json:"significant"`
}

// GetCorrelationHandler handles the GetCorrelationQuery.
type GetCorrelationHandler struct {
	metrics metric.Repository
	opts    analysis.Options
}

// NewGetCorrelationHandler creates a new GetCorrelationHandler.
func NewGetCorrelationHandler(metrics metric.Repository, opts analysis.Options) *GetCorrelationHandler {
	return &GetCorrelationHandler{metrics: metrics, opts: opts}
}

// Handle executes the get correlation query.
func (h *GetCorrelationHandler) Handle(ctx context.Context, q GetCorrelationQuery) (*GetCorrelationResult, error) {
	subjectID, first, tr, err := resolveSeriesParams(q.SubjectID, q.Metric, q.From, q.To)
	if err != nil {
		return nil, err
	}
	second, err := shared.NewMetricName(q.SecondMetric)
	if err != nil {
		return nil, err
	}

	a, err := h.metrics.QuerySeries(ctx, subjectID, first, tr)
	if err != nil {
		return nil, err
	}
	b, err := h.metrics.QuerySeries(ctx, subjectID, second, tr)
	if err != nil {
		return nil, err
	}

	corr := analysis.Correlate(a, b, h.opts)

	result := &GetCorrelationResult{
		SubjectID:    string(subjectID),
		Metric:       string(first),
		SecondMetric: string(second),
		Insufficient: corr.Insufficient,
		SampleSize:   corr.SampleSize,
		Significant:  corr.Significant,
	}
	if !corr.Insufficient {
		result.Coefficient = corr.Coefficient
		result.PValue = corr.PValue
	}
	return result, nil
}
