package query

import (
	"context"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/analysis"
	"github.com/prepwise/prepwise-analytics/internal/domain/metric"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET TREND QUERY
// Fits a least-squares trend over the subject's series and classifies it.
// Too few points is a typed result (insufficient=true), not an error.
// ══════════════════════════════════════════════════════════════════════════════

// GetTrendQuery contains the trend request parameters.
type GetTrendQuery struct {
	SubjectID string
	Metric    string
	From      time.Time
	To        time.Time
}

// GetTrendResult contains the trend analysis.
type GetTrendResult struct {
	SubjectID string `json:"subject_id"`
	Metric    string `json:"metric"`

	Insufficient   bool    `json:"insufficient"`
	SampleSize     int     `json:"sample_size"`
	Classification string  `json:"classification,omitempty"`
	SlopePerHour   float64 `json:"slope_per_hour,omitempty"`
	RSquared       float64 `json:"r_squared,omitempty"`
}

// GetTrendHandler handles the GetTrendQuery.
type GetTrendHandler struct {
	metrics metric.Repository
	opts    analysis.Options
}

// NewGetTrendHandler creates a new GetTrendHandler.
func NewGetTrendHandler(metrics metric.Repository, opts analysis.Options) *GetTrendHandler {
	return &GetTrendHandler{metrics: metrics, opts: opts}
}

// Handle executes the get trend query.
func (h *GetTrendHandler) Handle(ctx context.Context, q GetTrendQuery) (*GetTrendResult, error) {
	subjectID, name, tr, err := resolveSeriesParams(q.SubjectID, q.Metric, q.From, q.To)
	if err != nil {
		return nil, err
	}

	series, err := h.metrics.QuerySeries(ctx, subjectID, name, tr)
	if err != nil {
		return nil, err
	}

	trend := analysis.DetectTrend(series, h.opts)

	result := &GetTrendResult{
		SubjectID:    string(subjectID),
		Metric:       string(name),
		Insufficient: trend.Insufficient,
		SampleSize:   trend.SampleSize,
	}
	if !trend.Insufficient {
		result.Classification = string(trend.Classification)
		result.SlopePerHour = trend.Slope
		result.RSquared = trend.RSquared
	}
	return result, nil
}
