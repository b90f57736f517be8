package query

import (
	"context"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/analysis"
	"github.com/prepwise/prepwise-analytics/internal/domain/metric"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET ANOMALIES QUERY
// Flags observations whose z-score against the trailing window exceeds the
// configured threshold.
// ══════════════════════════════════════════════════════════════════════════════

// GetAnomaliesQuery contains the anomaly request parameters.
type GetAnomaliesQuery struct {
	SubjectID string
	Metric    string
	From      time.Time
	To        time.Time
}

// AnomalyDTO is one flagged observation.
type AnomalyDTO struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	ZScore    float64   `json:"z_score"`
}

// GetAnomaliesResult contains the anomaly analysis.
type GetAnomaliesResult struct {
	SubjectID string `json:"subject_id"`
	Metric    string `json:"metric"`

	Insufficient bool         `json:"insufficient"`
	SampleSize   int          `json:"sample_size"`
	Threshold    float64      `json:"threshold"`
	Anomalies    []AnomalyDTO `json:"anomalies"`
}

// GetAnomaliesHandler handles the GetAnomaliesQuery.
type GetAnomaliesHandler struct {
	metrics metric.Repository
	opts    analysis.Options
}

// NewGetAnomaliesHandler creates a new GetAnomaliesHandler.
func NewGetAnomaliesHandler(metrics metric.Repository, opts analysis.Options) *GetAnomaliesHandler {
	return &GetAnomaliesHandler{metrics: metrics, opts: opts}
}

// Handle executes the get anomalies query.
func (h *GetAnomaliesHandler) Handle(ctx context.Context, q GetAnomaliesQuery) (*GetAnomaliesResult, error) {
	subjectID, name, tr, err := resolveSeriesParams(q.SubjectID, q.Metric, q.From, q.To)
	if err != nil {
		return nil, err
	}

	series, err := h.metrics.QuerySeries(ctx, subjectID, name, tr)
	if err != nil {
		return nil, err
	}

	res := analysis.DetectAnomalies(series, h.opts)

	anomalies := make([]AnomalyDTO, len(res.Anomalies))
	for i, a := range res.Anomalies {
		anomalies[i] = AnomalyDTO{Timestamp: a.Timestamp, Value: a.Value, ZScore: a.ZScore}
	}

	return &GetAnomaliesResult{
		SubjectID:    string(subjectID),
		Metric:       string(name),
		Insufficient: res.Insufficient,
		SampleSize:   res.SampleSize,
		Threshold:    res.Threshold,
		Anomalies:    anomalies,
	}, nil
}
