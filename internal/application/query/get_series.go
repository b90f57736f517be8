// Package query contains read operations following CQRS pattern.
// Queries never modify state, with one deliberate exception: the forecast
// query persists the model it generates so the validation loop can find it
// later.
package query

import (
	"context"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/metric"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET SERIES QUERY
// Returns the raw (timestamp, value) series for one subject and metric.
// ══════════════════════════════════════════════════════════════════════════════

// GetSeriesQuery contains the series request parameters.
type GetSeriesQuery struct {
	// SubjectID is the learner.
	SubjectID string

	// Metric is the series name.
	Metric string

	// From and To bound the half-open range [From, To); both zero defaults
	// to the last 90 days.
	From time.Time
	To   time.Time
}

// SeriesPointDTO is one observation.
type SeriesPointDTO struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// GetSeriesResult contains the series.
type GetSeriesResult struct {
	SubjectID string           `json:"subject_id"`
	Metric    string           `json:"metric"`
	Points    []SeriesPointDTO `json:"points"`
	Count     int              `json:"count"`
}

// GetSeriesHandler handles the GetSeriesQuery.
type GetSeriesHandler struct {
	metrics metric.Repository
}

// NewGetSeriesHandler creates a new GetSeriesHandler.
func NewGetSeriesHandler(metrics metric.Repository) *GetSeriesHandler {
	return &GetSeriesHandler{metrics: metrics}
}

// Handle executes the get series query.
func (h *GetSeriesHandler) Handle(ctx context.Context, q GetSeriesQuery) (*GetSeriesResult, error) {
	subjectID, name, tr, err := resolveSeriesParams(q.SubjectID, q.Metric, q.From, q.To)
	if err != nil {
		return nil, err
	}

	series, err := h.metrics.QuerySeries(ctx, subjectID, name, tr)
	if err != nil {
		return nil, err
	}

	points := make([]SeriesPointDTO, len(series.Points))
	for i, p := range series.Points {
		points[i] = SeriesPointDTO{Timestamp: p.Timestamp, Value: p.Value}
	}

	return &GetSeriesResult{
		SubjectID: string(subjectID),
		Metric:    string(name),
		Points:    points,
		Count:     len(points),
	}, nil
}

// resolveSeriesParams validates the parameters shared by all series-based
// queries and fills the default 90-day window.
func resolveSeriesParams(subjectID, name string, from, to time.Time) (shared.SubjectID, shared.MetricName, shared.TimeRange, error) {
	sid, err := shared.NewSubjectID(subjectID)
	if err != nil {
		return "", "", shared.TimeRange{}, err
	}
	mn, err := shared.NewMetricName(name)
	if err != nil {
		return "", "", shared.TimeRange{}, err
	}

	if from.IsZero() && to.IsZero() {
		return sid, mn, shared.LastNDays(90), nil
	}
	tr, err := shared.NewTimeRange(from, to)
	if err != nil {
		return "", "", shared.TimeRange{}, err
	}
	return sid, mn, tr, nil
}
