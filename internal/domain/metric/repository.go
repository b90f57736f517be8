package metric

import (
	"context"

	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// Repository defines persistence operations for metrics. Writes are
// append-only and idempotent under retry: a duplicate write with the same
// client-supplied ID is a no-op, not an error.
type Repository interface {
	// Record appends a metric point. Duplicate IDs are silently ignored.
	Record(ctx context.Context, m *Metric) error

	// QuerySeries returns the (timestamp, value) series for one subject and
	// metric name inside the half-open time range, ordered ascending.
	// An unknown subject yields an empty series, not an error; only a
	// malformed range is rejected.
	QuerySeries(ctx context.Context, subjectID shared.SubjectID, name shared.MetricName, tr shared.TimeRange) (Series, error)

	// LatestValue returns the most recent value of a metric for a subject.
	// Returns shared.ErrMetricNotFound when the subject has no points.
	LatestValue(ctx context.Context, subjectID shared.SubjectID, name shared.MetricName) (Point, error)

	// LatestValues returns, for each given subject, its most recent value of
	// the metric. Subjects with no points are absent from the result. Used
	// by comparative analysis to build the cohort distribution.
	LatestValues(ctx context.Context, subjectIDs []shared.SubjectID, name shared.MetricName) (map[shared.SubjectID]float64, error)
}
