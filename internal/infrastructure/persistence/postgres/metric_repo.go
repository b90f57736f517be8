package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/prepwise/prepwise-analytics/internal/domain/metric"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// METRIC REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// MetricRepository implements metric.Repository for PostgreSQL.
type MetricRepository struct {
	conn *Connection
}

// NewMetricRepository creates a new MetricRepository.
func NewMetricRepository(conn *Connection) *MetricRepository {
	return &MetricRepository{conn: conn}
}

// Record appends a metric point. A duplicate client-supplied ID is a
// no-op.
func (r *MetricRepository) Record(ctx context.Context, m *metric.Metric) error {
	meta, err := json.Marshal(m.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metric metadata: %w", err)
	}

	query := `
		INSERT INTO metrics (id, subject_id, name, module, value, recorded_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`

	_, err = r.conn.Exec(ctx, query,
		m.ID,
		string(m.SubjectID),
		string(m.Name),
		string(m.Module),
		m.Value,
		m.RecordedAt,
		meta,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return shared.ErrOrphanedReference
		}
		return fmt.Errorf("failed to record metric: %w", err)
	}
	return nil
}

// QuerySeries returns the (timestamp, value) series inside the half-open
// range, ordered ascending.
func (r *MetricRepository) QuerySeries(ctx context.Context, subjectID shared.SubjectID, name shared.MetricName, tr shared.TimeRange) (metric.Series, error) {
	if !tr.IsValid() {
		return metric.Series{}, shared.ErrMalformedTimeRange
	}

	query := `
		SELECT recorded_at, value
		FROM metrics
		WHERE subject_id = $1 AND name = $2 AND recorded_at >= $3 AND recorded_at < $4
		ORDER BY recorded_at ASC
	`

	rows, err := r.conn.Query(ctx, query, string(subjectID), string(name), tr.Start, tr.End)
	if err != nil {
		return metric.Series{}, fmt.Errorf("failed to query series: %w", err)
	}
	defer rows.Close()

	points := make([]metric.Point, 0)
	for rows.Next() {
		var p metric.Point
		if err := rows.Scan(&p.Timestamp, &p.Value); err != nil {
			return metric.Series{}, fmt.Errorf("failed to scan metric point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return metric.Series{}, err
	}

	return metric.NewSeries(subjectID, name, points), nil
}

// LatestValue returns the most recent point of a metric for a subject.
func (r *MetricRepository) LatestValue(ctx context.Context, subjectID shared.SubjectID, name shared.MetricName) (metric.Point, error) {
	query := `
		SELECT recorded_at, value
		FROM metrics
		WHERE subject_id = $1 AND name = $2
		ORDER BY recorded_at DESC
		LIMIT 1
	`

	var p metric.Point
	err := r.conn.QueryRow(ctx, query, string(subjectID), string(name)).Scan(&p.Timestamp, &p.Value)
	if err != nil {
		if IsNoRows(err) {
			return metric.Point{}, shared.ErrMetricNotFound
		}
		return metric.Point{}, fmt.Errorf("failed to query latest value: %w", err)
	}
	return p, nil
}

// LatestValues returns each subject's most recent value of the metric.
// Subjects with no points are simply absent from the map.
func (r *MetricRepository) LatestValues(ctx context.Context, subjectIDs []shared.SubjectID, name shared.MetricName) (map[shared.SubjectID]float64, error) {
	result := make(map[shared.SubjectID]float64, len(subjectIDs))
	if len(subjectIDs) == 0 {
		return result, nil
	}

	ids := make([]string, len(subjectIDs))
	for i, id := range subjectIDs {
		ids[i] = string(id)
	}

	query := `
		SELECT DISTINCT ON (subject_id) subject_id, value
		FROM metrics
		WHERE subject_id = ANY($1) AND name = $2
		ORDER BY subject_id, recorded_at DESC
	`

	rows, err := r.conn.Query(ctx, query, ids, string(name))
	if err != nil {
		return nil, fmt.Errorf("failed to query latest values: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var value float64
		if err := rows.Scan(&id, &value); err != nil {
			return nil, fmt.Errorf("failed to scan latest value: %w", err)
		}
		result[shared.SubjectID(id)] = value
	}
	return result, rows.Err()
}
