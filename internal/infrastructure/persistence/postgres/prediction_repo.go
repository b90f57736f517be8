package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/prediction"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PREDICTION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// PredictionRepository implements prediction.Repository for PostgreSQL.
// Rows are never deleted; superseded models stay for accuracy tracking.
type PredictionRepository struct {
	conn *Connection
}

// NewPredictionRepository creates a new PredictionRepository.
func NewPredictionRepository(conn *Connection) *PredictionRepository {
	return &PredictionRepository{conn: conn}
}

// Save stores a newly generated model.
func (r *PredictionRepository) Save(ctx context.Context, m *prediction.PredictiveModel) error {
	query := `
		INSERT INTO predictive_models (
			id, subject_id, model_type, target_metric, predicted,
			interval_low, interval_high, horizon_seconds, generated_at,
			validated_at, actual_value
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.conn.Exec(ctx, query,
		m.ID,
		string(m.SubjectID),
		string(m.Type),
		string(m.TargetMetric),
		m.Predicted,
		m.Interval.Low,
		m.Interval.High,
		int64(m.Horizon.Seconds()),
		m.GeneratedAt,
		m.ValidatedAt,
		m.ActualValue,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.NewDomainError("prediction", "Save", shared.ErrAlreadyExists, "model ID already exists")
		}
		return fmt.Errorf("failed to save model: %w", err)
	}
	return nil
}

// Find returns a model by ID.
func (r *PredictionRepository) Find(ctx context.Context, id string) (*prediction.PredictiveModel, error) {
	query := `
		SELECT id, subject_id, model_type, target_metric, predicted,
			   interval_low, interval_high, horizon_seconds, generated_at,
			   validated_at, actual_value
		FROM predictive_models
		WHERE id = $1
	`
	return r.scanModel(r.conn.QueryRow(ctx, query, id))
}

// Update persists the validation fields of a validated model.
func (r *PredictionRepository) Update(ctx context.Context, m *prediction.PredictiveModel) error {
	query := `
		UPDATE predictive_models
		SET validated_at = $2, actual_value = $3
		WHERE id = $1
	`

	tag, err := r.conn.Exec(ctx, query, m.ID, m.ValidatedAt, m.ActualValue)
	if err != nil {
		return fmt.Errorf("failed to update model: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrModelNotFound
	}
	return nil
}

// FindBySubject returns all models of one type for a subject, newest first.
func (r *PredictionRepository) FindBySubject(ctx context.Context, subjectID shared.SubjectID, modelType prediction.ModelType) ([]*prediction.PredictiveModel, error) {
	query := `
		SELECT id, subject_id, model_type, target_metric, predicted,
			   interval_low, interval_high, horizon_seconds, generated_at,
			   validated_at, actual_value
		FROM predictive_models
		WHERE subject_id = $1 AND model_type = $2
		ORDER BY generated_at DESC
	`

	rows, err := r.conn.Query(ctx, query, string(subjectID), string(modelType))
	if err != nil {
		return nil, fmt.Errorf("failed to query models: %w", err)
	}
	defer rows.Close()

	var models []*prediction.PredictiveModel
	for rows.Next() {
		m, err := r.scanModel(rows)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return models, rows.Err()
}

// scanTarget is satisfied by pgx.Row and pgx.Rows.
type scanTarget interface {
	Scan(dest ...interface{}) error
}

func (r *PredictionRepository) scanModel(row scanTarget) (*prediction.PredictiveModel, error) {
	var m prediction.PredictiveModel
	var subjID, modelType, targetMetric string
	var low, high float64
	var horizonSeconds int64

	err := row.Scan(
		&m.ID, &subjID, &modelType, &targetMetric, &m.Predicted,
		&low, &high, &horizonSeconds, &m.GeneratedAt,
		&m.ValidatedAt, &m.ActualValue,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrModelNotFound
		}
		return nil, fmt.Errorf("failed to scan model: %w", err)
	}

	m.SubjectID = shared.SubjectID(subjID)
	m.Type = prediction.ModelType(modelType)
	m.TargetMetric = shared.MetricName(targetMetric)
	m.Interval = shared.ConfidenceInterval{Low: low, High: high}
	m.Horizon = time.Duration(horizonSeconds) * time.Second
	return &m, nil
}
