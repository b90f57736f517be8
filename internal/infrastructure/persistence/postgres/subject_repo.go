package postgres

import (
	"context"
	"fmt"

	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
	"github.com/prepwise/prepwise-analytics/internal/domain/subject"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBJECT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// SubjectRepository implements subject.Repository for PostgreSQL.
type SubjectRepository struct {
	conn *Connection
}

// NewSubjectRepository creates a new SubjectRepository.
func NewSubjectRepository(conn *Connection) *SubjectRepository {
	return &SubjectRepository{conn: conn}
}

// Register stores a subject. Registering an already-known ID is a no-op
// so retried registrations stay idempotent.
func (r *SubjectRepository) Register(ctx context.Context, s *subject.Subject) error {
	query := `
		INSERT INTO subjects (id, external_ref, cohort, band, enrolled_at, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.conn.Exec(ctx, query,
		string(s.ID),
		s.ExternalRef,
		string(s.Cohort),
		string(s.Band),
		s.EnrolledAt,
		s.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to register subject: %w", err)
	}
	return nil
}

// Find returns a subject by ID.
func (r *SubjectRepository) Find(ctx context.Context, id shared.SubjectID) (*subject.Subject, error) {
	query := `
		SELECT id, external_ref, cohort, band, enrolled_at, active
		FROM subjects
		WHERE id = $1
	`

	var s subject.Subject
	var rawID, cohort, band string
	err := r.conn.QueryRow(ctx, query, string(id)).Scan(
		&rawID, &s.ExternalRef, &cohort, &band, &s.EnrolledAt, &s.Active,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrSubjectNotFound
		}
		return nil, fmt.Errorf("failed to find subject: %w", err)
	}

	s.ID = shared.SubjectID(rawID)
	s.Cohort = shared.Cohort(cohort)
	s.Band = subject.ProficiencyBand(band)
	return &s, nil
}

// Exists reports whether a subject is registered.
func (r *SubjectRepository) Exists(ctx context.Context, id shared.SubjectID) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM subjects WHERE id = $1)", string(id),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check subject existence: %w", err)
	}
	return exists, nil
}

// FindPeers returns subject IDs matching the cohort filter.
func (r *SubjectRepository) FindPeers(ctx context.Context, filter subject.CohortFilter) ([]shared.SubjectID, error) {
	query := "SELECT id FROM subjects WHERE id != $1"
	args := []interface{}{string(filter.ExcludeSubject)}

	if filter.Cohort != "" {
		args = append(args, string(filter.Cohort))
		query += fmt.Sprintf(" AND cohort = $%d", len(args))
	}
	if filter.Band != "" {
		args = append(args, string(filter.Band))
		query += fmt.Sprintf(" AND band = $%d", len(args))
	}
	if filter.OnlyActive {
		query += " AND active"
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find peers: %w", err)
	}
	defer rows.Close()

	var peers []shared.SubjectID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan peer ID: %w", err)
		}
		peers = append(peers, shared.SubjectID(id))
	}
	return peers, rows.Err()
}
