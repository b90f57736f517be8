package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/prepwise/prepwise-analytics/internal/domain/export"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXPORT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ExportRepository implements export.Repository for PostgreSQL.
type ExportRepository struct {
	conn *Connection
}

// NewExportRepository creates a new ExportRepository.
func NewExportRepository(conn *Connection) *ExportRepository {
	return &ExportRepository{conn: conn}
}

// Create inserts a new pending export.
func (r *ExportRepository) Create(ctx context.Context, e *export.DataExport) error {
	scope, err := json.Marshal(e.Scope)
	if err != nil {
		return fmt.Errorf("failed to marshal export scope: %w", err)
	}

	query := `
		INSERT INTO data_exports (
			id, requester_id, scope, format, status, progress_pct,
			artifact_ref, error, requested_at, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = r.conn.Exec(ctx, query,
		e.ID,
		string(e.RequesterID),
		scope,
		string(e.Format),
		string(e.Status),
		e.ProgressPct,
		e.ArtifactRef,
		e.Error,
		e.RequestedAt,
		e.StartedAt,
		e.FinishedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.NewDomainError("export", "Create", shared.ErrAlreadyExists, "export ID already exists")
		}
		return fmt.Errorf("failed to create export: %w", err)
	}
	return nil
}

// Update persists a state or progress change.
func (r *ExportRepository) Update(ctx context.Context, e *export.DataExport) error {
	query := `
		UPDATE data_exports
		SET status = $2, progress_pct = $3, artifact_ref = $4, error = $5,
			started_at = $6, finished_at = $7
		WHERE id = $1
	`

	tag, err := r.conn.Exec(ctx, query,
		e.ID, string(e.Status), e.ProgressPct, e.ArtifactRef, e.Error,
		e.StartedAt, e.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to update export: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrExportNotFound
	}
	return nil
}

// Find returns an export by ID.
func (r *ExportRepository) Find(ctx context.Context, id string) (*export.DataExport, error) {
	row := r.conn.QueryRow(ctx, exportSelect+" WHERE id = $1", id)
	return scanExport(row)
}

// ListPending returns pending exports oldest first.
func (r *ExportRepository) ListPending(ctx context.Context, limit int) ([]*export.DataExport, error) {
	if limit <= 0 {
		limit = 10
	}

	query := exportSelect + `
		WHERE status = 'pending'
		ORDER BY requested_at ASC
		LIMIT $1
	`

	rows, err := r.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending exports: %w", err)
	}
	defer rows.Close()

	var exports []*export.DataExport
	for rows.Next() {
		e, err := scanExport(rows)
		if err != nil {
			return nil, err
		}
		exports = append(exports, e)
	}
	return exports, rows.Err()
}

const exportSelect = `
	SELECT id, requester_id, scope, format, status, progress_pct,
		   artifact_ref, error, requested_at, started_at, finished_at
	FROM data_exports`

func scanExport(row scanTarget) (*export.DataExport, error) {
	var e export.DataExport
	var requesterID, format, status string
	var scope []byte

	err := row.Scan(
		&e.ID, &requesterID, &scope, &format, &status, &e.ProgressPct,
		&e.ArtifactRef, &e.Error, &e.RequestedAt, &e.StartedAt, &e.FinishedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrExportNotFound
		}
		return nil, fmt.Errorf("failed to scan export: %w", err)
	}

	e.RequesterID = shared.SubjectID(requesterID)
	e.Format = export.Format(format)
	e.Status = export.Status(status)
	if err := json.Unmarshal(scope, &e.Scope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal export scope: %w", err)
	}
	return &e, nil
}
