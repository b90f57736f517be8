package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/report"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPORT DEFINITION REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// ReportDefinitionRepository implements report.DefinitionRepository for
// PostgreSQL.
type ReportDefinitionRepository struct {
	conn *Connection
}

// NewReportDefinitionRepository creates a new ReportDefinitionRepository.
func NewReportDefinitionRepository(conn *Connection) *ReportDefinitionRepository {
	return &ReportDefinitionRepository{conn: conn}
}

// Save inserts or updates a definition.
func (r *ReportDefinitionRepository) Save(ctx context.Context, d *report.Definition) error {
	selectors, err := json.Marshal(d.Selectors)
	if err != nil {
		return fmt.Errorf("failed to marshal selectors: %w", err)
	}
	formats, err := json.Marshal(d.Formats)
	if err != nil {
		return fmt.Errorf("failed to marshal formats: %w", err)
	}
	recipients, err := json.Marshal(d.Recipients)
	if err != nil {
		return fmt.Errorf("failed to marshal recipients: %w", err)
	}

	query := `
		INSERT INTO report_definitions (
			id, owner_id, subject_id, name, selectors, lookback_days,
			formats, schedule, recipients, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			selectors = EXCLUDED.selectors,
			lookback_days = EXCLUDED.lookback_days,
			formats = EXCLUDED.formats,
			schedule = EXCLUDED.schedule,
			recipients = EXCLUDED.recipients,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.conn.Exec(ctx, query,
		d.ID,
		string(d.OwnerID),
		string(d.SubjectID),
		d.Name,
		selectors,
		d.LookbackDays,
		formats,
		d.Schedule,
		recipients,
		d.CreatedAt,
		d.UpdatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return shared.ErrOrphanedReference
		}
		return fmt.Errorf("failed to save definition: %w", err)
	}
	return nil
}

// Find returns a definition by ID.
func (r *ReportDefinitionRepository) Find(ctx context.Context, id string) (*report.Definition, error) {
	row := r.conn.QueryRow(ctx, definitionSelect+" WHERE id = $1", id)
	d, err := scanDefinition(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrReportNotFound
		}
		return nil, err
	}
	return d, nil
}

// FindByOwner returns the definitions owned by a user.
func (r *ReportDefinitionRepository) FindByOwner(ctx context.Context, ownerID shared.SubjectID) ([]*report.Definition, error) {
	return r.queryDefinitions(ctx, definitionSelect+" WHERE owner_id = $1 ORDER BY created_at", string(ownerID))
}

// FindScheduled returns all definitions with a non-empty schedule.
func (r *ReportDefinitionRepository) FindScheduled(ctx context.Context) ([]*report.Definition, error) {
	return r.queryDefinitions(ctx, definitionSelect+" WHERE schedule != '' ORDER BY created_at")
}

// Delete removes a definition. Executions reference the report by bare
// ID without a foreign key, so history survives.
func (r *ReportDefinitionRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.conn.Exec(ctx, "DELETE FROM report_definitions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete definition: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrReportNotFound
	}
	return nil
}

const definitionSelect = `
	SELECT id, owner_id, subject_id, name, selectors, lookback_days,
		   formats, schedule, recipients, created_at, updated_at
	FROM report_definitions`

func (r *ReportDefinitionRepository) queryDefinitions(ctx context.Context, query string, args ...interface{}) ([]*report.Definition, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query definitions: %w", err)
	}
	defer rows.Close()

	var defs []*report.Definition
	for rows.Next() {
		d, err := scanDefinition(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

func scanDefinition(row scanTarget) (*report.Definition, error) {
	var d report.Definition
	var ownerID, subjectID string
	var selectors, formats, recipients []byte

	err := row.Scan(
		&d.ID, &ownerID, &subjectID, &d.Name, &selectors, &d.LookbackDays,
		&formats, &d.Schedule, &recipients, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	d.OwnerID = shared.SubjectID(ownerID)
	d.SubjectID = shared.SubjectID(subjectID)
	if err := json.Unmarshal(selectors, &d.Selectors); err != nil {
		return nil, fmt.Errorf("failed to unmarshal selectors: %w", err)
	}
	if err := json.Unmarshal(formats, &d.Formats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal formats: %w", err)
	}
	if err := json.Unmarshal(recipients, &d.Recipients); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipients: %w", err)
	}
	return &d, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REPORT EXECUTION REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// ReportExecutionRepository implements report.ExecutionRepository for
// PostgreSQL. The partial unique index on (report_id, scheduled_for)
// turns a double-claimed tick into shared.ErrDuplicateTick.
type ReportExecutionRepository struct {
	conn *Connection
}

// NewReportExecutionRepository creates a new ReportExecutionRepository.
func NewReportExecutionRepository(conn *Connection) *ReportExecutionRepository {
	return &ReportExecutionRepository{conn: conn}
}

// Create inserts a new pending execution.
func (r *ReportExecutionRepository) Create(ctx context.Context, e *report.Execution) error {
	artifacts, err := json.Marshal(e.Artifacts)
	if err != nil {
		return fmt.Errorf("failed to marshal artifacts: %w", err)
	}

	query := `
		INSERT INTO report_executions (
			id, report_id, status, scheduled_for, requested_at,
			started_at, finished_at, error, artifacts
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.conn.Exec(ctx, query,
		e.ID,
		e.ReportID,
		string(e.Status),
		e.ScheduledFor,
		e.RequestedAt,
		e.StartedAt,
		e.FinishedAt,
		e.Error,
		artifacts,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrDuplicateTick
		}
		return fmt.Errorf("failed to create execution: %w", err)
	}
	return nil
}

// Update persists a state transition.
func (r *ReportExecutionRepository) Update(ctx context.Context, e *report.Execution) error {
	artifacts, err := json.Marshal(e.Artifacts)
	if err != nil {
		return fmt.Errorf("failed to marshal artifacts: %w", err)
	}

	query := `
		UPDATE report_executions
		SET status = $2, started_at = $3, finished_at = $4, error = $5, artifacts = $6
		WHERE id = $1
	`

	tag, err := r.conn.Exec(ctx, query,
		e.ID, string(e.Status), e.StartedAt, e.FinishedAt, e.Error, artifacts)
	if err != nil {
		return fmt.Errorf("failed to update execution: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrExecutionNotFound
	}
	return nil
}

// Find returns an execution by ID.
func (r *ReportExecutionRepository) Find(ctx context.Context, id string) (*report.Execution, error) {
	row := r.conn.QueryRow(ctx, executionSelect+" WHERE id = $1", id)
	return scanExecution(row)
}

// FindByTick returns the execution claimed for a schedule tick.
func (r *ReportExecutionRepository) FindByTick(ctx context.Context, reportID string, tick time.Time) (*report.Execution, error) {
	tick = tick.UTC().Truncate(time.Minute)
	row := r.conn.QueryRow(ctx, executionSelect+" WHERE report_id = $1 AND scheduled_for = $2", reportID, tick)
	return scanExecution(row)
}

// ListByReport returns executions for a report, newest first.
func (r *ReportExecutionRepository) ListByReport(ctx context.Context, reportID string, p shared.Pagination) ([]*report.Execution, error) {
	query := executionSelect + `
		WHERE report_id = $1
		ORDER BY requested_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.conn.Query(ctx, query, reportID, p.Limit(), p.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	defer rows.Close()

	var execs []*report.Execution
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		execs = append(execs, e)
	}
	return execs, rows.Err()
}

const executionSelect = `
	SELECT id, report_id, status, scheduled_for, requested_at,
		   started_at, finished_at, error, artifacts
	FROM report_executions`

func scanExecution(row scanTarget) (*report.Execution, error) {
	var e report.Execution
	var status string
	var artifacts []byte

	err := row.Scan(
		&e.ID, &e.ReportID, &status, &e.ScheduledFor, &e.RequestedAt,
		&e.StartedAt, &e.FinishedAt, &e.Error, &artifacts,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrExecutionNotFound
		}
		return nil, fmt.Errorf("failed to scan execution: %w", err)
	}

	e.Status = report.Status(status)
	if err := json.Unmarshal(artifacts, &e.Artifacts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal artifacts: %w", err)
	}
	return &e, nil
}
