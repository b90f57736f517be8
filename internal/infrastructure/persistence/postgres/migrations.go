package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION SUPPORT
// ══════════════════════════════════════════════════════════════════════════════

// Migration is one forward-only schema change.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
}

// Migrator applies embedded migrations in order, tracking applied
// versions in schema_migrations.
type Migrator struct {
	conn       *Connection
	migrations []Migration
}

// NewMigrator creates a migrator with the embedded migrations.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{conn: conn, migrations: GetMigrations()}
}

// Migrate applies all pending migrations, each in its own transaction.
func (m *Migrator) Migrate(ctx context.Context) error {
	if _, err := m.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied := make(map[int]bool)
	rows, err := m.conn.Query(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("failed to query applied migrations: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[v] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, mig := range m.migrations {
		if applied[mig.Version] {
			continue
		}

		err := m.conn.WithTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.UpSQL); err != nil {
				return fmt.Errorf("failed to execute migration %d: %w", mig.Version, err)
			}
			_, err := tx.Exec(ctx,
				"INSERT INTO schema_migrations (version, name) VALUES ($1, $2)",
				mig.Version, mig.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: version %d: %v", ErrMigrationFailed, mig.Version, err)
		}
	}

	return nil
}

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_subjects", UpSQL: migration001Up},
		{Version: 2, Name: "create_ingestion", UpSQL: migration002Up},
		{Version: 3, Name: "create_predictions", UpSQL: migration003Up},
		{Version: 4, Name: "create_reports", UpSQL: migration004Up},
		{Version: 5, Name: "create_exports_dashboards", UpSQL: migration005Up},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: SUBJECTS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS subjects (
    id UUID PRIMARY KEY,
    external_ref VARCHAR(100) NOT NULL DEFAULT '',
    cohort VARCHAR(20) NOT NULL,
    band VARCHAR(20) NOT NULL,
    enrolled_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    active BOOLEAN NOT NULL DEFAULT TRUE,

    CONSTRAINT valid_band CHECK (band IN ('foundation', 'intermediate', 'upper', 'advanced'))
);

CREATE INDEX IF NOT EXISTS idx_subjects_cohort_band ON subjects(cohort, band) WHERE active;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: EVENTS AND METRICS (APPEND-ONLY)
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Raw behavioral events. Client-supplied IDs make retried writes no-ops.
CREATE TABLE IF NOT EXISTS events (
    id VARCHAR(64) PRIMARY KEY,
    subject_id UUID NOT NULL REFERENCES subjects(id),
    category VARCHAR(30) NOT NULL,
    occurred_at TIMESTAMP WITH TIME ZONE NOT NULL,
    device VARCHAR(50) NOT NULL DEFAULT '',
    session_id VARCHAR(64) NOT NULL DEFAULT '',
    attributes JSONB NOT NULL DEFAULT '{}'::jsonb,

    CONSTRAINT valid_category CHECK (category IN (
        'session_started', 'session_ended', 'question_answered',
        'exam_submitted', 'page_viewed', 'feature_used'))
);

CREATE INDEX IF NOT EXISTS idx_events_subject_time ON events(subject_id, occurred_at);
CREATE INDEX IF NOT EXISTS idx_events_occurred_at ON events(occurred_at);

-- Derived metric points. Append-only; corrections are new rows.
CREATE TABLE IF NOT EXISTS metrics (
    id VARCHAR(64) PRIMARY KEY,
    subject_id UUID NOT NULL REFERENCES subjects(id),
    name VARCHAR(64) NOT NULL,
    module VARCHAR(20) NOT NULL,
    value DOUBLE PRECISION NOT NULL,
    recorded_at TIMESTAMP WITH TIME ZONE NOT NULL,
    metadata JSONB NOT NULL DEFAULT '{}'::jsonb,

    CONSTRAINT valid_module CHECK (module IN (
        'listening', 'reading', 'writing', 'speaking', 'overall'))
);

CREATE INDEX IF NOT EXISTS idx_metrics_series ON metrics(subject_id, name, recorded_at);
CREATE INDEX IF NOT EXISTS idx_metrics_latest ON metrics(subject_id, name, recorded_at DESC);
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: PREDICTIVE MODELS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
CREATE TABLE IF NOT EXISTS predictive_models (
    id VARCHAR(64) PRIMARY KEY,
    subject_id UUID NOT NULL REFERENCES subjects(id),
    model_type VARCHAR(30) NOT NULL,
    target_metric VARCHAR(64) NOT NULL,
    predicted DOUBLE PRECISION NOT NULL,
    interval_low DOUBLE PRECISION NOT NULL,
    interval_high DOUBLE PRECISION NOT NULL,
    horizon_seconds BIGINT NOT NULL,
    generated_at TIMESTAMP WITH TIME ZONE NOT NULL,
    validated_at TIMESTAMP WITH TIME ZONE,
    actual_value DOUBLE PRECISION,

    CONSTRAINT valid_interval CHECK (interval_low <= predicted AND predicted <= interval_high)
);

CREATE INDEX IF NOT EXISTS idx_models_subject_type ON predictive_models(subject_id, model_type, generated_at DESC);
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: REPORT DEFINITIONS AND EXECUTIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
CREATE TABLE IF NOT EXISTS report_definitions (
    id VARCHAR(64) PRIMARY KEY,
    owner_id UUID NOT NULL,
    subject_id UUID NOT NULL REFERENCES subjects(id),
    name VARCHAR(200) NOT NULL,
    selectors JSONB NOT NULL DEFAULT '[]'::jsonb,
    lookback_days INTEGER NOT NULL DEFAULT 90,
    formats JSONB NOT NULL DEFAULT '["json"]'::jsonb,
    schedule VARCHAR(100) NOT NULL DEFAULT '',
    recipients JSONB NOT NULL DEFAULT '[]'::jsonb,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_reports_owner ON report_definitions(owner_id);
CREATE INDEX IF NOT EXISTS idx_reports_scheduled ON report_definitions(schedule) WHERE schedule != '';

CREATE TABLE IF NOT EXISTS report_executions (
    id VARCHAR(64) PRIMARY KEY,
    report_id VARCHAR(64) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    scheduled_for TIMESTAMP WITH TIME ZONE,
    requested_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    started_at TIMESTAMP WITH TIME ZONE,
    finished_at TIMESTAMP WITH TIME ZONE,
    error TEXT NOT NULL DEFAULT '',
    artifacts JSONB NOT NULL DEFAULT '[]'::jsonb,

    CONSTRAINT valid_status CHECK (status IN (
        'pending', 'running', 'completed', 'failed', 'cancelled'))
);

-- The scheduler's mutual-exclusion and idempotence point: at most one
-- execution exists per schedule tick.
CREATE UNIQUE INDEX IF NOT EXISTS idx_executions_tick
    ON report_executions(report_id, scheduled_for)
    WHERE scheduled_for IS NOT NULL;

CREATE INDEX IF NOT EXISTS idx_executions_report ON report_executions(report_id, requested_at DESC);
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 005: EXPORTS AND DASHBOARDS
// ══════════════════════════════════════════════════════════════════════════════

const migration005Up = `
CREATE TABLE IF NOT EXISTS data_exports (
    id VARCHAR(64) PRIMARY KEY,
    requester_id UUID NOT NULL,
    scope JSONB NOT NULL,
    format VARCHAR(10) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    progress_pct INTEGER NOT NULL DEFAULT 0,
    artifact_ref VARCHAR(200) NOT NULL DEFAULT '',
    error TEXT NOT NULL DEFAULT '',
    requested_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    started_at TIMESTAMP WITH TIME ZONE,
    finished_at TIMESTAMP WITH TIME ZONE,

    CONSTRAINT valid_export_status CHECK (status IN (
        'pending', 'running', 'completed', 'failed')),
    CONSTRAINT valid_progress CHECK (progress_pct BETWEEN 0 AND 100)
);

CREATE INDEX IF NOT EXISTS idx_exports_pending ON data_exports(requested_at) WHERE status = 'pending';

CREATE TABLE IF NOT EXISTS dashboards (
    owner_id UUID PRIMARY KEY,
    widgets JSONB NOT NULL DEFAULT '[]'::jsonb,
    refresh_interval_seconds INTEGER NOT NULL DEFAULT 300,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`
