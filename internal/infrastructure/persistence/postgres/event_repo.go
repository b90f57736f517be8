package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/event"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// EventRepository implements event.Repository for PostgreSQL. The table
// is append-only; the retention job is the only deleter.
type EventRepository struct {
	conn *Connection
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(conn *Connection) *EventRepository {
	return &EventRepository{conn: conn}
}

// Record appends an event. A duplicate client-supplied ID is a no-op.
func (r *EventRepository) Record(ctx context.Context, e *event.Event) error {
	attrs, err := json.Marshal(e.Attributes)
	if err != nil {
		return fmt.Errorf("failed to marshal event attributes: %w", err)
	}

	query := `
		INSERT INTO events (id, subject_id, category, occurred_at, device, session_id, attributes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`

	_, err = r.conn.Exec(ctx, query,
		e.ID,
		string(e.SubjectID),
		string(e.Category),
		e.OccurredAt,
		e.Device,
		e.SessionID,
		attrs,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return shared.ErrOrphanedReference
		}
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

// Query returns a subject's events inside the half-open range, oldest
// first. Category is optional.
func (r *EventRepository) Query(ctx context.Context, subjectID shared.SubjectID, category event.Category, tr shared.TimeRange) ([]*event.Event, error) {
	if !tr.IsValid() {
		return nil, shared.ErrMalformedTimeRange
	}

	query := `
		SELECT id, subject_id, category, occurred_at, device, session_id, attributes
		FROM events
		WHERE subject_id = $1 AND occurred_at >= $2 AND occurred_at < $3
	`
	args := []interface{}{string(subjectID), tr.Start, tr.End}

	if category != "" {
		args = append(args, string(category))
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	query += " ORDER BY occurred_at ASC"

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := make([]*event.Event, 0)
	for rows.Next() {
		var e event.Event
		var subjID, cat string
		var attrs []byte

		if err := rows.Scan(&e.ID, &subjID, &cat, &e.OccurredAt, &e.Device, &e.SessionID, &attrs); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.SubjectID = shared.SubjectID(subjID)
		e.Category = event.Category(cat)
		if err := json.Unmarshal(attrs, &e.Attributes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event attributes: %w", err)
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

// PruneBefore deletes events older than the cutoff, returning the count.
func (r *EventRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.conn.Exec(ctx, "DELETE FROM events WHERE occurred_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune events: %w", err)
	}
	return tag.RowsAffected(), nil
}
