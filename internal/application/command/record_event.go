// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/event"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
	"github.com/prepwise/prepwise-analytics/internal/domain/subject"
	"github.com/prepwise/prepwise-analytics/pkg/metrics"
	"github.com/prepwise/prepwise-analytics/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD EVENT COMMAND
// Ingests one behavioral event from an instrumentation client. The client
// supplies the event ID, which is what makes retried submissions safe:
// recording an already-stored ID is a silent no-op.
// ══════════════════════════════════════════════════════════════════════════════

// RecordEventCommand contains the data to record a behavioral event.
type RecordEventCommand struct {
	// EventID is the client-supplied deduplication ID.
	EventID string

	// SubjectID is the learner the event belongs to.
	SubjectID string

	// Category is the event category (session_started, exam_submitted, ...).
	Category string

	// OccurredAt is the client-stamped occurrence time; zero means now.
	OccurredAt time.Time

	// Device and SessionID are optional context attributes.
	Device    string
	SessionID string

	// Attributes carries category-specific payload fields.
	Attributes map[string]string
}

// RecordEventResult contains the result of recording an event.
type RecordEventResult struct {
	EventID    string    `json:"event_id"`
	SubjectID  string    `json:"subject_id"`
	Category   string    `json:"category"`
	RecordedAt time.Time `json:"recorded_at"`
}

// RecordEventHandler handles the RecordEventCommand.
type RecordEventHandler struct {
	events   event.Repository
	subjects subject.Repository
	monitor  *metrics.Manager
}

// NewRecordEventHandler creates a new RecordEventHandler.
func NewRecordEventHandler(events event.Repository, subjects subject.Repository, monitor *metrics.Manager) *RecordEventHandler {
	return &RecordEventHandler{events: events, subjects: subjects, monitor: monitor}
}

// Handle executes the record event command.
func (h *RecordEventHandler) Handle(ctx context.Context, cmd RecordEventCommand) (*RecordEventResult, error) {
	subjectID, err := shared.NewSubjectID(cmd.SubjectID)
	if err != nil {
		return nil, err
	}
	category, err := event.ParseCategory(cmd.Category)
	if err != nil {
		return nil, err
	}

	// Referential integrity is enforced at write time: events for
	// unregistered subjects are rejected, not silently accepted.
	exists, err := h.subjects.Exists(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.ErrOrphanedReference
	}

	evt, err := event.NewEvent(cmd.EventID, subjectID, category, cmd.OccurredAt)
	if err != nil {
		return nil, err
	}
	evt.Device = cmd.Device
	evt.SessionID = cmd.SessionID
	for k, v := range cmd.Attributes {
		evt.WithAttribute(k, v)
	}

	err = retry.Do(ctx, func(ctx context.Context) error {
		return h.events.Record(ctx, evt)
	}, retry.WithRetryIf(shared.IsRetryable))
	if err != nil {
		if h.monitor != nil {
			h.monitor.IngestFailure()
		}
		return nil, err
	}

	if h.monitor != nil {
		h.monitor.EventIngested()
	}

	return &RecordEventResult{
		EventID:    evt.ID,
		SubjectID:  string(evt.SubjectID),
		Category:   string(evt.Category),
		RecordedAt: evt.OccurredAt,
	}, nil
}
