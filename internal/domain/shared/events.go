// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"context"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types published on the in-process bus.
const (
	// Ingestion events
	EventMetricRecorded EventType = "metric.recorded"
	EventEventRecorded  EventType = "event.recorded"

	// Prediction events
	EventModelGenerated EventType = "prediction.generated"
	EventModelValidated EventType = "prediction.validated"

	// Report lifecycle events
	EventReportExecutionStarted   EventType = "report.execution_started"
	EventReportExecutionCompleted EventType = "report.execution_completed"
	EventReportExecutionFailed    EventType = "report.execution_failed"

	// Export lifecycle events
	EventExportCompleted EventType = "export.completed"
	EventExportFailed    EventType = "export.failed"

	// System events
	EventRetentionPruned EventType = "system.retention_pruned"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
}

// EventType implements Event.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// Payload implements Event with an empty payload; concrete events override it.
func (e BaseEvent) Payload() map[string]interface{} {
	return map[string]interface{}{}
}

// NewBaseEvent creates a BaseEvent stamped with the current UTC time.
func NewBaseEvent(t EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        t,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
	}
}

// EventHandler processes a domain event.
type EventHandler interface {
	// Handle processes the event. Returning an error does not stop other handlers.
	Handle(ctx context.Context, event Event) error

	// Name returns the handler name for logging.
	Name() string
}

// EventHandlerFunc adapts a function to the EventHandler interface.
type EventHandlerFunc struct {
	HandlerName string
	Fn          func(ctx context.Context, event Event) error
}

// Handle implements EventHandler.
func (f EventHandlerFunc) Handle(ctx context.Context, event Event) error {
	return f.Fn(ctx, event)
}

// Name implements EventHandler.
func (f EventHandlerFunc) Name() string {
	return f.HandlerName
}

// EventPublisher publishes domain events to interested subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// ReportExecutionCompletedEvent is published when a report execution finishes
// successfully; the delivery dispatcher consumes it.
type ReportExecutionCompletedEvent struct {
	BaseEvent
	ReportID     string   `json:"report_id"`
	ExecutionID  string   `json:"execution_id"`
	ArtifactRefs []string `json:"artifact_refs"`
	Recipients   []string `json:"recipients,omitempty"`
}

// Payload implements Event.
func (e ReportExecutionCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"report_id":     e.ReportID,
		"execution_id":  e.ExecutionID,
		"artifact_refs": e.ArtifactRefs,
		"recipients":    e.Recipients,
	}
}

// ExportCompletedEvent is published when a data export finishes.
type ExportCompletedEvent struct {
	BaseEvent
	ExportID    string `json:"export_id"`
	RequesterID string `json:"requester_id"`
	ArtifactRef string `json:"artifact_ref"`
}

// Payload implements Event.
func (e ExportCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"export_id":    e.ExportID,
		"requester_id": e.RequesterID,
		"artifact_ref": e.ArtifactRef,
	}
}
