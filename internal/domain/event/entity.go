// Package event contains the immutable behavioral event records ingested
// from instrumentation call sites (practice-session pages, scoring
// pipelines). Events are append-only: they are never mutated after being
// recorded, and are retained per a configurable retention policy.
// This is a pure domain layer with zero external dependencies.
package event

import (
	"strings"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// Category classifies behavioral events. Known categories get structured
// attribute validation instead of the open-ended maps the instrumentation
// sends; unknown categories are rejected at the edge.
type Category string

const (
	CategorySessionStarted   Category = "session_started"
	CategorySessionEnded     Category = "session_ended"
	CategoryQuestionAnswered Category = "question_answered"
	CategoryExamSubmitted    Category = "exam_submitted"
	CategoryPageViewed       Category = "page_viewed"
	CategoryFeatureUsed      Category = "feature_used"
)

// IsValid checks if the category is known.
func (c Category) IsValid() bool {
	switch c {
	case CategorySessionStarted, CategorySessionEnded, CategoryQuestionAnswered,
		CategoryExamSubmitted, CategoryPageViewed, CategoryFeatureUsed:
		return true
	}
	return false
}

// String returns the string representation.
func (c Category) String() string {
	return string(c)
}

// ParseCategory parses a category from its string form.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", shared.NewDomainError("event", "ParseCategory", shared.ErrInvalidInput, "unknown event category")
	}
	return c, nil
}

// Event is an immutable behavioral record. The ID is supplied by the
// client so that retried writes can be deduplicated.
type Event struct {
	ID         string
	SubjectID  shared.SubjectID
	Category   Category
	OccurredAt time.Time
	Device     string
	SessionID  string
	Attributes map[string]string
}

// NewEvent creates a new Event with validation. A small clock-skew
// tolerance is allowed on OccurredAt because instrumentation clients
// stamp events locally.
func NewEvent(id string, subjectID shared.SubjectID, category Category, occurredAt time.Time) (*Event, error) {
	if strings.TrimSpace(id) == "" {
		return nil, shared.NewDomainError("event", "New", shared.ErrInvalidID, "event ID is required")
	}
	if !subjectID.IsValid() {
		return nil, shared.NewDomainError("event", "New", shared.ErrInvalidID, "invalid subject ID")
	}
	if !category.IsValid() {
		return nil, shared.NewDomainError("event", "New", shared.ErrInvalidInput, "invalid event category")
	}
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	if occurredAt.After(time.Now().Add(time.Minute)) {
		return nil, shared.NewDomainError("event", "New", shared.ErrFutureTimestamp, "event occurred_at is in the future")
	}

	return &Event{
		ID:         strings.TrimSpace(id),
		SubjectID:  subjectID,
		Category:   category,
		OccurredAt: occurredAt.UTC(),
		Attributes: make(map[string]string),
	}, nil
}

// WithAttribute sets a single attribute and returns the event for chaining.
func (e *Event) WithAttribute(key, value string) *Event {
	if e.Attributes == nil {
		e.Attributes = make(map[string]string)
	}
	e.Attributes[key] = value
	return e
}

// RetentionPolicy bounds how long raw events are kept. Metrics are not
// subject to retention; only the raw behavioral stream is pruned.
type RetentionPolicy struct {
	MaxAge time.Duration
}

// CutoffBefore returns the timestamp before which events are prunable.
func (p RetentionPolicy) CutoffBefore(now time.Time) time.Time {
	return now.Add(-p.MaxAge).UTC()
}

// Enabled reports whether the policy prunes anything at all.
func (p RetentionPolicy) Enabled() bool {
	return p.MaxAge > 0
}
