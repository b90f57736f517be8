// Package delivery forwards finished report and export artifacts to
// recipients. The analytics core does not speak email or chat itself;
// it hands artifact references to a downstream channel and protects
// the scheduler loop from a broken channel with a circuit breaker.
package delivery

import (
	"context"
	"log/slog"

	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
	"github.com/prepwise/prepwise-analytics/pkg/circuitbreaker"
)

// Channel is the downstream delivery collaborator. Implementations wrap
// a mail gateway, a webhook, or in development a log sink.
type Channel interface {
	// Deliver pushes artifact references to the recipients.
	Deliver(ctx context.Context, recipients []string, artifactRefs []string) error
}

// LogChannel is the development Channel: it logs instead of sending.
type LogChannel struct {
	Logger *slog.Logger
}

// Deliver implements Channel.
func (c LogChannel) Deliver(ctx context.Context, recipients []string, artifactRefs []string) error {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("delivery (log channel)",
		"recipients", recipients,
		"artifacts", artifactRefs,
	)
	return nil
}

// Dispatcher subscribes to completion events and forwards artifacts to
// the channel through a circuit breaker.
type Dispatcher struct {
	channel Channel
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(channel Channel, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		channel: channel,
		logger:  logger,
	}
	d.breaker = circuitbreaker.New(circuitbreaker.Config{
		OnStateChange: func(from, to circuitbreaker.State) {
			logger.Warn("delivery circuit state change", "from", from.String(), "to", to.String())
		},
	})
	return d
}

// Handle implements shared.EventHandler for report and export
// completion events.
func (d *Dispatcher) Handle(ctx context.Context, event shared.Event) error {
	var recipients, artifacts []string

	switch e := event.(type) {
	case shared.ReportExecutionCompletedEvent:
		recipients = e.Recipients
		artifacts = e.ArtifactRefs
	case shared.ExportCompletedEvent:
		recipients = []string{e.RequesterID}
		if e.ArtifactRef != "" {
			artifacts = []string{e.ArtifactRef}
		}
	default:
		return nil
	}

	if len(recipients) == 0 {
		return nil
	}

	err := d.breaker.Execute(ctx, func(ctx context.Context) error {
		return d.channel.Deliver(ctx, recipients, artifacts)
	})
	if err != nil {
		d.logger.Error("delivery failed",
			"event_type", event.EventType(),
			"aggregate_id", event.AggregateID(),
			"error", err,
		)
	}
	return err
}

// Name implements shared.EventHandler.
func (d *Dispatcher) Name() string {
	return "delivery-dispatcher"
}
