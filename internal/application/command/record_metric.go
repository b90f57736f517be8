package command

import (
	"context"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/metric"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
	"github.com/prepwise/prepwise-analytics/internal/domain/subject"
	"github.com/prepwise/prepwise-analytics/pkg/metrics"
	"github.com/prepwise/prepwise-analytics/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD METRIC COMMAND
// Ingests one derived performance measurement. Metrics are append-only;
// corrections arrive as new points with new IDs, never as edits.
// ══════════════════════════════════════════════════════════════════════════════

// RecordMetricCommand contains the data to record a metric point.
type RecordMetricCommand struct {
	// MetricID is the client-supplied deduplication ID.
	MetricID string

	// SubjectID is the learner the measurement belongs to.
	SubjectID string

	// Name is the metric series name (snake_case).
	Name string

	// Module is the skill area (listening, reading, writing, speaking, overall).
	Module string

	// Value is the measurement; must be finite.
	Value float64

	// RecordedAt is the measurement time; zero means now.
	RecordedAt time.Time

	// Metadata carries optional measurement context.
	Metadata map[string]string
}

// RecordMetricResult contains the result of recording a metric.
type RecordMetricResult struct {
	MetricID   string    `json:"metric_id"`
	SubjectID  string    `json:"subject_id"`
	Name       string    `json:"name"`
	RecordedAt time.Time `json:"recorded_at"`
}

// RecordMetricHandler handles the RecordMetricCommand.
type RecordMetricHandler struct {
	metrics  metric.Repository
	subjects subject.Repository
	monitor  *metrics.Manager
}

// NewRecordMetricHandler creates a new RecordMetricHandler.
func NewRecordMetricHandler(metricRepo metric.Repository, subjects subject.Repository, monitor *metrics.Manager) *RecordMetricHandler {
	return &RecordMetricHandler{metrics: metricRepo, subjects: subjects, monitor: monitor}
}

// Handle executes the record metric command.
func (h *RecordMetricHandler) Handle(ctx context.Context, cmd RecordMetricCommand) (*RecordMetricResult, error) {
	subjectID, err := shared.NewSubjectID(cmd.SubjectID)
	if err != nil {
		return nil, err
	}
	name, err := shared.NewMetricName(cmd.Name)
	if err != nil {
		return nil, err
	}
	module, err := metric.ParseModule(cmd.Module)
	if err != nil {
		return nil, err
	}

	exists, err := h.subjects.Exists(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.ErrOrphanedReference
	}

	m, err := metric.NewMetric(cmd.MetricID, subjectID, name, module, cmd.Value, cmd.RecordedAt)
	if err != nil {
		return nil, err
	}
	for k, v := range cmd.Metadata {
		m.Metadata[k] = v
	}

	err = retry.Do(ctx, func(ctx context.Context) error {
		return h.metrics.Record(ctx, m)
	}, retry.WithRetryIf(shared.IsRetryable))
	if err != nil {
		if h.monitor != nil {
			h.monitor.IngestFailure()
		}
		return nil, err
	}

	if h.monitor != nil {
		h.monitor.MetricIngested()
	}

	return &RecordMetricResult{
		MetricID:   m.ID,
		SubjectID:  string(m.SubjectID),
		Name:       string(m.Name),
		RecordedAt: m.RecordedAt,
	}, nil
}
