package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/event"
	"github.com/prepwise/prepwise-analytics/internal/domain/export"
	"github.com/prepwise/prepwise-analytics/internal/domain/metric"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
	"github.com/prepwise/prepwise-analytics/pkg/metrics"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXPORT SERVICE
// ══════════════════════════════════════════════════════════════════════════════

// ExportServiceConfig wires the export service's collaborators.
type ExportServiceConfig struct {
	Exports   export.Repository
	Events    event.Repository
	Metrics   metric.Repository
	Store     *ArtifactStore
	Publisher shared.EventPublisher
	Logger    *slog.Logger
	Monitor   *metrics.Manager
}

// ExportService drains the export queue: it pulls the raw records an
// export's scope matches, renders them, and stores the artifact. A scope
// matching zero records still completes with an empty artifact.
type ExportService struct {
	exports   export.Repository
	events    event.Repository
	metrics   metric.Repository
	store     *ArtifactStore
	publisher shared.EventPublisher
	logger    *slog.Logger
	monitor   *metrics.Manager
}

// NewExportService creates an ExportService.
func NewExportService(cfg ExportServiceConfig) *ExportService {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &ExportService{
		exports:   cfg.Exports,
		events:    cfg.Events,
		metrics:   cfg.Metrics,
		store:     cfg.Store,
		publisher: cfg.Publisher,
		logger:    cfg.Logger,
		monitor:   cfg.Monitor,
	}
}

// Run executes one pending export end to end.
func (s *ExportService) Run(ctx context.Context, exp *export.DataExport) error {
	if err := exp.Start(time.Now().UTC()); err != nil {
		return err
	}
	if err := s.exports.Update(ctx, exp); err != nil {
		return err
	}

	if s.monitor != nil {
		s.monitor.ExportStarted()
		defer s.monitor.ExportFinished()
	}

	logger := s.logger.With("export_id", exp.ID, "kind", string(exp.Scope.Kind))

	data, err := s.pull(ctx, exp)
	if err != nil {
		return s.fail(ctx, exp, fmt.Sprintf("data pull failed: %v", err), logger)
	}

	exp.SetProgress(50)
	if err := s.exports.Update(ctx, exp); err != nil {
		return err
	}

	ref, _, err := s.store.Put(data, string(exp.Format))
	if err != nil {
		return s.fail(ctx, exp, fmt.Sprintf("artifact write failed: %v", err), logger)
	}

	if err := exp.Complete(time.Now().UTC(), ref); err != nil {
		return err
	}
	if err := s.exports.Update(ctx, exp); err != nil {
		return err
	}
	logger.Info("export completed", "artifact_ref", ref, "bytes", len(data))

	if s.publisher != nil {
		evt := shared.ExportCompletedEvent{
			BaseEvent:   shared.NewBaseEvent(shared.EventExportCompleted, exp.ID),
			ExportID:    exp.ID,
			RequesterID: string(exp.RequesterID),
			ArtifactRef: ref,
		}
		if pubErr := s.publisher.Publish(ctx, evt); pubErr != nil {
			logger.Warn("failed to publish export event", "error", pubErr)
		}
	}
	return nil
}

func (s *ExportService) fail(ctx context.Context, exp *export.DataExport, message string, logger *slog.Logger) error {
	if err := exp.Fail(time.Now().UTC(), message); err != nil {
		return err
	}
	if err := s.exports.Update(ctx, exp); err != nil {
		return err
	}
	logger.Error("export failed", "error", message)
	return shared.WrapError("export", "Run", shared.ErrExecutionFailed, message, nil)
}

// pull fetches and renders the records the scope matches.
func (s *ExportService) pull(ctx context.Context, exp *export.DataExport) ([]byte, error) {
	switch exp.Scope.Kind {
	case export.KindEvents:
		records, err := s.events.Query(ctx, exp.Scope.SubjectID, event.Category(exp.Scope.Category), exp.Scope.Range)
		if err != nil {
			return nil, err
		}
		return renderEvents(records, exp.Format)

	case export.KindMetrics:
		series, err := s.metrics.QuerySeries(ctx, exp.Scope.SubjectID, exp.Scope.Metric, exp.Scope.Range)
		if err != nil {
			return nil, err
		}
		return renderMetricSeries(series, exp.Format)

	default:
		return nil, shared.ErrInvalidScope
	}
}

type exportedEvent struct {
	ID         string            `json:"id"`
	SubjectID  string            `json:"subject_id"`
	Category   string            `json:"category"`
	OccurredAt time.Time         `json:"occurred_at"`
	Device     string            `json:"device,omitempty"`
	SessionID  string            `json:"session_id,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

func renderEvents(records []*event.Event, format export.Format) ([]byte, error) {
	switch format {
	case export.FormatJSON:
		out := make([]exportedEvent, len(records))
		for i, e := range records {
			out[i] = exportedEvent{
				ID:         e.ID,
				SubjectID:  string(e.SubjectID),
				Category:   string(e.Category),
				OccurredAt: e.OccurredAt,
				Device:     e.Device,
				SessionID:  e.SessionID,
				Attributes: e.Attributes,
			}
		}
		return json.MarshalIndent(out, "", "  ")

	case export.FormatCSV:
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if err := w.Write([]string{"id", "subject_id", "category", "occurred_at", "device", "session_id"}); err != nil {
			return nil, err
		}
		for _, e := range records {
			if err := w.Write([]string{
				e.ID,
				string(e.SubjectID),
				string(e.Category),
				e.OccurredAt.UTC().Format(time.RFC3339),
				e.Device,
				e.SessionID,
			}); err != nil {
				return nil, err
			}
		}
		w.Flush()
		return buf.Bytes(), w.Error()

	default:
		return nil, shared.NewDomainError("export", "Render", shared.ErrInvalidInput, "unsupported export format")
	}
}

type exportedPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

func renderMetricSeries(series metric.Series, format export.Format) ([]byte, error) {
	points := make([]exportedPoint, len(series.Points))
	for i, p := range series.Points {
		points[i] = exportedPoint{Timestamp: p.Timestamp, Value: p.Value}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Timestamp.Before(points[j].Timestamp) })

	switch format {
	case export.FormatJSON:
		return json.MarshalIndent(points, "", "  ")

	case export.FormatCSV:
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if err := w.Write([]string{"timestamp", "value"}); err != nil {
			return nil, err
		}
		for _, p := range points {
			if err := w.Write([]string{
				p.Timestamp.UTC().Format(time.RFC3339),
				strconv.FormatFloat(p.Value, 'g', -1, 64),
			}); err != nil {
				return nil, err
			}
		}
		w.Flush()
		return buf.Bytes(), w.Error()

	default:
		return nil, shared.NewDomainError("export", "Render", shared.ErrInvalidInput, "unsupported export format")
	}
}
