package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prepwise/prepwise-analytics/internal/domain/analysis"
	"github.com/prepwise/prepwise-analytics/internal/domain/comparison"
	"github.com/prepwise/prepwise-analytics/internal/domain/metric"
	"github.com/prepwise/prepwise-analytics/internal/domain/prediction"
	"github.com/prepwise/prepwise-analytics/internal/domain/report"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
	"github.com/prepwise/prepwise-analytics/pkg/metrics"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPORT ENGINE
// ══════════════════════════════════════════════════════════════════════════════

// Comparer computes a comparative analysis for one subject and metric.
// The engine takes an interface so the report path and the API path
// share one implementation, including its cache.
type Comparer interface {
	Compare(ctx context.Context, subjectID shared.SubjectID, name shared.MetricName, def comparison.CohortDefinition) (*comparison.ComparativeAnalysis, error)
}

// ReportEngineConfig wires the engine's collaborators.
type ReportEngineConfig struct {
	Definitions report.DefinitionRepository
	Executions  report.ExecutionRepository
	Metrics     metric.Repository
	Predictions prediction.Repository
	Comparer    Comparer
	Store       *ArtifactStore
	Publisher   shared.EventPublisher
	Analysis    analysis.Options
	Horizon     time.Duration
	Logger      *slog.Logger
	Monitor     *metrics.Manager
}

// ReportEngine materializes report definitions into executions and
// artifacts. Each output format renders independently from one computed
// document; a format failure never rolls back artifacts already stored.
type ReportEngine struct {
	defs        report.DefinitionRepository
	execs       report.ExecutionRepository
	metricRepo  metric.Repository
	predictions prediction.Repository
	comparer    Comparer
	store       *ArtifactStore
	publisher   shared.EventPublisher
	analysis    analysis.Options
	horizon     time.Duration
	logger      *slog.Logger
	monitor     *metrics.Manager
}

// NewReportEngine creates a ReportEngine.
func NewReportEngine(cfg ReportEngineConfig) *ReportEngine {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Horizon <= 0 {
		cfg.Horizon = 7 * 24 * time.Hour
	}
	return &ReportEngine{
		defs:        cfg.Definitions,
		execs:       cfg.Executions,
		metricRepo:  cfg.Metrics,
		predictions: cfg.Predictions,
		comparer:    cfg.Comparer,
		store:       cfg.Store,
		publisher:   cfg.Publisher,
		analysis:    cfg.Analysis,
		horizon:     cfg.Horizon,
		logger:      cfg.Logger,
		monitor:     cfg.Monitor,
	}
}

// RunTick claims the schedule tick for a definition and executes it.
// A tick already claimed by another scheduler pass (or instance sharing
// the database) returns shared.ErrDuplicateTick without running anything.
func (e *ReportEngine) RunTick(ctx context.Context, def *report.Definition, tick time.Time) (*report.Execution, error) {
	exec, err := report.NewExecution(uuid.NewString(), def.ID, &tick)
	if err != nil {
		return nil, err
	}
	if err := e.execs.Create(ctx, exec); err != nil {
		return nil, err
	}
	return exec, e.run(ctx, def, exec)
}

// Trigger creates and executes an ad hoc run of a report.
func (e *ReportEngine) Trigger(ctx context.Context, reportID string) (*report.Execution, error) {
	def, err := e.defs.Find(ctx, reportID)
	if err != nil {
		return nil, err
	}

	exec, err := report.NewExecution(uuid.NewString(), def.ID, nil)
	if err != nil {
		return nil, err
	}
	if err := e.execs.Create(ctx, exec); err != nil {
		return nil, err
	}
	return exec, e.run(ctx, def, exec)
}

// Resume executes an already-created pending execution, used when a
// trigger request only enqueued the run.
func (e *ReportEngine) Resume(ctx context.Context, exec *report.Execution) error {
	def, err := e.defs.Find(ctx, exec.ReportID)
	if err != nil {
		return err
	}
	return e.run(ctx, def, exec)
}

// run drives one execution through the state machine.
func (e *ReportEngine) run(ctx context.Context, def *report.Definition, exec *report.Execution) error {
	now := time.Now().UTC()
	if err := exec.Start(now); err != nil {
		return err
	}
	if err := e.execs.Update(ctx, exec); err != nil {
		return err
	}

	logger := e.logger.With("report_id", def.ID, "execution_id", exec.ID)

	doc, err := e.buildDocument(ctx, def, exec)
	if err != nil {
		return e.fail(ctx, exec, nil, fmt.Sprintf("document build failed: %v", err), logger)
	}

	artifacts := make([]report.ArtifactRef, 0, len(def.Formats))
	var renderFailures []string
	for _, format := range def.Formats {
		data, renderErr := Render(doc, format)
		if renderErr != nil {
			renderFailures = append(renderFailures, fmt.Sprintf("%s: %v", format, renderErr))
			continue
		}
		ref, size, putErr := e.store.Put(data, format.String())
		if putErr != nil {
			renderFailures = append(renderFailures, fmt.Sprintf("%s: %v", format, putErr))
			continue
		}
		artifacts = append(artifacts, report.ArtifactRef{Format: format, Ref: ref, SizeBytes: size})
	}

	if len(renderFailures) > 0 {
		return e.fail(ctx, exec, artifacts, strings.Join(renderFailures, "; "), logger)
	}

	if err := exec.Complete(time.Now().UTC(), artifacts); err != nil {
		return err
	}
	if err := e.execs.Update(ctx, exec); err != nil {
		return err
	}

	if e.monitor != nil {
		e.monitor.ReportExecution(string(report.StatusCompleted))
	}
	logger.Info("report execution completed", "artifacts", len(artifacts))

	if e.publisher != nil {
		refs := make([]string, len(artifacts))
		for i, a := range artifacts {
			refs[i] = a.Ref
		}
		evt := shared.ReportExecutionCompletedEvent{
			BaseEvent:    shared.NewBaseEvent(shared.EventReportExecutionCompleted, exec.ID),
			ReportID:     def.ID,
			ExecutionID:  exec.ID,
			ArtifactRefs: refs,
			Recipients:   def.Recipients,
		}
		if pubErr := e.publisher.Publish(ctx, evt); pubErr != nil {
			logger.Warn("failed to publish completion event", "error", pubErr)
		}
	}
	return nil
}

// fail records a failed execution, keeping any artifacts that rendered
// before the failure.
func (e *ReportEngine) fail(ctx context.Context, exec *report.Execution, artifacts []report.ArtifactRef, message string, logger *slog.Logger) error {
	if err := exec.Fail(time.Now().UTC(), message, artifacts); err != nil {
		return err
	}
	if err := e.execs.Update(ctx, exec); err != nil {
		return err
	}
	if e.monitor != nil {
		e.monitor.ReportExecution(string(report.StatusFailed))
	}
	logger.Error("report execution failed", "error", message)
	return shared.WrapError("report", "Run", shared.ErrExecutionFailed, message, nil)
}

// buildDocument computes every section of the report. Statistical
// insufficiency is captured per section; only storage errors abort the
// document.
func (e *ReportEngine) buildDocument(ctx context.Context, def *report.Definition, exec *report.Execution) (*Document, error) {
	ref := time.Now().UTC()
	if exec.ScheduledFor != nil {
		ref = *exec.ScheduledFor
	}
	lookback := def.Lookback(ref)

	doc := &Document{
		ReportID:    def.ID,
		ExecutionID: exec.ID,
		Name:        def.Name,
		SubjectID:   def.SubjectID,
		Range:       lookback,
		GeneratedAt: time.Now().UTC(),
		Sections:    make([]Section, 0, len(def.Selectors)),
	}

	for _, sel := range def.Selectors {
		sec, err := e.buildSection(ctx, def, sel, lookback)
		if err != nil {
			return nil, err
		}
		doc.Sections = append(doc.Sections, sec)
	}
	return doc, nil
}

func (e *ReportEngine) buildSection(ctx context.Context, def *report.Definition, sel report.MetricSelector, lookback shared.TimeRange) (Section, error) {
	sec := Section{
		Kind:         sel.Kind,
		Metric:       sel.Metric,
		SecondMetric: sel.SecondMetric,
		Status:       SectionOK,
	}

	series, err := e.metricRepo.QuerySeries(ctx, def.SubjectID, sel.Metric, lookback)
	if err != nil {
		return sec, err
	}

	switch sel.Kind {
	case report.SectionSeries:
		points := make([]SeriesPoint, len(series.Points))
		for i, p := range series.Points {
			points[i] = SeriesPoint{Timestamp: p.Timestamp, Value: p.Value}
		}
		sec.Series = &SeriesData{Points: points}

	case report.SectionTrend:
		result := analysis.DetectTrend(series, e.analysis)
		if result.Insufficient {
			sec.Status = SectionInsufficient
			sec.Detail = "too few points for a trend fit"
		}
		sec.Trend = &result

	case report.SectionAnomalies:
		result := analysis.DetectAnomalies(series, e.analysis)
		if result.Insufficient {
			sec.Status = SectionInsufficient
			sec.Detail = "too few points for anomaly detection"
		}
		sec.Anomalies = &result

	case report.SectionForecast:
		model, fcErr := prediction.Forecast(uuid.NewString(), series, e.horizon, e.analysis)
		if fcErr != nil {
			if shared.IsInsufficientData(fcErr) {
				sec.Status = SectionInsufficient
				sec.Detail = "too few points to forecast"
				break
			}
			return sec, fcErr
		}
		if e.predictions != nil {
			if saveErr := e.predictions.Save(ctx, model); saveErr != nil {
				return sec, saveErr
			}
		}
		sec.Forecast = &ForecastData{
			ModelID:     model.ID,
			Predicted:   model.Predicted,
			Low:         model.Interval.Low,
			High:        model.Interval.High,
			Horizon:     model.Horizon.String(),
			GeneratedAt: model.GeneratedAt,
		}

	case report.SectionComparison:
		result, cmpErr := e.comparer.Compare(ctx, def.SubjectID, sel.Metric, comparison.CohortDefinition{})
		if cmpErr != nil {
			if shared.IsInsufficientData(cmpErr) || shared.IsNotFound(cmpErr) {
				sec.Status = SectionInsufficient
				sec.Detail = "not enough peers or data for comparison"
				break
			}
			return sec, cmpErr
		}
		sec.Comparison = result

	case report.SectionCorrelation:
		second, qErr := e.metricRepo.QuerySeries(ctx, def.SubjectID, sel.SecondMetric, lookback)
		if qErr != nil {
			return sec, qErr
		}
		result := analysis.Correlate(series, second, e.analysis)
		if result.Insufficient {
			sec.Status = SectionInsufficient
			sec.Detail = "too few aligned pairs for correlation"
		}
		sec.Correlation = &result

	default:
		sec.Status = SectionError
		sec.Detail = "unknown section kind"
	}

	return sec, nil
}
