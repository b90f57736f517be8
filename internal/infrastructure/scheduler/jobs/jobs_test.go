package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepwise/prepwise-analytics/internal/domain/analysis"
	"github.com/prepwise/prepwise-analytics/internal/domain/event"
	"github.com/prepwise/prepwise-analytics/internal/domain/export"
	"github.com/prepwise/prepwise-analytics/internal/domain/metric"
	"github.com/prepwise/prepwise-analytics/internal/domain/report"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
	"github.com/prepwise/prepwise-analytics/internal/infrastructure/persistence/memory"
	"github.com/prepwise/prepwise-analytics/internal/infrastructure/service"
)

const jobsSubject = shared.SubjectID("3f1c2b4a-0000-4000-8000-000000000001")

func TestPruneEventsJob(t *testing.T) {
	events := memory.NewEventRepository()
	ctx := context.Background()

	old, err := event.NewEvent("evt-old", jobsSubject, event.CategoryPageViewed, time.Now().UTC().Add(-40*24*time.Hour))
	require.NoError(t, err)
	require.NoError(t, events.Record(ctx, old))

	fresh, err := event.NewEvent("evt-fresh", jobsSubject, event.CategoryPageViewed, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	require.NoError(t, events.Record(ctx, fresh))

	job := NewPruneEventsJob(events, event.RetentionPolicy{MaxAge: 30 * 24 * time.Hour}, nil)
	require.NoError(t, job.Run(ctx))

	tr, err := shared.NewTimeRange(time.Now().UTC().Add(-60*24*time.Hour), time.Now().UTC())
	require.NoError(t, err)
	remaining, err := events.Query(ctx, jobsSubject, "", tr)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "evt-fresh", remaining[0].ID)
}

func TestPruneEventsJobDisabledPolicy(t *testing.T) {
	events := memory.NewEventRepository()
	ctx := context.Background()

	e, err := event.NewEvent("evt-1", jobsSubject, event.CategoryPageViewed, time.Now().UTC().Add(-400*24*time.Hour))
	require.NoError(t, err)
	require.NoError(t, events.Record(ctx, e))

	job := NewPruneEventsJob(events, event.RetentionPolicy{}, nil)
	require.NoError(t, job.Run(ctx))

	tr, err := shared.NewTimeRange(time.Now().UTC().Add(-500*24*time.Hour), time.Now().UTC())
	require.NoError(t, err)
	remaining, err := events.Query(ctx, jobsSubject, "", tr)
	require.NoError(t, err)
	assert.Len(t, remaining, 1, "zero max age disables pruning")
}

func TestRunDueReportsJobClaimsDueTick(t *testing.T) {
	ctx := context.Background()
	defs := memory.NewReportDefinitionRepository()
	execs := memory.NewReportExecutionRepository()
	metricRepo := memory.NewMetricRepository()

	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		m, err := metric.NewMetric("m-"+string(rune('a'+i)), jobsSubject, "overall_band",
			metric.ModuleOverall, 5.0+0.1*float64(i), now.Add(time.Duration(i-6)*24*time.Hour))
		require.NoError(t, err)
		require.NoError(t, metricRepo.Record(ctx, m))
	}

	def, err := report.NewDefinition("report-1", jobsSubject, jobsSubject, "nightly",
		[]report.MetricSelector{{Kind: report.SectionTrend, Metric: "overall_band"}}, nil)
	require.NoError(t, err)
	// With a 25h look-behind the due tick is always today's midnight,
	// no matter when the test runs.
	def.Schedule = "0 0 * * *"
	require.NoError(t, defs.Save(ctx, def))

	store, err := service.NewArtifactStore(t.TempDir())
	require.NoError(t, err)
	engine := service.NewReportEngine(service.ReportEngineConfig{
		Definitions: defs,
		Executions:  execs,
		Metrics:     metricRepo,
		Store:       store,
		Analysis:    analysis.DefaultOptions(),
	})

	job := NewRunDueReportsJob(defs, engine, 25*time.Hour, nil)
	require.NoError(t, job.Run(ctx))

	execsPage, err := execs.ListByReport(ctx, "report-1", shared.NewPagination(1, 10))
	require.NoError(t, err)
	require.Len(t, execsPage, 1)
	assert.Equal(t, report.StatusCompleted, execsPage[0].Status)

	// A second pass finds the tick claimed and does not run the report
	// again.
	require.NoError(t, job.Run(ctx))
	execsPage, err = execs.ListByReport(ctx, "report-1", shared.NewPagination(1, 10))
	require.NoError(t, err)
	assert.Len(t, execsPage, 1)
}

func TestRunExportsJobDrainsQueue(t *testing.T) {
	ctx := context.Background()
	exports := memory.NewExportRepository()
	events := memory.NewEventRepository()
	metricRepo := memory.NewMetricRepository()

	store, err := service.NewArtifactStore(t.TempDir())
	require.NoError(t, err)
	svc := service.NewExportService(service.ExportServiceConfig{
		Exports: exports,
		Events:  events,
		Metrics: metricRepo,
		Store:   store,
	})

	now := time.Now().UTC()
	exp, err := export.NewDataExport("export-1", jobsSubject, export.Scope{
		Kind:      export.KindMetrics,
		SubjectID: jobsSubject,
		Metric:    "overall_band",
		Range:     shared.TimeRange{Start: now.Add(-24 * time.Hour), End: now},
	}, export.FormatJSON)
	require.NoError(t, err)
	require.NoError(t, exports.Create(ctx, exp))

	job := NewRunExportsJob(exports, svc, 10, nil)
	require.NoError(t, job.Run(ctx))

	stored, err := exports.Find(ctx, "export-1")
	require.NoError(t, err)
	assert.Equal(t, export.StatusCompleted, stored.Status)

	pending, err := exports.ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
