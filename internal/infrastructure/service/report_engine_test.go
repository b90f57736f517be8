package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepwise/prepwise-analytics/internal/domain/analysis"
	"github.com/prepwise/prepwise-analytics/internal/domain/metric"
	"github.com/prepwise/prepwise-analytics/internal/domain/report"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
	"github.com/prepwise/prepwise-analytics/internal/infrastructure/persistence/memory"
)

const engineSubject = shared.SubjectID("3f1c2b4a-0000-4000-8000-000000000001")

type engineFixture struct {
	defs       *memory.ReportDefinitionRepository
	execs      *memory.ReportExecutionRepository
	metricRepo *memory.MetricRepository
	store      *ArtifactStore
	engine     *ReportEngine
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	store, err := NewArtifactStore(t.TempDir())
	require.NoError(t, err)

	f := &engineFixture{
		defs:       memory.NewReportDefinitionRepository(),
		execs:      memory.NewReportExecutionRepository(),
		metricRepo: memory.NewMetricRepository(),
		store:      store,
	}
	f.engine = NewReportEngine(ReportEngineConfig{
		Definitions: f.defs,
		Executions:  f.execs,
		Metrics:     f.metricRepo,
		Predictions: memory.NewPredictionRepository(),
		Store:       store,
		Analysis:    analysis.DefaultOptions(),
		Horizon:     7 * 24 * time.Hour,
	})
	return f
}

func (f *engineFixture) seedDefinition(t *testing.T, selectors ...report.MetricSelector) *report.Definition {
	t.Helper()
	def, err := report.NewDefinition("report-1", engineSubject, engineSubject, "weekly progress",
		selectors, []report.OutputFormat{report.FormatJSON, report.FormatCSV})
	require.NoError(t, err)
	require.NoError(t, f.defs.Save(context.Background(), def))
	return def
}

func (f *engineFixture) seedBandHistory(t *testing.T, n int) {
	t.Helper()
	now := time.Now().UTC()
	for i := 0; i < n; i++ {
		m, err := metric.NewMetric("m-"+string(rune('a'+i)), engineSubject, "overall_band",
			metric.ModuleOverall, 5.0+0.1*float64(i), now.Add(time.Duration(i-n)*24*time.Hour))
		require.NoError(t, err)
		require.NoError(t, f.metricRepo.Record(context.Background(), m))
	}
}

func TestTriggerCompletesWithArtifacts(t *testing.T) {
	f := newEngineFixture(t)
	f.seedBandHistory(t, 6)
	f.seedDefinition(t,
		report.MetricSelector{Kind: report.SectionTrend, Metric: "overall_band"},
		report.MetricSelector{Kind: report.SectionSeries, Metric: "overall_band"},
	)

	exec, err := f.engine.Trigger(context.Background(), "report-1")
	require.NoError(t, err)

	assert.Equal(t, report.StatusCompleted, exec.Status)
	assert.True(t, exec.IsAdHoc())
	require.Len(t, exec.Artifacts, 2)

	// The stored JSON artifact is a well-formed document.
	var jsonRef string
	for _, a := range exec.Artifacts {
		if a.Format == report.FormatJSON {
			jsonRef = a.Ref
		}
		assert.Greater(t, a.SizeBytes, int64(0))
	}
	require.NotEmpty(t, jsonRef)

	data, err := f.store.Get(jsonRef)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "report-1", doc["report_id"])

	// The terminal state is persisted.
	stored, err := f.execs.Find(context.Background(), exec.ID)
	require.NoError(t, err)
	assert.Equal(t, report.StatusCompleted, stored.Status)
}

func TestTriggerUnknownReport(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.Trigger(context.Background(), "missing")
	assert.True(t, shared.IsNotFound(err))
}

func TestRunTickClaimsTickOnce(t *testing.T) {
	f := newEngineFixture(t)
	f.seedBandHistory(t, 6)
	def := f.seedDefinition(t, report.MetricSelector{Kind: report.SectionTrend, Metric: "overall_band"})

	tick := time.Now().UTC().Truncate(time.Minute)

	exec, err := f.engine.RunTick(context.Background(), def, tick)
	require.NoError(t, err)
	assert.Equal(t, report.StatusCompleted, exec.Status)
	require.NotNil(t, exec.ScheduledFor)
	assert.Equal(t, tick, *exec.ScheduledFor)

	// A second pass over the same tick is rejected before running anything.
	_, err = f.engine.RunTick(context.Background(), def, tick)
	assert.ErrorIs(t, err, shared.ErrTickAlreadyClaimed)
}

func TestInsufficientDataSectionsStillComplete(t *testing.T) {
	f := newEngineFixture(t)
	// One lone point: trend, anomalies, and forecast all come up short,
	// but the report itself renders with insufficient sections.
	f.seedBandHistory(t, 1)
	f.seedDefinition(t,
		report.MetricSelector{Kind: report.SectionTrend, Metric: "overall_band"},
		report.MetricSelector{Kind: report.SectionAnomalies, Metric: "overall_band"},
		report.MetricSelector{Kind: report.SectionForecast, Metric: "overall_band"},
	)

	exec, err := f.engine.Trigger(context.Background(), "report-1")
	require.NoError(t, err)
	assert.Equal(t, report.StatusCompleted, exec.Status)

	var jsonRef string
	for _, a := range exec.Artifacts {
		if a.Format == report.FormatJSON {
			jsonRef = a.Ref
		}
	}
	data, err := f.store.Get(jsonRef)
	require.NoError(t, err)

	var doc struct {
		Sections []struct {
			Kind   string `json:"kind"`
			Status string `json:"status"`
		} `json:"sections"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Sections, 3)
	for _, sec := range doc.Sections {
		assert.Equal(t, string(SectionInsufficient), sec.Status, sec.Kind)
	}
}

func TestArtifactStoreRoundTrip(t *testing.T) {
	store, err := NewArtifactStore(t.TempDir())
	require.NoError(t, err)

	ref, size, err := store.Put([]byte(`{"ok":true}`), "json")
	require.NoError(t, err)
	assert.Equal(t, int64(11), size)

	data, err := store.Get(ref)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(data))

	// Identical content addresses the same artifact.
	ref2, _, err := store.Put([]byte(`{"ok":true}`), "json")
	require.NoError(t, err)
	assert.Equal(t, ref, ref2)
}

func TestArtifactStoreRejectsTraversal(t *testing.T) {
	store, err := NewArtifactStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get("../etc/passwd")
	assert.Error(t, err)

	_, err = store.Get("nested/ref.json")
	assert.Error(t, err)
}
