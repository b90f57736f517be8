package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepwise/prepwise-analytics/internal/domain/event"
	"github.com/prepwise/prepwise-analytics/internal/domain/export"
	"github.com/prepwise/prepwise-analytics/internal/domain/metric"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
	"github.com/prepwise/prepwise-analytics/internal/infrastructure/persistence/memory"
)

type exportFixture struct {
	exports    *memory.ExportRepository
	events     *memory.EventRepository
	metricRepo *memory.MetricRepository
	store      *ArtifactStore
	svc        *ExportService
}

func newExportFixture(t *testing.T) *exportFixture {
	t.Helper()

	store, err := NewArtifactStore(t.TempDir())
	require.NoError(t, err)

	f := &exportFixture{
		exports:    memory.NewExportRepository(),
		events:     memory.NewEventRepository(),
		metricRepo: memory.NewMetricRepository(),
		store:      store,
	}
	f.svc = NewExportService(ExportServiceConfig{
		Exports: f.exports,
		Events:  f.events,
		Metrics: f.metricRepo,
		Store:   store,
	})
	return f
}

func (f *exportFixture) newExport(t *testing.T, scope export.Scope, format export.Format) *export.DataExport {
	t.Helper()
	exp, err := export.NewDataExport("export-1", engineSubject, scope, format)
	require.NoError(t, err)
	require.NoError(t, f.exports.Create(context.Background(), exp))
	return exp
}

func TestExportMetricsJSON(t *testing.T) {
	f := newExportFixture(t)
	now := time.Now().UTC()

	for i, v := range []float64{5.5, 6.0, 6.5} {
		m, err := metric.NewMetric("m-"+string(rune('a'+i)), engineSubject, "overall_band",
			metric.ModuleOverall, v, now.Add(time.Duration(i-4)*time.Hour))
		require.NoError(t, err)
		require.NoError(t, f.metricRepo.Record(context.Background(), m))
	}

	exp := f.newExport(t, export.Scope{
		Kind:      export.KindMetrics,
		SubjectID: engineSubject,
		Metric:    "overall_band",
		Range:     shared.TimeRange{Start: now.Add(-24 * time.Hour), End: now},
	}, export.FormatJSON)

	require.NoError(t, f.svc.Run(context.Background(), exp))

	assert.Equal(t, export.StatusCompleted, exp.Status)
	assert.Equal(t, 100, exp.ProgressPct)
	require.NotEmpty(t, exp.ArtifactRef)

	data, err := f.store.Get(exp.ArtifactRef)
	require.NoError(t, err)
	var points []struct {
		Value float64 `json:"value"`
	}
	require.NoError(t, json.Unmarshal(data, &points))
	require.Len(t, points, 3)
	assert.Equal(t, 5.5, points[0].Value)
}

func TestExportEventsCSV(t *testing.T) {
	f := newExportFixture(t)
	now := time.Now().UTC()

	e, err := event.NewEvent("evt-1", engineSubject, event.CategoryExamSubmitted, now.Add(-time.Hour))
	require.NoError(t, err)
	require.NoError(t, f.events.Record(context.Background(), e))

	exp := f.newExport(t, export.Scope{
		Kind:      export.KindEvents,
		SubjectID: engineSubject,
		Range:     shared.TimeRange{Start: now.Add(-24 * time.Hour), End: now},
	}, export.FormatCSV)

	require.NoError(t, f.svc.Run(context.Background(), exp))

	data, err := f.store.Get(exp.ArtifactRef)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2, "header plus one record")
	assert.Contains(t, lines[0], "category")
	assert.Contains(t, lines[1], "exam_submitted")
}

func TestExportEmptyScopeCompletes(t *testing.T) {
	f := newExportFixture(t)
	now := time.Now().UTC()

	exp := f.newExport(t, export.Scope{
		Kind:      export.KindMetrics,
		SubjectID: engineSubject,
		Metric:    "overall_band",
		Range:     shared.TimeRange{Start: now.Add(-24 * time.Hour), End: now},
	}, export.FormatJSON)

	require.NoError(t, f.svc.Run(context.Background(), exp))

	// Zero matching records is an empty artifact, not a failure.
	assert.Equal(t, export.StatusCompleted, exp.Status)

	data, err := f.store.Get(exp.ArtifactRef)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	stored, err := f.exports.Find(context.Background(), exp.ID)
	require.NoError(t, err)
	assert.Equal(t, export.StatusCompleted, stored.Status)
}

func TestExportCannotRunTwice(t *testing.T) {
	f := newExportFixture(t)
	now := time.Now().UTC()

	exp := f.newExport(t, export.Scope{
		Kind:      export.KindMetrics,
		SubjectID: engineSubject,
		Metric:    "overall_band",
		Range:     shared.TimeRange{Start: now.Add(-24 * time.Hour), End: now},
	}, export.FormatJSON)

	require.NoError(t, f.svc.Run(context.Background(), exp))

	err := f.svc.Run(context.Background(), exp)
	assert.ErrorIs(t, err, shared.ErrStateTransition)
}
