package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepwise/prepwise-analytics/internal/domain/event"
	"github.com/prepwise/prepwise-analytics/internal/domain/metric"
	"github.com/prepwise/prepwise-analytics/internal/domain/report"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

const (
	subjectA = shared.SubjectID("3f1c2b4a-0000-4000-8000-000000000001")
	subjectB = shared.SubjectID("3f1c2b4a-0000-4000-8000-000000000002")
)

func TestEventRecordIsIdempotent(t *testing.T) {
	repo := NewEventRepository()
	ctx := context.Background()

	occurred := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	e, err := event.NewEvent("evt-1", subjectA, event.CategorySessionStarted, occurred)
	require.NoError(t, err)

	require.NoError(t, repo.Record(ctx, e))

	// A retried write with the same ID and different payload changes nothing.
	retry, err := event.NewEvent("evt-1", subjectA, event.CategorySessionEnded, occurred.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.Record(ctx, retry))

	tr, err := shared.NewTimeRange(occurred.Add(-time.Hour), occurred.Add(2*time.Hour))
	require.NoError(t, err)
	events, err := repo.Query(ctx, subjectA, "", tr)
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, event.CategorySessionStarted, events[0].Category)
}

func TestEventQueryFiltersAndOrders(t *testing.T) {
	repo := NewEventRepository()
	ctx := context.Background()
	origin := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	record := func(id string, sid shared.SubjectID, cat event.Category, at time.Time) {
		e, err := event.NewEvent(id, sid, cat, at)
		require.NoError(t, err)
		require.NoError(t, repo.Record(ctx, e))
	}
	record("evt-3", subjectA, event.CategoryPageViewed, origin.Add(2*time.Hour))
	record("evt-1", subjectA, event.CategorySessionStarted, origin)
	record("evt-2", subjectA, event.CategorySessionEnded, origin.Add(time.Hour))
	record("evt-other", subjectB, event.CategorySessionStarted, origin)

	tr, err := shared.NewTimeRange(origin, origin.Add(2*time.Hour))
	require.NoError(t, err)

	// Half-open range: evt-3 sits exactly on the end bound and is excluded.
	events, err := repo.Query(ctx, subjectA, "", tr)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "evt-1", events[0].ID)
	assert.Equal(t, "evt-2", events[1].ID)

	filtered, err := repo.Query(ctx, subjectA, event.CategorySessionEnded, tr)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "evt-2", filtered[0].ID)
}

func TestEventQueryRejectsMalformedRange(t *testing.T) {
	repo := NewEventRepository()

	_, err := repo.Query(context.Background(), subjectA, "", shared.TimeRange{})
	assert.ErrorIs(t, err, shared.ErrMalformedTimeRange)
}

func TestEventPruneBefore(t *testing.T) {
	repo := NewEventRepository()
	ctx := context.Background()
	origin := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"evt-1", "evt-2", "evt-3"} {
		e, err := event.NewEvent(id, subjectA, event.CategoryPageViewed, origin.Add(time.Duration(i)*24*time.Hour))
		require.NoError(t, err)
		require.NoError(t, repo.Record(ctx, e))
	}

	pruned, err := repo.PruneBefore(ctx, origin.Add(36*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), pruned)

	tr, err := shared.NewTimeRange(origin.Add(-time.Hour), origin.Add(72*time.Hour))
	require.NoError(t, err)
	remaining, err := repo.Query(ctx, subjectA, "", tr)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "evt-3", remaining[0].ID)
}

func TestMetricRecordIsIdempotent(t *testing.T) {
	repo := NewMetricRepository()
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	m, err := metric.NewMetric("m-1", subjectA, "overall_band", metric.ModuleOverall, 6.5, at)
	require.NoError(t, err)
	require.NoError(t, repo.Record(ctx, m))

	dup, err := metric.NewMetric("m-1", subjectA, "overall_band", metric.ModuleOverall, 9.0, at)
	require.NoError(t, err)
	require.NoError(t, repo.Record(ctx, dup))

	point, err := repo.LatestValue(ctx, subjectA, "overall_band")
	require.NoError(t, err)
	assert.Equal(t, 6.5, point.Value)
}

func TestMetricQuerySeries(t *testing.T) {
	repo := NewMetricRepository()
	ctx := context.Background()
	origin := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	record := func(id string, value float64, at time.Time) {
		m, err := metric.NewMetric(id, subjectA, "overall_band", metric.ModuleOverall, value, at)
		require.NoError(t, err)
		require.NoError(t, repo.Record(ctx, m))
	}
	record("m-2", 6.0, origin.Add(time.Hour))
	record("m-1", 5.5, origin)
	record("m-3", 6.5, origin.Add(2*time.Hour))

	tr, err := shared.NewTimeRange(origin, origin.Add(2*time.Hour))
	require.NoError(t, err)

	series, err := repo.QuerySeries(ctx, subjectA, "overall_band", tr)
	require.NoError(t, err)

	// Sorted ascending, end bound excluded.
	require.Equal(t, 2, series.Len())
	assert.Equal(t, []float64{5.5, 6.0}, series.Values())
}

func TestQueryEmptyRangeReturnsNothing(t *testing.T) {
	metrics := NewMetricRepository()
	events := NewEventRepository()
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	m, err := metric.NewMetric("m-1", subjectA, "overall_band", metric.ModuleOverall, 6.5, at)
	require.NoError(t, err)
	require.NoError(t, metrics.Record(ctx, m))

	e, err := event.NewEvent("evt-1", subjectA, event.CategoryPageViewed, at)
	require.NoError(t, err)
	require.NoError(t, events.Record(ctx, e))

	// [t, t) is a legal degenerate range and matches nothing.
	tr, err := shared.NewTimeRange(at, at)
	require.NoError(t, err)

	series, err := metrics.QuerySeries(ctx, subjectA, "overall_band", tr)
	require.NoError(t, err)
	assert.Zero(t, series.Len())

	found, err := events.Query(ctx, subjectA, "", tr)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestMetricLatestValueNotFound(t *testing.T) {
	repo := NewMetricRepository()

	_, err := repo.LatestValue(context.Background(), subjectA, "overall_band")
	assert.True(t, shared.IsNotFound(err))
}

func TestMetricLatestValues(t *testing.T) {
	repo := NewMetricRepository()
	ctx := context.Background()
	origin := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	record := func(id string, sid shared.SubjectID, value float64, at time.Time) {
		m, err := metric.NewMetric(id, sid, "overall_band", metric.ModuleOverall, value, at)
		require.NoError(t, err)
		require.NoError(t, repo.Record(ctx, m))
	}
	record("m-1", subjectA, 5.5, origin)
	record("m-2", subjectA, 6.5, origin.Add(time.Hour))
	record("m-3", subjectB, 7.0, origin)

	values, err := repo.LatestValues(ctx, []shared.SubjectID{subjectA, subjectB}, "overall_band")
	require.NoError(t, err)

	assert.Equal(t, map[shared.SubjectID]float64{subjectA: 6.5, subjectB: 7.0}, values)
}

func TestExecutionCreateClaimsTick(t *testing.T) {
	repo := NewReportExecutionRepository()
	ctx := context.Background()
	tick := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	first, err := report.NewExecution("exec-1", "report-1", &tick)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, first))

	second, err := report.NewExecution("exec-2", "report-1", &tick)
	require.NoError(t, err)
	err = repo.Create(ctx, second)
	assert.ErrorIs(t, err, shared.ErrTickAlreadyClaimed)

	// Same tick for a different report is a separate claim.
	other, err := report.NewExecution("exec-3", "report-2", &tick)
	require.NoError(t, err)
	assert.NoError(t, repo.Create(ctx, other))

	claimed, err := repo.FindByTick(ctx, "report-1", tick)
	require.NoError(t, err)
	assert.Equal(t, "exec-1", claimed.ID)
}

func TestExecutionAdHocRunsNeverCollide(t *testing.T) {
	repo := NewReportExecutionRepository()
	ctx := context.Background()

	for _, id := range []string{"exec-1", "exec-2", "exec-3"} {
		e, err := report.NewExecution(id, "report-1", nil)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, e))
	}
}

func TestExecutionUpdatePersistsTransition(t *testing.T) {
	repo := NewReportExecutionRepository()
	ctx := context.Background()

	e, err := report.NewExecution("exec-1", "report-1", nil)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, e))

	require.NoError(t, e.Start(time.Now()))
	require.NoError(t, repo.Update(ctx, e))

	found, err := repo.Find(ctx, "exec-1")
	require.NoError(t, err)
	assert.Equal(t, report.StatusRunning, found.Status)
}

func TestExecutionUpdateUnknownID(t *testing.T) {
	repo := NewReportExecutionRepository()

	e, err := report.NewExecution("exec-missing", "report-1", nil)
	require.NoError(t, err)
	assert.True(t, shared.IsNotFound(repo.Update(context.Background(), e)))
}

func TestExecutionListByReportPaginates(t *testing.T) {
	repo := NewReportExecutionRepository()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		e, err := report.NewExecution("exec-"+string(rune('a'+i)), "report-1", nil)
		require.NoError(t, err)
		e.RequestedAt = time.Date(2026, 3, 1, 9, i, 0, 0, time.UTC)
		require.NoError(t, repo.Create(ctx, e))
	}

	page1, err := repo.ListByReport(ctx, "report-1", shared.NewPagination(1, 2))
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, "exec-e", page1[0].ID, "newest first")
	assert.Equal(t, "exec-d", page1[1].ID)

	page3, err := repo.ListByReport(ctx, "report-1", shared.NewPagination(3, 2))
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Equal(t, "exec-a", page3[0].ID)

	empty, err := repo.ListByReport(ctx, "report-1", shared.NewPagination(4, 2))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDefinitionRepositoryLifecycle(t *testing.T) {
	repo := NewReportDefinitionRepository()
	ctx := context.Background()

	def, err := report.NewDefinition("report-1", subjectA, subjectB, "weekly progress",
		[]report.MetricSelector{{Kind: report.SectionTrend, Metric: "overall_band"}}, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, def))

	found, err := repo.Find(ctx, "report-1")
	require.NoError(t, err)
	assert.Equal(t, "weekly progress", found.Name)
	assert.Equal(t, []report.OutputFormat{report.FormatJSON}, found.Formats, "default format")

	owned, err := repo.FindByOwner(ctx, subjectA)
	require.NoError(t, err)
	assert.Len(t, owned, 1)

	require.NoError(t, repo.Delete(ctx, "report-1"))
	_, err = repo.Find(ctx, "report-1")
	assert.True(t, shared.IsNotFound(err))
	assert.True(t, shared.IsNotFound(repo.Delete(ctx, "report-1")))
}

func TestDefinitionFindScheduled(t *testing.T) {
	repo := NewReportDefinitionRepository()
	ctx := context.Background()

	scheduled, err := report.NewDefinition("report-1", subjectA, subjectA, "nightly",
		[]report.MetricSelector{{Kind: report.SectionTrend, Metric: "overall_band"}}, nil)
	require.NoError(t, err)
	scheduled.Schedule = "0 3 * * *"
	require.NoError(t, repo.Save(ctx, scheduled))

	adhoc, err := report.NewDefinition("report-2", subjectA, subjectA, "on demand",
		[]report.MetricSelector{{Kind: report.SectionTrend, Metric: "overall_band"}}, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, adhoc))

	defs, err := repo.FindScheduled(ctx)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "report-1", defs[0].ID)
}
