package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepwise/prepwise-analytics/internal/domain/analysis"
	"github.com/prepwise/prepwise-analytics/internal/domain/metric"
	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
	"github.com/prepwise/prepwise-analytics/internal/domain/subject"
	"github.com/prepwise/prepwise-analytics/internal/infrastructure/persistence/memory"
)

const learnerID = "3f1c2b4a-0000-4000-8000-000000000001"

func newSubject(t *testing.T, repo *memory.SubjectRepository, id string) {
	t.Helper()
	s, err := subject.NewSubject(shared.SubjectID(id), "ext-"+id[len(id)-2:], "2026-spring", subject.BandIntermediate, time.Time{})
	require.NoError(t, err)
	require.NoError(t, repo.Register(context.Background(), s))
}

func recordBand(t *testing.T, repo *memory.MetricRepository, id, subjectID string, value float64, at time.Time) {
	t.Helper()
	m, err := metric.NewMetric(id, shared.SubjectID(subjectID), "overall_band", metric.ModuleOverall, value, at)
	require.NoError(t, err)
	require.NoError(t, repo.Record(context.Background(), m))
}

func TestGetSeriesDefaultsToLast90Days(t *testing.T) {
	metricRepo := memory.NewMetricRepository()
	now := time.Now().UTC()

	recordBand(t, metricRepo, "m-recent", learnerID, 6.5, now.Add(-24*time.Hour))
	recordBand(t, metricRepo, "m-ancient", learnerID, 5.0, now.AddDate(0, 0, -120))

	h := NewGetSeriesHandler(metricRepo)
	result, err := h.Handle(context.Background(), GetSeriesQuery{
		SubjectID: learnerID,
		Metric:    "overall_band",
	})
	require.NoError(t, err)

	require.Len(t, result.Points, 1)
	assert.Equal(t, 6.5, result.Points[0].Value)
}

func TestGetSeriesRejectsInvertedRange(t *testing.T) {
	h := NewGetSeriesHandler(memory.NewMetricRepository())
	now := time.Now().UTC()

	_, err := h.Handle(context.Background(), GetSeriesQuery{
		SubjectID: learnerID,
		Metric:    "overall_band",
		From:      now,
		To:        now.Add(-time.Hour),
	})
	assert.ErrorIs(t, err, shared.ErrMalformedTimeRange)
}

func TestGetTrend(t *testing.T) {
	metricRepo := memory.NewMetricRepository()
	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		recordBand(t, metricRepo, "m-"+string(rune('a'+i)), learnerID,
			5.0+0.5*float64(i), now.Add(time.Duration(i-6)*time.Hour))
	}

	h := NewGetTrendHandler(metricRepo, analysis.DefaultOptions())
	result, err := h.Handle(context.Background(), GetTrendQuery{
		SubjectID: learnerID,
		Metric:    "overall_band",
	})
	require.NoError(t, err)

	assert.False(t, result.Insufficient)
	assert.Equal(t, 5, result.SampleSize)
	assert.Equal(t, "improving", result.Classification)
	assert.InDelta(t, 0.5, result.SlopePerHour, 1e-9)
}

func TestGetTrendInsufficientData(t *testing.T) {
	metricRepo := memory.NewMetricRepository()
	recordBand(t, metricRepo, "m-1", learnerID, 6.0, time.Now().UTC().Add(-time.Hour))

	h := NewGetTrendHandler(metricRepo, analysis.DefaultOptions())
	result, err := h.Handle(context.Background(), GetTrendQuery{
		SubjectID: learnerID,
		Metric:    "overall_band",
	})
	require.NoError(t, err)

	assert.True(t, result.Insufficient)
	assert.Empty(t, result.Classification)
}

func TestCompareSubject(t *testing.T) {
	subjects := memory.NewSubjectRepository()
	metricRepo := memory.NewMetricRepository()
	now := time.Now().UTC()

	newSubject(t, subjects, learnerID)
	peerIDs := []string{
		"3f1c2b4a-0000-4000-8000-000000000002",
		"3f1c2b4a-0000-4000-8000-000000000003",
		"3f1c2b4a-0000-4000-8000-000000000004",
	}
	for i, id := range peerIDs {
		newSubject(t, subjects, id)
		recordBand(t, metricRepo, "m-peer-"+id[len(id)-1:], id, 5.0+float64(i), now.Add(-time.Hour))
	}
	recordBand(t, metricRepo, "m-self", learnerID, 6.5, now.Add(-time.Hour))

	h := NewCompareSubjectHandler(subjects, metricRepo, memory.NewComparisonCache(), nil,
		CompareSubjectHandlerConfig{MinCohortSize: 3, FreshnessWindow: time.Hour})

	result, err := h.Handle(context.Background(), CompareSubjectQuery{
		SubjectID: learnerID,
		Metric:    "overall_band",
	})
	require.NoError(t, err)

	// Peers hold 5.0, 6.0, 7.0; the subject's 6.5 beats two of three.
	assert.Equal(t, 3, result.CohortSize)
	assert.InDelta(t, 66.67, result.Percentile, 0.1)
	assert.Equal(t, 6.5, result.SubjectValue)
	assert.InDelta(t, 6.0, result.CohortMedian, 1e-9)
	assert.False(t, result.FromCache)

	again, err := h.Handle(context.Background(), CompareSubjectQuery{
		SubjectID: learnerID,
		Metric:    "overall_band",
	})
	require.NoError(t, err)
	assert.True(t, again.FromCache)
	assert.InDelta(t, result.Percentile, again.Percentile, 1e-9)
}

func TestCompareSubjectCohortTooSmall(t *testing.T) {
	subjects := memory.NewSubjectRepository()
	metricRepo := memory.NewMetricRepository()

	newSubject(t, subjects, learnerID)
	recordBand(t, metricRepo, "m-self", learnerID, 6.5, time.Now().UTC().Add(-time.Hour))

	h := NewCompareSubjectHandler(subjects, metricRepo, nil, nil,
		CompareSubjectHandlerConfig{MinCohortSize: 3})

	_, err := h.Handle(context.Background(), CompareSubjectQuery{
		SubjectID: learnerID,
		Metric:    "overall_band",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrCohortTooSmall)
	assert.True(t, shared.IsInsufficientData(err))
}

func TestCompareSubjectRejectsBadCohort(t *testing.T) {
	h := NewCompareSubjectHandler(memory.NewSubjectRepository(), memory.NewMetricRepository(), nil, nil,
		CompareSubjectHandlerConfig{})

	_, err := h.Handle(context.Background(), CompareSubjectQuery{
		SubjectID: learnerID,
		Metric:    "overall_band",
		Cohort:    "sometime",
	})
	assert.True(t, shared.IsValidation(err))

	_, err = h.Handle(context.Background(), CompareSubjectQuery{
		SubjectID: learnerID,
		Metric:    "overall_band",
		Band:      "expert",
	})
	assert.True(t, shared.IsValidation(err))
}

func TestListReports(t *testing.T) {
	defs := memory.NewReportDefinitionRepository()
	h := NewListReportsHandler(defs)

	result, err := h.Handle(context.Background(), ListReportsQuery{OwnerID: learnerID})
	require.NoError(t, err)
	assert.Empty(t, result.Reports)

	_, err = h.Handle(context.Background(), ListReportsQuery{OwnerID: "bogus"})
	assert.True(t, shared.IsValidation(err))
}
