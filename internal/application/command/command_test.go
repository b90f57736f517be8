package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
	"github.com/prepwise/prepwise-analytics/internal/infrastructure/persistence/memory"
	"github.com/prepwise/prepwise-analytics/internal/infrastructure/scheduler"
)

const (
	learnerID = "3f1c2b4a-0000-4000-8000-000000000001"
	ownerID   = "3f1c2b4a-0000-4000-8000-0000000000aa"
)

func registerLearner(t *testing.T, subjects *memory.SubjectRepository) {
	t.Helper()
	h := NewRegisterSubjectHandler(subjects)
	_, err := h.Handle(context.Background(), RegisterSubjectCommand{
		SubjectID:   learnerID,
		ExternalRef: "platform-user-42",
		Cohort:      "2026-spring",
		Band:        "intermediate",
	})
	require.NoError(t, err)
}

func TestRegisterSubject(t *testing.T) {
	subjects := memory.NewSubjectRepository()
	h := NewRegisterSubjectHandler(subjects)

	result, err := h.Handle(context.Background(), RegisterSubjectCommand{
		SubjectID: learnerID,
		Cohort:    "2026-Spring",
		Band:      "Intermediate",
	})
	require.NoError(t, err)

	assert.Equal(t, learnerID, result.SubjectID)
	assert.Equal(t, "2026-spring", result.Cohort)
	assert.Equal(t, "intermediate", result.Band)
	assert.False(t, result.EnrolledAt.IsZero())

	// Re-registering the same ID is a no-op.
	_, err = h.Handle(context.Background(), RegisterSubjectCommand{
		SubjectID: learnerID,
		Cohort:    "2026-fall",
		Band:      "advanced",
	})
	assert.NoError(t, err)
}

func TestRegisterSubjectValidation(t *testing.T) {
	h := NewRegisterSubjectHandler(memory.NewSubjectRepository())

	_, err := h.Handle(context.Background(), RegisterSubjectCommand{
		SubjectID: "nope", Cohort: "2026-spring", Band: "intermediate",
	})
	assert.True(t, shared.IsValidation(err))

	_, err = h.Handle(context.Background(), RegisterSubjectCommand{
		SubjectID: learnerID, Cohort: "springtime", Band: "intermediate",
	})
	assert.True(t, shared.IsValidation(err))

	_, err = h.Handle(context.Background(), RegisterSubjectCommand{
		SubjectID: learnerID, Cohort: "2026-spring", Band: "expert",
	})
	assert.Error(t, err)
}

func TestRecordEventRejectsUnregisteredSubject(t *testing.T) {
	h := NewRecordEventHandler(memory.NewEventRepository(), memory.NewSubjectRepository(), nil)

	_, err := h.Handle(context.Background(), RecordEventCommand{
		EventID:   "evt-1",
		SubjectID: learnerID,
		Category:  "session_started",
	})
	assert.ErrorIs(t, err, shared.ErrOrphanedReference)
}

func TestRecordEvent(t *testing.T) {
	subjects := memory.NewSubjectRepository()
	events := memory.NewEventRepository()
	registerLearner(t, subjects)

	h := NewRecordEventHandler(events, subjects, nil)
	occurred := time.Now().UTC().Add(-time.Hour)

	result, err := h.Handle(context.Background(), RecordEventCommand{
		EventID:    "evt-1",
		SubjectID:  learnerID,
		Category:   "Session_Started",
		OccurredAt: occurred,
		Device:     "mobile",
		Attributes: map[string]string{"page": "listening_practice"},
	})
	require.NoError(t, err)

	assert.Equal(t, "evt-1", result.EventID)
	assert.Equal(t, "session_started", result.Category)
	assert.Equal(t, occurred, result.RecordedAt)
}

func TestRecordEventUnknownCategory(t *testing.T) {
	subjects := memory.NewSubjectRepository()
	registerLearner(t, subjects)
	h := NewRecordEventHandler(memory.NewEventRepository(), subjects, nil)

	_, err := h.Handle(context.Background(), RecordEventCommand{
		EventID:   "evt-1",
		SubjectID: learnerID,
		Category:  "mystery",
	})
	assert.True(t, shared.IsValidation(err))
}

func TestRecordMetric(t *testing.T) {
	subjects := memory.NewSubjectRepository()
	metricRepo := memory.NewMetricRepository()
	registerLearner(t, subjects)

	h := NewRecordMetricHandler(metricRepo, subjects, nil)
	at := time.Now().UTC().Add(-time.Hour)

	result, err := h.Handle(context.Background(), RecordMetricCommand{
		MetricID:   "m-1",
		SubjectID:  learnerID,
		Name:       "overall_band",
		Module:     "overall",
		Value:      6.5,
		RecordedAt: at,
	})
	require.NoError(t, err)
	assert.Equal(t, "m-1", result.MetricID)

	point, err := metricRepo.LatestValue(context.Background(), shared.SubjectID(learnerID), "overall_band")
	require.NoError(t, err)
	assert.Equal(t, 6.5, point.Value)
}

func TestRecordMetricRejectsUnregisteredSubject(t *testing.T) {
	h := NewRecordMetricHandler(memory.NewMetricRepository(), memory.NewSubjectRepository(), nil)

	_, err := h.Handle(context.Background(), RecordMetricCommand{
		MetricID:  "m-1",
		SubjectID: learnerID,
		Name:      "overall_band",
		Module:    "overall",
		Value:     6.5,
	})
	assert.ErrorIs(t, err, shared.ErrOrphanedReference)
}

func TestCreateReport(t *testing.T) {
	defs := memory.NewReportDefinitionRepository()
	h := NewCreateReportHandler(defs, scheduler.ValidateCronExpr)

	result, err := h.Handle(context.Background(), CreateReportCommand{
		OwnerID:   ownerID,
		SubjectID: learnerID,
		Name:      "weekly progress",
		Selectors: []SelectorInput{
			{Kind: "trend", Metric: "overall_band"},
			{Kind: "correlation", Metric: "overall_band", SecondMetric: "practice_minutes"},
		},
		Formats:  []string{"json", "csv"},
		Schedule: "0 6 * * 1",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.ReportID)
	assert.True(t, result.Scheduled)

	saved, err := defs.Find(context.Background(), result.ReportID)
	require.NoError(t, err)
	assert.Equal(t, "0 6 * * 1", saved.Schedule)
	assert.Len(t, saved.Selectors, 2)
}

func TestCreateReportRejectsBadCron(t *testing.T) {
	h := NewCreateReportHandler(memory.NewReportDefinitionRepository(), scheduler.ValidateCronExpr)

	_, err := h.Handle(context.Background(), CreateReportCommand{
		OwnerID:   ownerID,
		SubjectID: learnerID,
		Name:      "broken",
		Selectors: []SelectorInput{{Kind: "trend", Metric: "overall_band"}},
		Schedule:  "every monday",
	})
	assert.ErrorIs(t, err, shared.ErrInvalidSchedule)
}

func TestCreateReportRejectsBadSelector(t *testing.T) {
	h := NewCreateReportHandler(memory.NewReportDefinitionRepository(), scheduler.ValidateCronExpr)

	_, err := h.Handle(context.Background(), CreateReportCommand{
		OwnerID:   ownerID,
		SubjectID: learnerID,
		Name:      "bad",
		Selectors: []SelectorInput{{Kind: "correlation", Metric: "overall_band"}},
	})
	assert.True(t, shared.IsValidation(err), "correlation without second metric")

	_, err = h.Handle(context.Background(), CreateReportCommand{
		OwnerID:   ownerID,
		SubjectID: learnerID,
		Name:      "bad format",
		Selectors: []SelectorInput{{Kind: "trend", Metric: "overall_band"}},
		Formats:   []string{"pdf"},
	})
	assert.Error(t, err)
}
