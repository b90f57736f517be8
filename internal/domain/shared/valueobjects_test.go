package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSubjectID(t *testing.T) {
	id, err := NewSubjectID("  3F1C2B4A-0000-4000-8000-000000000001  ")
	require.NoError(t, err)
	assert.Equal(t, SubjectID("3f1c2b4a-0000-4000-8000-000000000001"), id)
}

func TestNewSubjectIDRejectsGarbage(t *testing.T) {
	_, err := NewSubjectID("not-a-uuid")
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	_, err = NewSubjectID("")
	assert.Error(t, err)
}

func TestNewMetricName(t *testing.T) {
	name, err := NewMetricName("Listening_Accuracy")
	require.NoError(t, err)
	assert.Equal(t, MetricName("listening_accuracy"), name)

	valid := []string{"overall_band", "reading_speed_wpm", "s1"}
	for _, v := range valid {
		_, err := NewMetricName(v)
		assert.NoError(t, err, v)
	}

	invalid := []string{"x", "_leading", "trailing_", "double__underscore", "1starts_with_digit", "has space"}
	for _, v := range invalid {
		_, err := NewMetricName(v)
		assert.Error(t, err, v)
	}
}

func TestNewCohort(t *testing.T) {
	c, err := NewCohort("2026-Spring")
	require.NoError(t, err)
	assert.Equal(t, Cohort("2026-spring"), c)

	for _, v := range []string{"2026-monsoon", "spring-2026", "26-spring", ""} {
		_, err := NewCohort(v)
		assert.Error(t, err, v)
	}
}

func TestTimeRangeHalfOpen(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)

	tr, err := NewTimeRange(start, end)
	require.NoError(t, err)

	assert.True(t, tr.Contains(start), "start is inside")
	assert.True(t, tr.Contains(end.Add(-time.Nanosecond)))
	assert.False(t, tr.Contains(end), "end is outside")
	assert.False(t, tr.Contains(start.Add(-time.Nanosecond)))
	assert.Equal(t, 7*24*time.Hour, tr.Duration())
}

func TestNewTimeRangeRejectsInverted(t *testing.T) {
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := NewTimeRange(at.Add(time.Hour), at)
	assert.ErrorIs(t, err, ErrMalformedTimeRange)

	_, err = NewTimeRange(time.Time{}, at)
	assert.Error(t, err)
}

func TestTimeRangeEmptyIsValid(t *testing.T) {
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	// [t, t) is well formed but covers nothing.
	tr, err := NewTimeRange(at, at)
	require.NoError(t, err)
	assert.True(t, tr.IsValid())
	assert.True(t, tr.IsEmpty())
	assert.False(t, tr.Contains(at))
	assert.Zero(t, tr.Duration())

	full, err := NewTimeRange(at, at.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, full.IsEmpty())
}

func TestLastNDays(t *testing.T) {
	tr := LastNDays(30)

	assert.True(t, tr.IsValid())
	assert.WithinDuration(t, time.Now().UTC(), tr.End, time.Minute)
	assert.InDelta(t, 30*24, tr.Duration().Hours(), 25)
}

func TestNewConfidenceIntervalClamps(t *testing.T) {
	// Bounds that do not bracket the prediction are pulled to it.
	ci, err := NewConfidenceInterval(5.0, 6.0, 7.0)
	require.NoError(t, err)
	assert.Equal(t, 5.0, ci.Low)
	assert.True(t, ci.Brackets(5.0))

	ci, err = NewConfidenceInterval(8.0, 6.0, 7.0)
	require.NoError(t, err)
	assert.Equal(t, 8.0, ci.High)

	_, err = NewConfidenceInterval(5.0, 7.0, 6.0)
	assert.Error(t, err, "low above high is rejected outright")
}

func TestConfidenceIntervalWidth(t *testing.T) {
	ci, err := NewConfidenceInterval(6.0, 5.5, 7.0)
	require.NoError(t, err)

	assert.InDelta(t, 1.5, ci.Width(), 1e-9)
	assert.True(t, ci.Brackets(6.9))
	assert.False(t, ci.Brackets(7.1))
}

func TestNewPercentileBounds(t *testing.T) {
	_, err := NewPercentile(-0.1)
	assert.Error(t, err)

	_, err = NewPercentile(100.1)
	assert.Error(t, err)

	p, err := NewPercentile(62.5)
	require.NoError(t, err)
	assert.Equal(t, 62.5, p.Float64())
}

func TestPaginationDefaults(t *testing.T) {
	p := NewPagination(0, 0)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPageSize, p.PageSize)
	assert.Equal(t, 0, p.Offset())

	p = NewPagination(3, 20)
	assert.Equal(t, 40, p.Offset())
	assert.Equal(t, 20, p.Limit())
}

func TestPaginationCapsPageSize(t *testing.T) {
	p := NewPagination(1, 10_000)
	assert.Equal(t, MaxPageSize, p.PageSize)
	assert.Equal(t, MaxPageSize, p.Limit())
}
