package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalSchedule(t *testing.T) {
	s := NewIntervalSchedule(5 * time.Minute)

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, at.Add(5*time.Minute), s.Next(at))
	assert.Equal(t, "@every 5m0s", s.String())
}

func TestCronScheduleDaily(t *testing.T) {
	s, err := NewCronSchedule("0 3 * * *")
	require.NoError(t, err)

	at := time.Date(2026, 3, 1, 9, 15, 0, 0, time.UTC)
	next := s.Next(at)

	assert.Equal(t, time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC), next)
	assert.Equal(t, "0 3 * * *", s.String())
}

func TestCronScheduleSameDay(t *testing.T) {
	s, err := NewCronSchedule("30 12 * * *")
	require.NoError(t, err)

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC), s.Next(at))
}

func TestCronScheduleDescriptor(t *testing.T) {
	s, err := NewCronSchedule("@daily")
	require.NoError(t, err)

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), s.Next(at))
}

func TestNewCronScheduleRejectsBadExpr(t *testing.T) {
	for _, expr := range []string{"", "not cron", "61 * * * *", "* * * *"} {
		_, err := NewCronSchedule(expr)
		assert.Error(t, err, expr)
	}
}

func TestValidateCronExpr(t *testing.T) {
	assert.NoError(t, ValidateCronExpr("*/10 * * * 1-5"))
	assert.NoError(t, ValidateCronExpr("@hourly"))
	assert.Error(t, ValidateCronExpr("every day at noon"))
}
