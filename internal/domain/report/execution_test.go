package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

func TestNewExecution(t *testing.T) {
	e, err := NewExecution("exec-1", "report-1", nil)
	require.NoError(t, err)

	assert.Equal(t, StatusPending, e.Status)
	assert.True(t, e.IsAdHoc())
	assert.False(t, e.RequestedAt.IsZero())
}

func TestNewExecutionTruncatesTickToMinute(t *testing.T) {
	tick := time.Date(2026, 3, 1, 9, 30, 45, 123456789, time.UTC)

	e, err := NewExecution("exec-1", "report-1", &tick)
	require.NoError(t, err)

	require.NotNil(t, e.ScheduledFor)
	assert.Equal(t, time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC), *e.ScheduledFor)
	assert.False(t, e.IsAdHoc())
}

func TestNewExecutionRequiresIDs(t *testing.T) {
	_, err := NewExecution("", "report-1", nil)
	assert.True(t, shared.IsValidation(err))

	_, err = NewExecution("exec-1", "", nil)
	assert.Error(t, err)
}

func TestExecutionHappyPath(t *testing.T) {
	e, err := NewExecution("exec-1", "report-1", nil)
	require.NoError(t, err)

	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, e.Start(started))
	assert.Equal(t, StatusRunning, e.Status)
	assert.Equal(t, started, *e.StartedAt)

	artifacts := []ArtifactRef{{Format: FormatJSON, Ref: "ab12cd.json", SizeBytes: 512}}
	finished := started.Add(3 * time.Second)
	require.NoError(t, e.Complete(finished, artifacts))

	assert.Equal(t, StatusCompleted, e.Status)
	assert.True(t, e.Status.IsTerminal())
	assert.Equal(t, finished, *e.FinishedAt)
	assert.Equal(t, artifacts, e.Artifacts)
}

func TestExecutionFailRetainsArtifacts(t *testing.T) {
	e, err := NewExecution("exec-1", "report-1", nil)
	require.NoError(t, err)
	require.NoError(t, e.Start(time.Now()))

	// The JSON format rendered before the CSV format failed; its artifact
	// stays attached to the failed execution.
	partial := []ArtifactRef{{Format: FormatJSON, Ref: "ab12cd.json", SizeBytes: 512}}
	require.NoError(t, e.Fail(time.Now(), "csv render failed", partial))

	assert.Equal(t, StatusFailed, e.Status)
	assert.Equal(t, "csv render failed", e.Error)
	assert.Equal(t, partial, e.Artifacts)
}

func TestExecutionCancelOnlyFromPending(t *testing.T) {
	e, err := NewExecution("exec-1", "report-1", nil)
	require.NoError(t, err)

	require.NoError(t, e.Cancel(time.Now()))
	assert.Equal(t, StatusCancelled, e.Status)

	running, err := NewExecution("exec-2", "report-1", nil)
	require.NoError(t, err)
	require.NoError(t, running.Start(time.Now()))

	err = running.Cancel(time.Now())
	assert.ErrorIs(t, err, shared.ErrExecutionNotPending)
	assert.Equal(t, StatusRunning, running.Status)
}

func TestExecutionTerminalStatesAreFinal(t *testing.T) {
	e, err := NewExecution("exec-1", "report-1", nil)
	require.NoError(t, err)
	require.NoError(t, e.Start(time.Now()))
	require.NoError(t, e.Complete(time.Now(), nil))

	assert.Error(t, e.Start(time.Now()))
	assert.Error(t, e.Fail(time.Now(), "late", nil))
	assert.Error(t, e.Cancel(time.Now()))
	assert.Equal(t, StatusCompleted, e.Status)
}

func TestExecutionCannotCompleteFromPending(t *testing.T) {
	e, err := NewExecution("exec-1", "report-1", nil)
	require.NoError(t, err)

	err = e.Complete(time.Now(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrStateTransition)
}

func TestStatusIsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusRunning.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
}
