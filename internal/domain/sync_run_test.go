package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSyncRun(t *testing.T) {
	run := NewSyncRun(TriggerManual)

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, TriggerManual, run.Trigger)
	assert.Equal(t, SyncRunning, run.Status)
	assert.False(t, run.StartedAt.IsZero())
	assert.False(t, run.IsTerminal())
}

func TestSyncRun_MarkCompleted(t *testing.T) {
	run := NewSyncRun(TriggerScheduled)

	run.MarkCompleted()

	assert.Equal(t, SyncCompleted, run.Status)
	assert.NotNil(t, run.FinishedAt)
	assert.True(t, run.IsTerminal())
}

func TestSyncRun_MarkFailed(t *testing.T) {
	run := NewSyncRun(TriggerManual)

	run.MarkFailed(errors.New("commit failed"))

	assert.Equal(t, SyncFailed, run.Status)
	assert.Equal(t, "commit failed", run.ErrorMessage)
	assert.True(t, run.IsTerminal())
}
