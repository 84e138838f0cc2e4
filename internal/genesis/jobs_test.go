package genesis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storeforge/storeforge/api/schemas"
)

func TestInMemoryJobTracker_CreateAndGet(t *testing.T) {
	tracker := NewInMemoryJobTracker()

	require.NoError(t, tracker.Create(JobRecord{JobID: "job-1", RunID: "run-1", OwnerID: "o-1", Niche: "candles"}))

	record, ok := tracker.Get("job-1")
	require.True(t, ok)
	assert.Equal(t, JobQueued, record.Status)
	assert.False(t, record.CreatedAt.IsZero())
	assert.Equal(t, "candles", record.Niche)

	_, ok = tracker.Get("missing")
	assert.False(t, ok)
}

func TestInMemoryJobTracker_RejectsDuplicateJobID(t *testing.T) {
	tracker := NewInMemoryJobTracker()
	require.NoError(t, tracker.Create(JobRecord{JobID: "job-1"}))
	assert.Error(t, tracker.Create(JobRecord{JobID: "job-1"}))
}

func TestInMemoryJobTracker_SetStatus(t *testing.T) {
	tracker := NewInMemoryJobTracker()
	require.NoError(t, tracker.Create(JobRecord{JobID: "job-1"}))

	require.NoError(t, tracker.SetStatus("job-1", JobRunning))
	record, _ := tracker.Get("job-1")
	assert.Equal(t, JobRunning, record.Status)

	assert.Error(t, tracker.SetStatus("missing", JobRunning))
}

func TestInMemoryJobTracker_FinalizeIsTerminalAndExactlyOnce(t *testing.T) {
	tracker := NewInMemoryJobTracker()
	require.NoError(t, tracker.Create(JobRecord{JobID: "job-1"}))
	require.NoError(t, tracker.SetStatus("job-1", JobRunning))

	result := schemas.GenesisResult{RunID: "run-1", JobID: "job-1", Success: true}
	require.NoError(t, tracker.Finalize("job-1", result))

	record, _ := tracker.Get("job-1")
	assert.Equal(t, JobCompleted, record.Status)
	require.NotNil(t, record.Result)
	assert.True(t, record.Result.Success)

	// Terminal jobs accept no further transitions.
	assert.Error(t, tracker.Finalize("job-1", result))
	assert.Error(t, tracker.SetStatus("job-1", JobRunning))
}

func TestInMemoryJobTracker_FailedRunFinalizesAsFailed(t *testing.T) {
	tracker := NewInMemoryJobTracker()
	require.NoError(t, tracker.Create(JobRecord{JobID: "job-1"}))

	require.NoError(t, tracker.Finalize("job-1", schemas.GenesisResult{
		JobID:       "job-1",
		Success:     false,
		FailedStage: "sourcing",
		Error:       "no candidates",
	}))

	record, _ := tracker.Get("job-1")
	assert.Equal(t, JobFailed, record.Status)
	assert.Equal(t, "sourcing", record.Result.FailedStage)
}

func TestJobStatus_Terminal(t *testing.T) {
	assert.True(t, JobCompleted.Terminal())
	assert.True(t, JobFailed.Terminal())
	assert.False(t, JobQueued.Terminal())
	assert.False(t, JobRunning.Terminal())
}
