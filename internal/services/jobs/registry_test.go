package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srajal-87/DealSense-AI/internal/models"
)

func TestRegistry_CreateAndGet(t *testing.T) {
	registry := NewRegistry(nil)

	job := registry.Create([]string{"Electronics"})
	assert.NotEmpty(t, job.ID)
	assert.Contains(t, job.ID, "job_")
	assert.Equal(t, models.JobStatusInitializing, job.Status)

	fetched, ok := registry.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, job.ID, fetched.ID)

	_, ok = registry.Get("job_missing")
	assert.False(t, ok)
}

func TestRegistry_GetReturnsSnapshot(t *testing.T) {
	registry := NewRegistry(nil)
	job := registry.Create([]string{"Electronics"})
	require.NoError(t, registry.MarkCompleted(job.ID, [][]string{{"row"}}))

	snapshot, ok := registry.Get(job.ID)
	require.True(t, ok)
	snapshot.Results[0][0] = "mutated"
	snapshot.Categories[0] = "mutated"

	fresh, _ := registry.Get(job.ID)
	assert.Equal(t, "row", fresh.Results[0][0])
	assert.Equal(t, "Electronics", fresh.Categories[0])
}

func TestRegistry_CompletedJobCarriesResults(t *testing.T) {
	registry := NewRegistry(nil)
	job := registry.Create([]string{"Electronics", "Computers"})

	require.NoError(t, registry.MarkRunning(job.ID))
	results := [][]string{
		{"Laptop", "$499.00", "$650.00", "$151.00", "link"},
		{"Monitor", "$120.00", "$200.00", "$80.00", "link"},
	}
	require.NoError(t, registry.MarkCompleted(job.ID, results))

	fetched, ok := registry.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, models.JobStatusCompleted, fetched.Status)
	assert.Equal(t, 2, fetched.ResultCount)
	assert.Len(t, fetched.Results, 2)
	assert.NotNil(t, fetched.CompletedAt)
}

func TestRegistry_List_NewestFirstWithoutResults(t *testing.T) {
	registry := NewRegistry(nil)

	first := registry.Create([]string{"Electronics"})
	time.Sleep(2 * time.Millisecond)
	second := registry.Create([]string{"Computers"})
	require.NoError(t, registry.MarkCompleted(first.ID, [][]string{{"row"}}))

	list := registry.List()
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
	// Result rows stay off the list payload; the count survives.
	assert.Nil(t, list[1].Results)
	assert.Equal(t, 1, list[1].ResultCount)
}

func TestRegistry_CancelRunningJob(t *testing.T) {
	registry := NewRegistry(nil)
	job := registry.Create([]string{"Electronics"})
	require.NoError(t, registry.MarkRunning(job.ID))

	status, err := registry.Cancel(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCancelled, status)
	assert.True(t, registry.IsCancelled(job.ID))
}

func TestRegistry_CancelNonRunningReportsActualStatus(t *testing.T) {
	registry := NewRegistry(nil)

	job := registry.Create([]string{"Electronics"})
	status, err := registry.Cancel(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusInitializing, status)
	assert.False(t, registry.IsCancelled(job.ID))

	require.NoError(t, registry.MarkRunning(job.ID))
	require.NoError(t, registry.MarkCompleted(job.ID, nil))
	status, err = registry.Cancel(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, status)

	_, err = registry.Cancel("job_missing")
	assert.Error(t, err)
}

func TestRegistry_CancellationIsAdvisory(t *testing.T) {
	registry := NewRegistry(nil)
	job := registry.Create([]string{"Electronics"})
	require.NoError(t, registry.MarkRunning(job.ID))

	_, err := registry.Cancel(job.ID)
	require.NoError(t, err)

	// The worker does not observe the flag and completes anyway.
	require.NoError(t, registry.MarkCompleted(job.ID, [][]string{{"row"}}))

	fetched, _ := registry.Get(job.ID)
	assert.Equal(t, models.JobStatusCompleted, fetched.Status)
	assert.False(t, registry.IsCancelled(job.ID))
}

func TestRegistry_ClearTerminal(t *testing.T) {
	registry := NewRegistry(nil)

	completed := registry.Create([]string{"Electronics"})
	require.NoError(t, registry.MarkRunning(completed.ID))
	require.NoError(t, registry.MarkCompleted(completed.ID, nil))

	failed := registry.Create([]string{"Computers"})
	require.NoError(t, registry.MarkRunning(failed.ID))
	require.NoError(t, registry.MarkError(failed.ID, "feed unreachable"))

	running := registry.Create([]string{"Automotive"})
	require.NoError(t, registry.MarkRunning(running.ID))

	initializing := registry.Create([]string{"Gaming & Toys"})

	assert.Equal(t, 2, registry.ClearTerminal())
	assert.Equal(t, 2, registry.Count())

	_, ok := registry.Get(running.ID)
	assert.True(t, ok)
	_, ok = registry.Get(initializing.ID)
	assert.True(t, ok)
	_, ok = registry.Get(completed.ID)
	assert.False(t, ok)
	_, ok = registry.Get(failed.ID)
	assert.False(t, ok)

	// Second pass has nothing left to remove.
	assert.Equal(t, 0, registry.ClearTerminal())
}

func TestRegistry_ActiveCount(t *testing.T) {
	registry := NewRegistry(nil)
	assert.Equal(t, 0, registry.ActiveCount())

	a := registry.Create([]string{"Electronics"})
	b := registry.Create([]string{"Computers"})
	assert.Equal(t, 2, registry.ActiveCount())

	require.NoError(t, registry.MarkRunning(a.ID))
	assert.Equal(t, 2, registry.ActiveCount())

	require.NoError(t, registry.MarkCompleted(a.ID, nil))
	assert.Equal(t, 1, registry.ActiveCount())

	require.NoError(t, registry.MarkError(b.ID, "boom"))
	assert.Equal(t, 0, registry.ActiveCount())
	assert.Equal(t, 2, registry.Count())
}

func TestRegistry_MarkUnknownJob(t *testing.T) {
	registry := NewRegistry(nil)
	assert.Error(t, registry.MarkRunning("job_missing"))
	assert.Error(t, registry.MarkCompleted("job_missing", nil))
	assert.Error(t, registry.MarkError("job_missing", "x"))
}
