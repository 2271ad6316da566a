package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srajal-87/DealSense-AI/internal/common"
	"github.com/srajal-87/DealSense-AI/internal/interfaces"
	"github.com/srajal-87/DealSense-AI/internal/models"
	"github.com/srajal-87/DealSense-AI/internal/services/jobs"
)

// stubExecutor records submitted jobs and optionally completes them
type stubExecutor struct {
	registry interfaces.JobRegistry
	complete bool
	executed []string
}

func (e *stubExecutor) Execute(_ context.Context, job *models.SearchJob) {
	e.executed = append(e.executed, job.ID)
	if e.complete {
		e.registry.MarkRunning(job.ID)
		e.registry.MarkCompleted(job.ID, nil)
	}
}

func newTestScheduler(config *common.SchedulerConfig, complete bool) (*Scheduler, *jobs.Registry, *stubExecutor) {
	registry := jobs.NewRegistry(nil)
	executor := &stubExecutor{registry: registry, complete: complete}
	return NewScheduler(config, registry, executor, common.GetLogger()), registry, executor
}

func TestStart_DisabledIsNoOp(t *testing.T) {
	scheduler, _, _ := newTestScheduler(&common.SchedulerConfig{Enabled: false}, true)

	require.NoError(t, scheduler.Start())
	assert.False(t, scheduler.IsRunning())
}

func TestStart_RequiresCategories(t *testing.T) {
	scheduler, _, _ := newTestScheduler(&common.SchedulerConfig{
		Enabled:  true,
		Schedule: "0 */6 * * *",
	}, true)

	assert.Error(t, scheduler.Start())
}

func TestStart_InvalidSchedule(t *testing.T) {
	scheduler, _, _ := newTestScheduler(&common.SchedulerConfig{
		Enabled:    true,
		Schedule:   "not a schedule",
		Categories: []string{"Electronics"},
	}, true)

	assert.Error(t, scheduler.Start())
}

func TestRunScheduledSearch_SubmitsJob(t *testing.T) {
	scheduler, registry, executor := newTestScheduler(&common.SchedulerConfig{
		Enabled:    true,
		Schedule:   "0 */6 * * *",
		Categories: []string{"Electronics", "Computers"},
	}, true)

	scheduler.runScheduledSearch()

	require.Len(t, executor.executed, 1)
	assert.Equal(t, 1, registry.Count())

	lastRun, jobID, ok := scheduler.LastRun()
	require.True(t, ok)
	assert.False(t, lastRun.IsZero())
	assert.Equal(t, executor.executed[0], jobID)
}

func TestRunScheduledSearch_SkipsWhileInFlight(t *testing.T) {
	scheduler, registry, executor := newTestScheduler(&common.SchedulerConfig{
		Enabled:    true,
		Schedule:   "0 */6 * * *",
		Categories: []string{"Electronics"},
	}, false)

	// The first run never completes, so the second tick is skipped.
	scheduler.runScheduledSearch()
	scheduler.runScheduledSearch()

	assert.Len(t, executor.executed, 1)
	assert.Equal(t, 1, registry.Count())
}

func TestStartAndStop(t *testing.T) {
	scheduler, _, _ := newTestScheduler(&common.SchedulerConfig{
		Enabled:    true,
		Schedule:   "0 */6 * * *",
		Categories: []string{"Electronics"},
	}, true)

	require.NoError(t, scheduler.Start())
	assert.True(t, scheduler.IsRunning())

	scheduler.Stop()
	assert.False(t, scheduler.IsRunning())

	// Stop is idempotent
	scheduler.Stop()
}
