package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/srajal-87/DealSense-AI/internal/interfaces"
	"github.com/srajal-87/DealSense-AI/internal/models"
)

// Executor runs search jobs on background goroutines. Every outcome,
// including a panicking pipeline, lands in the registry so no job is
// ever left stuck in a non-terminal state.
type Executor struct {
	registry interfaces.JobRegistry
	pipeline interfaces.DealPipeline
	store    interfaces.OpportunityStore
	logger   arbor.ILogger
	wg       sync.WaitGroup
}

// NewExecutor creates an executor. The opportunity store is optional.
func NewExecutor(registry interfaces.JobRegistry, pipeline interfaces.DealPipeline, store interfaces.OpportunityStore, logger arbor.ILogger) *Executor {
	return &Executor{
		registry: registry,
		pipeline: pipeline,
		store:    store,
		logger:   logger,
	}
}

// Execute starts the pipeline for a job on a new goroutine
func (e *Executor) Execute(ctx context.Context, job *models.SearchJob) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.run(ctx, job)
	}()
}

// Wait blocks until all in-flight jobs have finished. Used during
// shutdown and in tests.
func (e *Executor) Wait() {
	e.wg.Wait()
}

func (e *Executor) run(ctx context.Context, job *models.SearchJob) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().
				Str("job_id", job.ID).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Search pipeline panicked")
			if err := e.registry.MarkError(job.ID, fmt.Sprintf("internal error: %v", r)); err != nil {
				e.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to record panic outcome")
			}
		}
	}()

	if err := e.registry.MarkRunning(job.ID); err != nil {
		e.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to mark job running")
		return
	}

	e.logger.Info().
		Str("job_id", job.ID).
		Strs("categories", job.Categories).
		Msg("Starting deal search")

	opportunities, err := e.pipeline.Run(ctx, job.Categories)
	if err != nil {
		e.logger.Error().Err(err).Str("job_id", job.ID).Msg("Deal search failed")
		if markErr := e.registry.MarkError(job.ID, err.Error()); markErr != nil {
			e.logger.Warn().Err(markErr).Str("job_id", job.ID).Msg("Failed to record job error")
		}
		return
	}

	if e.store != nil && len(opportunities) > 0 {
		if err := e.store.SaveAll(opportunities); err != nil {
			e.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to persist opportunities")
		}
	}

	results := make([][]string, 0, len(opportunities))
	for i := range opportunities {
		results = append(results, opportunities[i].TableRow())
	}

	if e.registry.IsCancelled(job.ID) {
		e.logger.Info().Str("job_id", job.ID).Msg("Job was cancelled mid-run, recording results anyway")
	}

	if err := e.registry.MarkCompleted(job.ID, results); err != nil {
		e.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to record job completion")
		return
	}

	e.logger.Info().
		Str("job_id", job.ID).
		Int("opportunities", len(results)).
		Msg("Deal search completed")
}
