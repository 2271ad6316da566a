package interfaces

import (
	"context"

	"github.com/srajal-87/DealSense-AI/internal/models"
)

// JobRegistry tracks search jobs through their lifecycle
type JobRegistry interface {
	// Create registers a new job in the initializing state
	Create(categories []string) *models.SearchJob

	// Get returns a snapshot of a job by ID
	Get(id string) (*models.SearchJob, bool)

	// List returns snapshots of all jobs, newest first, without result rows
	List() []*models.SearchJob

	// MarkRunning transitions a job to running
	MarkRunning(id string) error

	// MarkCompleted records results and transitions to completed
	MarkCompleted(id string, results [][]string) error

	// MarkError records a failure and transitions to error
	MarkError(id string, message string) error

	// Cancel flags a running job as cancelled. The flag is advisory:
	// a worker that finishes anyway overwrites it. Returns the job's
	// status at the time of the call.
	Cancel(id string) (models.JobStatus, error)

	// IsCancelled reports whether a job carries the cancelled flag
	IsCancelled(id string) bool

	// ClearTerminal removes all completed, error, and cancelled jobs
	// and returns how many were removed
	ClearTerminal() int

	// ActiveCount returns the number of non-terminal jobs
	ActiveCount() int

	// Count returns the total number of tracked jobs
	Count() int
}

// JobExecutor runs search jobs on background workers
type JobExecutor interface {
	// Execute starts the pipeline for a job on a new goroutine.
	// All outcomes, including panics, are recorded on the registry.
	Execute(ctx context.Context, job *models.SearchJob)
}

// DealPipeline produces ranked deal opportunities for a category set
type DealPipeline interface {
	// Run scans the category feeds, prices candidates, and returns
	// up to the configured maximum of threshold-clearing opportunities
	Run(ctx context.Context, categories []string) ([]models.Opportunity, error)
}
