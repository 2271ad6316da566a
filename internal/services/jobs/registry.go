package jobs

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/srajal-87/DealSense-AI/internal/common"
	"github.com/srajal-87/DealSense-AI/internal/models"
)

// Registry is the in-memory source of truth for search jobs. All
// reads return deep copies so callers never share registry state.
type Registry struct {
	mu     sync.RWMutex
	jobs   map[string]*models.SearchJob
	logger arbor.ILogger
}

// NewRegistry creates an empty job registry
func NewRegistry(logger arbor.ILogger) *Registry {
	return &Registry{
		jobs:   make(map[string]*models.SearchJob),
		logger: logger,
	}
}

// Create registers a new job in the initializing state
func (r *Registry) Create(categories []string) *models.SearchJob {
	job := models.NewSearchJob(common.NewJobID(), categories)

	r.mu.Lock()
	r.jobs[job.ID] = job
	r.mu.Unlock()

	if r.logger != nil {
		r.logger.Info().
			Str("job_id", job.ID).
			Strs("categories", categories).
			Msg("Search job created")
	}
	return job.Clone()
}

// Get returns a snapshot of a job by ID
func (r *Registry) Get(id string) (*models.SearchJob, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, false
	}
	return job.Clone(), true
}

// List returns snapshots of all jobs, newest first, without result rows
func (r *Registry) List() []*models.SearchJob {
	r.mu.RLock()
	summaries := make([]*models.SearchJob, 0, len(r.jobs))
	for _, job := range r.jobs {
		summaries = append(summaries, job.Summary())
	}
	r.mu.RUnlock()

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries
}

// MarkRunning transitions a job to running
func (r *Registry) MarkRunning(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return fmt.Errorf("job not found: %s", id)
	}
	job.MarkRunning()
	return nil
}

// MarkCompleted records results and transitions to completed.
// Overwrites an advisory cancelled flag when the worker finishes anyway.
func (r *Registry) MarkCompleted(id string, results [][]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return fmt.Errorf("job not found: %s", id)
	}
	job.MarkCompleted(results)
	return nil
}

// MarkError records a failure and transitions to error
func (r *Registry) MarkError(id string, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return fmt.Errorf("job not found: %s", id)
	}
	job.MarkError(message)
	return nil
}

// Cancel flags a running job as cancelled and returns the status at
// the time of the call. Jobs that are not running are left untouched.
func (r *Registry) Cancel(id string) (models.JobStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return "", fmt.Errorf("job not found: %s", id)
	}

	if job.Status != models.JobStatusRunning {
		return job.Status, nil
	}

	job.MarkCancelled()
	if r.logger != nil {
		r.logger.Info().Str("job_id", id).Msg("Search job cancelled")
	}
	return models.JobStatusCancelled, nil
}

// IsCancelled reports whether a job carries the cancelled flag
func (r *Registry) IsCancelled(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	return ok && job.Status == models.JobStatusCancelled
}

// ClearTerminal removes all jobs in a terminal state and returns
// how many were removed. In-flight jobs are left untouched.
func (r *Registry) ClearTerminal() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, job := range r.jobs {
		if job.Status.IsTerminal() {
			delete(r.jobs, id)
			removed++
		}
	}

	if removed > 0 && r.logger != nil {
		r.logger.Info().Int("removed", removed).Msg("Cleared terminal jobs")
	}
	return removed
}

// ActiveCount returns the number of non-terminal jobs
func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	active := 0
	for _, job := range r.jobs {
		if !job.Status.IsTerminal() {
			active++
		}
	}
	return active
}

// Count returns the total number of tracked jobs
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}
