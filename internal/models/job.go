package models

import (
	"time"
)

// JobStatus represents the lifecycle state of a search job
type JobStatus string

const (
	JobStatusInitializing JobStatus = "initializing"
	JobStatusRunning      JobStatus = "running"
	JobStatusCompleted    JobStatus = "completed"
	JobStatusError        JobStatus = "error"
	JobStatusCancelled    JobStatus = "cancelled"
)

// IsTerminal returns true when no further transitions are expected
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusError, JobStatusCancelled:
		return true
	}
	return false
}

// SearchJob tracks a single asynchronous deal search run.
// Results rows are display-ready strings: description, price,
// estimate, discount, and a link cell.
type SearchJob struct {
	ID          string     `json:"job_id"`
	Categories  []string   `json:"categories"`
	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Results     [][]string `json:"results,omitempty"`
	ResultCount int        `json:"result_count"`
	Error       string     `json:"error,omitempty"`
}

// NewSearchJob creates a job in the initializing state
func NewSearchJob(id string, categories []string) *SearchJob {
	return &SearchJob{
		ID:         id,
		Categories: append([]string(nil), categories...),
		Status:     JobStatusInitializing,
		CreatedAt:  time.Now().UTC(),
	}
}

// MarkRunning transitions the job to running and records the start time
func (j *SearchJob) MarkRunning() {
	now := time.Now().UTC()
	j.Status = JobStatusRunning
	j.StartedAt = &now
}

// MarkCompleted records results and transitions to completed
func (j *SearchJob) MarkCompleted(results [][]string) {
	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	j.Results = results
	j.ResultCount = len(results)
	j.CompletedAt = &now
}

// MarkError records a failure message and transitions to error
func (j *SearchJob) MarkError(message string) {
	now := time.Now().UTC()
	j.Status = JobStatusError
	j.Error = message
	j.CompletedAt = &now
}

// MarkCancelled flags the job as cancelled. The cancellation is
// advisory: a worker that finishes anyway overwrites this state.
func (j *SearchJob) MarkCancelled() {
	now := time.Now().UTC()
	j.Status = JobStatusCancelled
	j.CompletedAt = &now
}

// Clone returns a deep copy safe to hand outside the registry lock
func (j *SearchJob) Clone() *SearchJob {
	clone := *j
	clone.Categories = append([]string(nil), j.Categories...)
	if j.StartedAt != nil {
		t := *j.StartedAt
		clone.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		clone.CompletedAt = &t
	}
	if j.Results != nil {
		clone.Results = make([][]string, len(j.Results))
		for i, row := range j.Results {
			clone.Results[i] = append([]string(nil), row...)
		}
	}
	return &clone
}

// Summary returns the job without its result rows, for list endpoints
func (j *SearchJob) Summary() *SearchJob {
	summary := j.Clone()
	summary.Results = nil
	return summary
}
