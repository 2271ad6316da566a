package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/srajal-87/DealSense-AI/internal/common"
	"github.com/srajal-87/DealSense-AI/internal/interfaces"
	"github.com/srajal-87/DealSense-AI/internal/models"
)

// SearchRequest is the body of POST /api/search
type SearchRequest struct {
	Categories []string `json:"categories" validate:"required,min=1,max=3,dive,required"`
}

// SearchHandler exposes the deal search job API
type SearchHandler struct {
	registry interfaces.JobRegistry
	executor interfaces.JobExecutor
	store    interfaces.OpportunityStore
	config   *common.Config
	validate *validator.Validate
	logger   arbor.ILogger
}

// NewSearchHandler creates the search API handler. The opportunity
// store is optional.
func NewSearchHandler(registry interfaces.JobRegistry, executor interfaces.JobExecutor, store interfaces.OpportunityStore, config *common.Config, logger arbor.ILogger) *SearchHandler {
	return &SearchHandler{
		registry: registry,
		executor: executor,
		store:    store,
		config:   config,
		validate: validator.New(),
		logger:   logger,
	}
}

// StartSearchHandler handles POST /api/search.
// Accepts 1 to 3 known categories and starts a background search job.
func (h *SearchHandler) StartSearchHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Select between 1 and 3 categories")
		return
	}

	if unknown := h.unknownCategories(req.Categories); len(unknown) > 0 {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Unknown categories: %s", strings.Join(unknown, ", ")))
		return
	}

	job := h.registry.Create(req.Categories)

	// The search outlives this request: net/http cancels r.Context()
	// as soon as the handler returns, which would abort the worker.
	h.executor.Execute(context.WithoutCancel(r.Context()), job)

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"job_id":  job.ID,
		"status":  "started",
		"message": fmt.Sprintf("Search started for %d categories", len(req.Categories)),
	})
}

// unknownCategories returns requested categories with no configured feed
func (h *SearchHandler) unknownCategories(categories []string) []string {
	var unknown []string
	for _, category := range categories {
		if _, ok := h.config.Pipeline.Feeds[category]; !ok {
			unknown = append(unknown, category)
		}
	}
	return unknown
}

// GetResultsHandler handles GET /api/results/{id}.
// Returns the full job including result rows.
func (h *SearchHandler) GetResultsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	jobID := strings.TrimPrefix(r.URL.Path, "/api/results/")
	if jobID == "" || strings.Contains(jobID, "/") {
		WriteError(w, http.StatusBadRequest, "Job ID is required")
		return
	}

	job, ok := h.registry.Get(jobID)
	if !ok {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("Job not found: %s", jobID))
		return
	}

	WriteJSON(w, http.StatusOK, job)
}

// ListJobsHandler handles GET /api/jobs.
// Returns job summaries without result rows, newest first.
func (h *SearchHandler) ListJobsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	jobs := h.registry.List()
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// CancelJobHandler handles DELETE /api/jobs/{id}.
// The cancellation is advisory: the response carries the job's status
// at the time of the call, which is only "cancelled" when the job was
// actually running.
func (h *SearchHandler) CancelJobHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}

	jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	if jobID == "" || strings.Contains(jobID, "/") {
		WriteError(w, http.StatusBadRequest, "Job ID is required")
		return
	}

	status, err := h.registry.Cancel(jobID)
	if err != nil {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("Job not found: %s", jobID))
		return
	}

	message := "Cancellation requested"
	if status != models.JobStatusCancelled {
		message = fmt.Sprintf("Job is not running (status: %s)", status)
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"job_id":  jobID,
		"status":  string(status),
		"message": message,
	})
}

// ClearResultsHandler handles POST /api/clear-results.
// Removes all terminal jobs and reports how many were removed.
func (h *SearchHandler) ClearResultsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	cleared := h.registry.ClearTerminal()
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"cleared": cleared,
		"message": fmt.Sprintf("Cleared %d completed jobs", cleared),
	})
}

// StatusHandler handles GET /api/status.
// Reports whether a search is in flight plus aggregate figures.
func (h *SearchHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	currentJobID := ""
	for _, job := range h.registry.List() {
		if job.Status == models.JobStatusRunning {
			currentJobID = job.ID
			break
		}
	}

	totalDeals := 0
	if h.store != nil {
		count, err := h.store.Count()
		if err != nil {
			h.logger.Warn().Err(err).Msg("Failed to count surfaced opportunities")
		} else {
			totalDeals = count
		}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"is_running":           h.registry.ActiveCount() > 0,
		"current_job_id":       currentJobID,
		"total_deals_found":    totalDeals,
		"categories_available": h.config.CategoryNames(),
	})
}

// ListCategoriesHandler handles GET /api/categories.
// Returns the configured category names in sorted order.
func (h *SearchHandler) ListCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": h.config.CategoryNames(),
	})
}

// RecentOpportunitiesHandler handles GET /api/opportunities/recent.
// Returns opportunities persisted across earlier runs.
func (h *SearchHandler) RecentOpportunitiesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	if h.store == nil {
		WriteJSON(w, http.StatusOK, map[string]interface{}{"opportunities": []string{}})
		return
	}

	opportunities, err := h.store.Recent(10)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to load recent opportunities")
		WriteError(w, http.StatusInternalServerError, "Failed to load recent opportunities")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"opportunities": opportunities,
	})
}
