package server

import (
	"encoding/json"
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route - log and status streaming
	mux.HandleFunc("/ws/logs", s.app.WSHandler.HandleLogStream)

	// API routes - deal search jobs
	mux.HandleFunc("/api/search", s.app.SearchHandler.StartSearchHandler)         // POST - start a search job
	mux.HandleFunc("/api/results/", s.app.SearchHandler.GetResultsHandler)        // GET /{id} - full job with results
	mux.HandleFunc("/api/jobs", s.app.SearchHandler.ListJobsHandler)              // GET - job summaries
	mux.HandleFunc("/api/jobs/", s.app.SearchHandler.CancelJobHandler)            // DELETE /{id} - advisory cancel
	mux.HandleFunc("/api/clear-results", s.app.SearchHandler.ClearResultsHandler) // POST - drop terminal jobs

	// API routes - metadata
	mux.HandleFunc("/api/categories", s.app.SearchHandler.ListCategoriesHandler)
	mux.HandleFunc("/api/opportunities/recent", s.app.SearchHandler.RecentOpportunitiesHandler)
	mux.HandleFunc("/api/status", s.app.SearchHandler.StatusHandler)
	mux.HandleFunc("/api/version", s.versionHandler)
	mux.HandleFunc("/api/health", s.healthHandler)
	mux.HandleFunc("/api/shutdown", s.shutdownHandler)

	return mux
}

// shutdownHandler requests a graceful process shutdown
func (s *Server) shutdownHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		json.NewEncoder(w).Encode(map[string]string{"error": "Method not allowed"})
		return
	}

	s.app.Logger.Info().Msg("Shutdown requested via API")
	writeJSON(w, map[string]string{
		"message": "Shutting down",
	})
	s.requestShutdown()
}

// versionHandler returns the build version
func (s *Server) versionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"version": s.app.Version,
	})
}

// healthHandler is a liveness probe
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"status": "ok",
	})
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(data)
}
