package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"csv-stock-merge/internal/store"
)

// RunHandler serves the read-only run-history endpoints.
type RunHandler struct {
	runs *store.Store
}

// NewRunHandler builds the handler around the run store.
func NewRunHandler(runs *store.Store) *RunHandler {
	return &RunHandler{runs: runs}
}

// ListRuns returns every recorded merge run
// @Summary List merge runs
// @Description Get all recorded merge runs, newest first
// @Tags runs
// @Produce json
// @Success 200 {array} map[string]interface{} "Runs"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs [get]
func (h *RunHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.runs.ListRuns()
	if err != nil {
		http.Error(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, runs)
}

// GetRun returns one run with its per-source outcomes
// @Summary Get one merge run
// @Description Get a run's status and the outcome of every source it touched
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Run"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Router /runs/{id} [get]
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := pathSegment(r.URL.Path, 3)
	run, err := h.runs.GetRun(runID)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to load run", http.StatusInternalServerError)
		return
	}
	writeJSON(w, run)
}

// GetRunEvents returns a run's leveled events
// @Summary Get run events
// @Description Get the leveled event log of one run in insertion order
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {array} map[string]interface{} "Events"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs/{id}/events [get]
func (h *RunHandler) GetRunEvents(w http.ResponseWriter, r *http.Request) {
	runID := pathSegment(r.URL.Path, 3)
	events, err := h.runs.ListEvents(runID)
	if err != nil {
		http.Error(w, "Failed to list events", http.StatusInternalServerError)
		return
	}
	writeJSON(w, events)
}

// pathSegment returns the n-th segment of the path (0-based, leading slash
// stripped), or "" when the path is shorter.
func pathSegment(path string, n int) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if n >= len(segments) {
		return ""
	}
	return segments[n]
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
