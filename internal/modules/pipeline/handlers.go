package pipeline

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Handler exposes pipeline control and bookkeeping over HTTP
type Handler struct {
	orch    *Orchestrator
	jobs    *JobRepository
	clock   Clock
	timeout time.Duration
	log     zerolog.Logger
}

// NewHandler creates a pipeline handler
func NewHandler(orch *Orchestrator, jobs *JobRepository, timeout time.Duration, log zerolog.Logger) *Handler {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &Handler{
		orch:    orch,
		jobs:    jobs,
		clock:   orch.clock,
		timeout: timeout,
		log:     log.With().Str("handler", "pipeline").Logger(),
	}
}

// HandleRefresh triggers a pipeline run for today. ?schedule= selects the
// slot (default "manual"); ?force=true reruns a slot that already completed.
// Each schedule value is its own RunKey namespace, so a manual run keeps its
// own cache and never resumes a morning or evening run's progress.
// The run executes in the background; progress lands in /api/pipeline/runs.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	schedule := r.URL.Query().Get("schedule")
	if schedule == "" {
		schedule = "manual"
	}
	force := r.URL.Query().Get("force") == "true"

	key := NewRunKey(h.clock.Now(), schedule)

	runID, err := h.orch.Trigger(key, force, h.timeout)
	switch {
	case errors.Is(err, ErrRunInProgress):
		writeError(w, http.StatusConflict, "a run for this slot is already in progress")
		return
	case errors.Is(err, ErrAlreadyCompleted):
		writeError(w, http.StatusConflict, "this slot already completed today; pass force=true to rerun")
		return
	case err != nil:
		h.log.Error().Err(err).Str("run", key.String()).Msg("Failed to trigger run")
		writeError(w, http.StatusInternalServerError, "failed to trigger run")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"run_id":   runID,
		"run_date": key.Date,
		"schedule": key.Schedule,
		"status":   RunStatusRunning,
	})
}

// HandleRuns returns recent pipeline runs, newest first
func (h *Handler) HandleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	runs, err := h.jobs.Recent(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load runs")
		writeError(w, http.StatusInternalServerError, "failed to load runs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(runs),
		"runs":  runs,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
