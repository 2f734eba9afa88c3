package outlook

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// Handler handles outlook HTTP requests
type Handler struct {
	repo *Repository
	log  zerolog.Logger
}

// NewHandler creates a new outlook handler
func NewHandler(repo *Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "outlook").Logger(),
	}
}

// HandleLatest returns the most recent outlook; 404 when none exists yet
func (h *Handler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	o, err := h.repo.Latest()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load latest outlook")
		writeError(w, http.StatusInternalServerError, "failed to load outlook")
		return
	}
	if o == nil {
		writeError(w, http.StatusNotFound, "no outlook generated yet")
		return
	}

	writeJSON(w, http.StatusOK, o)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
