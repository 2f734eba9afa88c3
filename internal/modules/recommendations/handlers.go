package recommendations

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
)

// Handler handles recommendation HTTP requests
type Handler struct {
	repo *Repository
	log  zerolog.Logger
}

// NewHandler creates a new recommendations handler
func NewHandler(repo *Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "recommendations").Logger(),
	}
}

// HandleList returns recommendations, optionally filtered by ?status=
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	var (
		items []Recommendation
		err   error
	)

	if status := r.URL.Query().Get("status"); status != "" {
		items, err = h.repo.ByStatus(Status(status))
	} else {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		items, err = h.repo.All(limit)
	}

	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load recommendations")
		writeError(w, http.StatusInternalServerError, "failed to load recommendations")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":           len(items),
		"recommendations": items,
	})
}

// HandleActive returns all open (non-terminal) recommendations
func (h *Handler) HandleActive(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.Open()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load open recommendations")
		writeError(w, http.StatusInternalServerError, "failed to load recommendations")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":           len(items),
		"recommendations": items,
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
