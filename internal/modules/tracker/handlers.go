package tracker

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Handler handles tracked-prediction HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new tracker handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "tracker").Logger(),
	}
}

// HandlePredictions returns open recommendations with live derived metrics
func (h *Handler) HandlePredictions(w http.ResponseWriter, r *http.Request) {
	predictions, err := h.service.TrackedPredictions(time.Now())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute tracked predictions")
		writeError(w, http.StatusInternalServerError, "failed to compute predictions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":       len(predictions),
		"predictions": predictions,
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
