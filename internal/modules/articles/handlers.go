package articles

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Handler handles article HTTP requests
type Handler struct {
	repo     *ArticleRepository
	lookback time.Duration
	log      zerolog.Logger
}

// NewHandler creates a new articles handler
func NewHandler(repo *ArticleRepository, lookback time.Duration, log zerolog.Logger) *Handler {
	return &Handler{
		repo:     repo,
		lookback: lookback,
		log:      log.With().Str("handler", "articles").Logger(),
	}
}

// HandleRecent returns articles from the configured lookback window
func (h *Handler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	since := time.Now().Add(-h.lookback)
	if v := r.URL.Query().Get("hours"); v != "" {
		if d, err := time.ParseDuration(v + "h"); err == nil {
			since = time.Now().Add(-d)
		}
	}

	items, err := h.repo.Recent(since)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load recent articles")
		writeError(w, http.StatusInternalServerError, "failed to load articles")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"since":    since,
		"count":    len(items),
		"articles": items,
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
