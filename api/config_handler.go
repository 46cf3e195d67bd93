package api

import (
	"net/http"

	"github.com/seenimoa/coinconvert/internal/config"
)

// ConfigResponse is the JSON body returned by GET /api/config.
type ConfigResponse struct {
	Config *config.Config     `json:"config"` // secrets masked
	Keys   []config.KeyStatus `json:"keys"`
}

// handleGetConfig returns the running configuration with the API key masked,
// plus the key status.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, ConfigResponse{
		Config: s.cfg.Masked(),
		Keys:   config.CheckAPIKeys(s.cfg),
	})
}
