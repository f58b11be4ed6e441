package handlers

import (
	"net/http"

	"github.com/17hemanthkumar/pm/internal/config"
)

// ConfigHandler exposes the effective configuration.
type ConfigHandler struct {
	config *config.Config
}

// NewConfigHandler creates a new config handler.
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{
		config: cfg,
	}
}

// Get returns the configuration the service is running with.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.config)
}
