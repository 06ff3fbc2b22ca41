// Package api implements the JSON handlers of the mudra HTTP API.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/engine"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// ConfigController exposes the active engine configuration.
type ConfigController interface {
	Config() *config.Snapshot
	ApplyConfig(s *config.Snapshot) error
	ReloadConfig() (bool, error)
}

// EngineController toggles detection and reports its state.
type EngineController interface {
	SetEnabled(enabled bool)
	IsEnabled() bool
	Running() bool
	Status() string
	Stats() engine.Stats
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
