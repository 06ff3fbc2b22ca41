package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/ayusman/mudra/internal/config"
)

// ConfigHandler serves the settings editor endpoints.
type ConfigHandler struct {
	ctrl   ConfigController
	logger *zap.Logger
}

// NewConfigHandler creates a ConfigHandler.
func NewConfigHandler(ctrl ConfigController, logger *zap.Logger) *ConfigHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfigHandler{ctrl: ctrl, logger: logger.Named("api.config")}
}

type configResponse struct {
	Config   json.RawMessage `json:"config"`
	Warnings []string        `json:"warnings,omitempty"`
}

type reloadResponse struct {
	Changed bool `json:"changed"`
}

// Get handles GET /api/config. The active snapshot is returned in its
// persisted form, as YAML when format=yaml is given.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap := h.ctrl.Config()

	if r.URL.Query().Get("format") == "yaml" {
		data, err := config.Marshal(snap, config.FormatYAML)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to encode configuration")
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
		return
	}

	h.respond(w, snap)
}

// Put handles PUT /api/config. The body is a settings document; fields it
// omits take their defaults, as when the settings file is loaded.
func (h *ConfigHandler) Put(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	snap, err := config.Parse(body, config.FormatJSON)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.ctrl.ApplyConfig(snap); err != nil {
		h.logger.Warn("failed to apply configuration", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to apply configuration")
		return
	}

	h.respond(w, snap)
}

// Reset handles POST /api/config/reset.
func (h *ConfigHandler) Reset(w http.ResponseWriter, r *http.Request) {
	snap := config.Default()
	if err := h.ctrl.ApplyConfig(snap); err != nil {
		h.logger.Warn("failed to reset configuration", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to reset configuration")
		return
	}
	h.respond(w, snap)
}

// Reload handles POST /api/config/reload.
func (h *ConfigHandler) Reload(w http.ResponseWriter, r *http.Request) {
	changed, err := h.ctrl.ReloadConfig()
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, reloadResponse{Changed: changed})
}

func (h *ConfigHandler) respond(w http.ResponseWriter, snap *config.Snapshot) {
	data, err := config.Marshal(snap, config.FormatJSON)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode configuration")
		return
	}
	writeJSON(w, http.StatusOK, configResponse{
		Config:   data,
		Warnings: snap.Warnings,
	})
}
