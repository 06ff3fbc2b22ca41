package api

import (
	"net/http"

	"github.com/ayusman/mudra/internal/engine"
)

// EngineHandler serves detection control and status.
type EngineHandler struct {
	ctrl EngineController
}

// NewEngineHandler creates an EngineHandler.
func NewEngineHandler(ctrl EngineController) *EngineHandler {
	return &EngineHandler{ctrl: ctrl}
}

type statusResponse struct {
	Enabled bool         `json:"enabled"`
	Running bool         `json:"running"`
	Status  string       `json:"status"`
	Stats   engine.Stats `json:"stats"`
}

// Status handles GET /api/status.
func (h *EngineHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.status())
}

// Start handles POST /api/engine/start.
func (h *EngineHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.ctrl.SetEnabled(true)
	writeJSON(w, http.StatusOK, h.status())
}

// Stop handles POST /api/engine/stop. Every pressed key is released.
func (h *EngineHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.ctrl.SetEnabled(false)
	writeJSON(w, http.StatusOK, h.status())
}

func (h *EngineHandler) status() statusResponse {
	return statusResponse{
		Enabled: h.ctrl.IsEnabled(),
		Running: h.ctrl.Running(),
		Status:  h.ctrl.Status(),
		Stats:   h.ctrl.Stats(),
	}
}
