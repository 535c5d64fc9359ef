// Package handlers exposes the read-only HTTP surface of a monitoring
// session. The consuming UI presents interventions and connection status;
// nothing here mutates pipeline state.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/serenemind/emotion-monitor/internal/intervention"
	"github.com/serenemind/emotion-monitor/internal/session"
	"github.com/serenemind/emotion-monitor/pkg/logging"
)

// SessionView is the session surface the handlers read from. Satisfied by
// *session.Session.
type SessionView interface {
	Status() session.Status
	History() []intervention.Record
}

// StatusHandler serves session status and intervention history.
type StatusHandler struct {
	view   SessionView
	logger *logging.Logger
}

// NewStatusHandler creates the status handler.
func NewStatusHandler(view SessionView, logger *logging.Logger) *StatusHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &StatusHandler{view: view, logger: logger}
}

// Healthz reports liveness.
func (h *StatusHandler) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// GetStatus returns the session snapshot, including connection state and
// reconnect attempt count so persistent connect failures stay visible.
func (h *StatusHandler) GetStatus(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, h.view.Status())
}

// ListInterventions returns the bounded intervention history, oldest first.
func (h *StatusHandler) ListInterventions(w http.ResponseWriter, _ *http.Request) {
	records := h.view.History()
	if records == nil {
		records = []intervention.Record{}
	}
	h.writeJSON(w, map[string]any{
		"interventions": records,
		"count":         len(records),
	})
}

func (h *StatusHandler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("status: encode response", "error", err)
	}
}
