package api

import (
	"context"
	"net/http"

	"github.com/newsquill/newsquill/internal/log"
)

// ReadyCheck verifies that backing services are reachable. Nil means no
// readiness dependencies are configured.
type ReadyCheck func(ctx context.Context) error

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	ready  ReadyCheck
	logger log.Logger
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(ready ReadyCheck, logger log.Logger) *HealthHandler {
	return &HealthHandler{ready: ready, logger: logger}
}

// RegisterRoutes registers health routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.liveness)
	mux.HandleFunc("GET /ready", h.readiness)
}

// liveness returns 200 if the process is alive.
func (h *HealthHandler) liveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// readiness returns 200 if all backing services are reachable.
func (h *HealthHandler) readiness(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			h.logger.Error("readiness check failed", "error", err)
			http.Error(w, "dependencies not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
