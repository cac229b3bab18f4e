package web

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/archonlabs/provgate/domain/provider"
	"github.com/archonlabs/provgate/ports"
)

// HealthCheckResponse is the wire shape of one probe outcome.
type HealthCheckResponse struct {
	ID         string    `json:"id"`
	ProviderID string    `json:"provider_id"`
	Status     string    `json:"status"`
	StatusCode int       `json:"status_code,omitempty"`
	LatencyMs  int64     `json:"latency_ms"`
	Error      string    `json:"error,omitempty"`
	CheckedAt  time.Time `json:"checked_at"`
}

func healthCheckToResponse(hc provider.HealthCheck) HealthCheckResponse {
	return HealthCheckResponse{
		ID:         hc.ID,
		ProviderID: hc.ProviderID,
		Status:     string(hc.Status),
		StatusCode: hc.StatusCode,
		LatencyMs:  hc.LatencyMs,
		Error:      hc.Error,
		CheckedAt:  hc.CheckedAt,
	}
}

// CheckProviderHealth probes the provider now and returns the outcome.
func (h *Handler) CheckProviderHealth(w http.ResponseWriter, r *http.Request) {
	providerID := chi.URLParam(r, "provider_id")

	hc, err := h.health.CheckProvider(r.Context(), providerID)
	if errors.Is(err, ports.ErrNotFound) {
		writeError(w, http.StatusNotFound, "provider not found")
		return
	}
	if err != nil {
		h.internalError(w, err, "health check")
		return
	}
	writeJSON(w, http.StatusOK, healthCheckToResponse(hc))
}

// ProviderHealthHistory returns recent probe outcomes, newest first
// (?limit=N, default 50).
func (h *Handler) ProviderHealthHistory(w http.ResponseWriter, r *http.Request) {
	providerID := chi.URLParam(r, "provider_id")

	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}

	history, err := h.health.History(r.Context(), providerID, limit)
	if err != nil {
		h.internalError(w, err, "health history")
		return
	}

	out := make([]HealthCheckResponse, len(history))
	for i, hc := range history {
		out[i] = healthCheckToResponse(hc)
	}
	writeJSON(w, http.StatusOK, map[string]any{"checks": out, "total": len(out)})
}
