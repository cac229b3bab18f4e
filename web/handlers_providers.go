package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/archonlabs/provgate/domain/provider"
	"github.com/archonlabs/provgate/ports"
)

// ProviderRequest is the payload for creating or updating a provider.
type ProviderRequest struct {
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name"`
	Type        string            `json:"type"`
	Services    []string          `json:"services"`
	BaseURL     string            `json:"base_url"`
	APIVersion  string            `json:"api_version"`
	TimeoutMs   int64             `json:"timeout_ms"`
	MaxRetries  int               `json:"max_retries"`
	Headers     map[string]string `json:"headers"`
	Active      *bool             `json:"active"`
}

// ProviderResponse is the wire shape of a provider.
type ProviderResponse struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	DisplayName     string            `json:"display_name"`
	Type            string            `json:"type"`
	Services        []string          `json:"services"`
	BaseURL         string            `json:"base_url,omitempty"`
	APIVersion      string            `json:"api_version,omitempty"`
	TimeoutMs       int64             `json:"timeout_ms"`
	MaxRetries      int               `json:"max_retries"`
	Headers         map[string]string `json:"headers,omitempty"`
	Active          bool              `json:"active"`
	Primary         bool              `json:"is_primary"`
	Health          string            `json:"health_status"`
	LastHealthCheck *time.Time        `json:"last_health_check,omitempty"`
	APIKeyEnvVar    string            `json:"api_key_env_var"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func providerToResponse(p provider.Provider) ProviderResponse {
	services := make([]string, len(p.Services))
	for i, s := range p.Services {
		services[i] = string(s)
	}
	return ProviderResponse{
		ID:              p.ID,
		Name:            p.Name,
		DisplayName:     p.DisplayName,
		Type:            string(p.Type),
		Services:        services,
		BaseURL:         p.BaseURL,
		APIVersion:      p.APIVersion,
		TimeoutMs:       p.Timeout.Milliseconds(),
		MaxRetries:      p.MaxRetries,
		Headers:         p.Headers,
		Active:          p.Active,
		Primary:         p.Primary,
		Health:          string(p.Health),
		LastHealthCheck: p.LastHealthCheck,
		APIKeyEnvVar:    provider.EnvVar(p.Type),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func (req ProviderRequest) apply(p provider.Provider) provider.Provider {
	p.Name = req.Name
	if req.DisplayName != "" {
		p.DisplayName = req.DisplayName
	}
	p.Type = provider.Type(req.Type)
	if len(req.Services) > 0 {
		p.Services = make([]provider.ServiceType, len(req.Services))
		for i, s := range req.Services {
			p.Services[i] = provider.ServiceType(s)
		}
	}
	p.BaseURL = req.BaseURL
	p.APIVersion = req.APIVersion
	if req.TimeoutMs > 0 {
		p.Timeout = time.Duration(req.TimeoutMs) * time.Millisecond
	}
	if req.MaxRetries > 0 {
		p.MaxRetries = req.MaxRetries
	}
	if req.Headers != nil {
		p.Headers = req.Headers
	}
	if req.Active != nil {
		p.Active = *req.Active
	} else if p.ID == "" {
		p.Active = true
	}
	return p
}

// ListProviders returns all configured providers.
func (h *Handler) ListProviders(w http.ResponseWriter, r *http.Request) {
	all, err := h.providers.List(r.Context())
	if err != nil {
		h.internalError(w, err, "list providers")
		return
	}

	out := make([]ProviderResponse, len(all))
	for i, p := range all {
		out[i] = providerToResponse(p)
	}
	writeJSON(w, http.StatusOK, map[string]any{"providers": out, "total": len(out)})
}

// CreateProvider registers a new provider.
func (h *Handler) CreateProvider(w http.ResponseWriter, r *http.Request) {
	var req ProviderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusUnprocessableEntity, "name is required")
		return
	}
	if req.Type == "" {
		writeError(w, http.StatusUnprocessableEntity, "type is required")
		return
	}

	p, err := h.providers.Create(r.Context(), req.apply(provider.Provider{}))
	if errors.Is(err, ports.ErrConflict) {
		writeError(w, http.StatusConflict, "provider name already in use")
		return
	}
	if err != nil {
		h.internalError(w, err, "create provider")
		return
	}
	writeJSON(w, http.StatusCreated, providerToResponse(p))
}

// GetProvider returns one provider by ID.
func (h *Handler) GetProvider(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "provider_id")
	p, err := h.providers.Get(r.Context(), id)
	if errors.Is(err, ports.ErrNotFound) {
		writeError(w, http.StatusNotFound, "provider not found")
		return
	}
	if err != nil {
		h.internalError(w, err, "get provider")
		return
	}
	writeJSON(w, http.StatusOK, providerToResponse(p))
}

// UpdateProvider replaces a provider's configuration.
func (h *Handler) UpdateProvider(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "provider_id")

	current, err := h.providers.Get(r.Context(), id)
	if errors.Is(err, ports.ErrNotFound) {
		writeError(w, http.StatusNotFound, "provider not found")
		return
	}
	if err != nil {
		h.internalError(w, err, "get provider")
		return
	}

	var req ProviderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		req.Name = current.Name
	}
	if req.Type == "" {
		req.Type = string(current.Type)
	}

	updated, err := h.providers.Update(r.Context(), req.apply(current))
	if err != nil {
		h.internalError(w, err, "update provider")
		return
	}
	writeJSON(w, http.StatusOK, providerToResponse(updated))
}

// DeleteProvider removes a provider and its credentials and models.
func (h *Handler) DeleteProvider(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "provider_id")
	err := h.providers.Delete(r.Context(), id)
	if errors.Is(err, ports.ErrNotFound) {
		writeError(w, http.StatusNotFound, "provider not found")
		return
	}
	if err != nil {
		h.internalError(w, err, "delete provider")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetActiveProvider returns the primary provider for a service
// (?service=llm, default llm).
func (h *Handler) GetActiveProvider(w http.ResponseWriter, r *http.Request) {
	service := provider.ServiceType(r.URL.Query().Get("service"))
	if service == "" {
		service = provider.ServiceLLM
	}

	p, err := h.providers.GetActive(r.Context(), service)
	if errors.Is(err, ports.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no active provider for service "+string(service))
		return
	}
	if err != nil {
		h.internalError(w, err, "get active provider")
		return
	}
	writeJSON(w, http.StatusOK, providerToResponse(p))
}

// SetActiveProvider marks a provider primary for a service.
func (h *Handler) SetActiveProvider(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProviderID string `json:"provider_id"`
		Service    string `json:"service"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ProviderID == "" {
		writeError(w, http.StatusUnprocessableEntity, "provider_id is required")
		return
	}
	service := provider.ServiceType(req.Service)
	if service == "" {
		service = provider.ServiceLLM
	}

	err := h.providers.SetActive(r.Context(), req.ProviderID, service)
	if errors.Is(err, ports.ErrNotFound) {
		writeError(w, http.StatusNotFound, "provider not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) internalError(w http.ResponseWriter, err error, op string) {
	h.logger.Error().Err(err).Str("op", op).Msg("request failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}
