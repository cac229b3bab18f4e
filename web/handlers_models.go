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

// ModelRequest is the payload for registering a model.
type ModelRequest struct {
	ModelID           string `json:"model_id"`
	Name              string `json:"name"`
	Type              string `json:"type"`
	Family            string `json:"family"`
	ContextWindow     int    `json:"context_window"`
	MaxOutputTokens   int    `json:"max_output_tokens"`
	EmbeddingDims     int    `json:"embedding_dims"`
	SupportsStreaming bool   `json:"supports_streaming"`
	SupportsFunctions bool   `json:"supports_functions"`
	SupportsVision    bool   `json:"supports_vision"`
	InputPriceCents   int64  `json:"input_price_cents"`
	OutputPriceCents  int64  `json:"output_price_cents"`
	Available         *bool  `json:"available"`
}

// ModelResponse is the wire shape of a catalog entry.
type ModelResponse struct {
	ID                string    `json:"id"`
	ProviderID        string    `json:"provider_id"`
	ModelID           string    `json:"model_id"`
	Name              string    `json:"name"`
	Type              string    `json:"type"`
	Family            string    `json:"family,omitempty"`
	ContextWindow     int       `json:"context_window,omitempty"`
	MaxOutputTokens   int       `json:"max_output_tokens,omitempty"`
	EmbeddingDims     int       `json:"embedding_dims,omitempty"`
	SupportsStreaming bool      `json:"supports_streaming"`
	SupportsFunctions bool      `json:"supports_functions"`
	SupportsVision    bool      `json:"supports_vision"`
	InputPriceCents   int64     `json:"input_price_cents"`
	OutputPriceCents  int64     `json:"output_price_cents"`
	Available         bool      `json:"available"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func modelToResponse(m provider.Model) ModelResponse {
	return ModelResponse{
		ID:                m.ID,
		ProviderID:        m.ProviderID,
		ModelID:           m.ModelID,
		Name:              m.Name,
		Type:              string(m.Type),
		Family:            m.Family,
		ContextWindow:     m.ContextWindow,
		MaxOutputTokens:   m.MaxOutputTokens,
		EmbeddingDims:     m.EmbeddingDims,
		SupportsStreaming: m.SupportsStreaming,
		SupportsFunctions: m.SupportsFunctions,
		SupportsVision:    m.SupportsVision,
		InputPriceCents:   m.InputPriceCentsPerMTok,
		OutputPriceCents:  m.OutputPriceCentsPerMTok,
		Available:         m.Available,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// AddModel registers a model under a provider.
func (h *Handler) AddModel(w http.ResponseWriter, r *http.Request) {
	providerID := chi.URLParam(r, "provider_id")

	var req ModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ModelID == "" {
		writeError(w, http.StatusUnprocessableEntity, "model_id is required")
		return
	}

	m := provider.Model{
		ProviderID:              providerID,
		ModelID:                 req.ModelID,
		Name:                    req.Name,
		Type:                    provider.ModelType(req.Type),
		Family:                  req.Family,
		ContextWindow:           req.ContextWindow,
		MaxOutputTokens:         req.MaxOutputTokens,
		EmbeddingDims:           req.EmbeddingDims,
		SupportsStreaming:       req.SupportsStreaming,
		SupportsFunctions:       req.SupportsFunctions,
		SupportsVision:          req.SupportsVision,
		InputPriceCentsPerMTok:  req.InputPriceCents,
		OutputPriceCentsPerMTok: req.OutputPriceCents,
		Available:               true,
	}
	if req.Name == "" {
		m.Name = req.ModelID
	}
	if req.Available != nil {
		m.Available = *req.Available
	}

	created, err := h.providers.AddModel(r.Context(), m)
	if errors.Is(err, ports.ErrNotFound) {
		writeError(w, http.StatusNotFound, "provider not found")
		return
	}
	if err != nil {
		h.internalError(w, err, "add model")
		return
	}
	writeJSON(w, http.StatusCreated, modelToResponse(created))
}

// ListModels returns a provider's model catalog.
func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	providerID := chi.URLParam(r, "provider_id")

	models, err := h.providers.ListModels(r.Context(), providerID)
	if errors.Is(err, ports.ErrNotFound) {
		writeError(w, http.StatusNotFound, "provider not found")
		return
	}
	if err != nil {
		h.internalError(w, err, "list models")
		return
	}

	out := make([]ModelResponse, len(models))
	for i, m := range models {
		out[i] = modelToResponse(m)
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": out, "total": len(out)})
}

// AllModels returns the full catalog across providers.
func (h *Handler) AllModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.providers.AllModels(r.Context())
	if err != nil {
		h.internalError(w, err, "list all models")
		return
	}

	out := make([]ModelResponse, len(models))
	for i, m := range models {
		out[i] = modelToResponse(m)
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": out, "total": len(out)})
}
