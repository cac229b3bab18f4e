package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/archonlabs/provgate/domain/credential"
	"github.com/archonlabs/provgate/domain/provider"
	"github.com/archonlabs/provgate/ports"
)

// CredentialRequest carries a raw API key for storage or validation.
type CredentialRequest struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url,omitempty"`
}

// CredentialResponse is the wire shape of a stored credential. The
// secret itself is never returned.
type CredentialResponse struct {
	ID         string     `json:"id"`
	ProviderID string     `json:"provider_id"`
	Type       string     `json:"type"`
	BaseURL    string     `json:"base_url,omitempty"`
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	RotatedAt  *time.Time `json:"rotated_at,omitempty"`
}

func credentialToResponse(c provider.Credential) CredentialResponse {
	return CredentialResponse{
		ID:         c.ID,
		ProviderID: c.ProviderID,
		Type:       string(c.Type),
		BaseURL:    c.BaseURL,
		Active:     c.Active,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
		RotatedAt:  c.RotatedAt,
	}
}

// writeValidationFailure reports a format validation failure as a 422
// with a structured detail the client flattens into one message.
func (h *Handler) writeValidationFailure(w http.ResponseWriter, providerName string, result credential.Result) {
	if h.metrics != nil {
		for _, issue := range result.Errors {
			h.metrics.ValidationFailures.WithLabelValues(providerName, issue.Code).Inc()
		}
	}

	first := result.Errors[0]
	writeErrorDetail(w, http.StatusUnprocessableEntity, map[string]any{
		"message": credential.Message(first),
		"code":    first.Code,
		"errors":  result.Errors,
	})
}

// AddCredential validates, encrypts and stores a provider credential.
func (h *Handler) AddCredential(w http.ResponseWriter, r *http.Request) {
	providerID := chi.URLParam(r, "provider_id")

	var req CredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	c, result, err := h.providers.SetCredential(r.Context(), providerID, req.APIKey, req.BaseURL)
	if errors.Is(err, ports.ErrNotFound) {
		writeError(w, http.StatusNotFound, "provider not found")
		return
	}
	if err != nil {
		h.internalError(w, err, "set credential")
		return
	}
	if !result.Valid {
		h.writeValidationFailure(w, providerID, result)
		return
	}

	writeJSON(w, http.StatusCreated, credentialToResponse(c))
}

// ValidateCredential checks a key's format without storing it.
func (h *Handler) ValidateCredential(w http.ResponseWriter, r *http.Request) {
	providerID := chi.URLParam(r, "provider_id")

	var req CredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.providers.ValidateCredential(r.Context(), providerID, req.APIKey)
	if errors.Is(err, ports.ErrNotFound) {
		writeError(w, http.StatusNotFound, "provider not found")
		return
	}
	if err != nil {
		h.internalError(w, err, "validate credential")
		return
	}

	if h.metrics != nil && !result.Valid {
		for _, issue := range result.Errors {
			h.metrics.ValidationFailures.WithLabelValues(providerID, issue.Code).Inc()
		}
	}

	// Validation outcomes are data, not errors: a malformed key is a
	// 200 carrying the full result.
	writeJSON(w, http.StatusOK, result)
}

// RotateCredential replaces the secret of an existing credential.
func (h *Handler) RotateCredential(w http.ResponseWriter, r *http.Request) {
	credentialID := chi.URLParam(r, "credential_id")

	var req CredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	c, result, err := h.providers.RotateCredential(r.Context(), credentialID, req.APIKey)
	if errors.Is(err, ports.ErrNotFound) {
		writeError(w, http.StatusNotFound, "credential not found")
		return
	}
	if err != nil {
		h.internalError(w, err, "rotate credential")
		return
	}
	if !result.Valid {
		h.writeValidationFailure(w, c.ProviderID, result)
		return
	}

	if h.metrics != nil {
		h.metrics.CredentialRotations.WithLabelValues(c.ProviderID).Inc()
	}
	writeJSON(w, http.StatusOK, credentialToResponse(c))
}

// DeactivateCredential marks a credential inactive.
func (h *Handler) DeactivateCredential(w http.ResponseWriter, r *http.Request) {
	credentialID := chi.URLParam(r, "credential_id")

	err := h.providers.DeactivateCredential(r.Context(), credentialID)
	if errors.Is(err, ports.ErrNotFound) {
		writeError(w, http.StatusNotFound, "credential not found")
		return
	}
	if err != nil {
		h.internalError(w, err, "deactivate credential")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
