// Package app contains the application services wiring domain logic to
// storage and infrastructure ports.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/archonlabs/provgate/domain/credential"
	"github.com/archonlabs/provgate/domain/provider"
	"github.com/archonlabs/provgate/ports"
)

// ProviderService manages provider configurations, their credentials
// and the model catalog.
type ProviderService struct {
	providers   ports.ProviderStore
	credentials ports.CredentialStore
	models      ports.ModelStore
	cipher      ports.Cipher
	clock       ports.Clock
	ids         ports.IDGenerator
	logger      zerolog.Logger
}

// NewProviderService creates a new provider service.
func NewProviderService(
	providers ports.ProviderStore,
	credentials ports.CredentialStore,
	models ports.ModelStore,
	cipher ports.Cipher,
	clock ports.Clock,
	ids ports.IDGenerator,
	logger zerolog.Logger,
) *ProviderService {
	return &ProviderService{
		providers:   providers,
		credentials: credentials,
		models:      models,
		cipher:      cipher,
		clock:       clock,
		ids:         ids,
		logger:      logger.With().Str("component", "provider_service").Logger(),
	}
}

// Get retrieves a provider by ID.
func (s *ProviderService) Get(ctx context.Context, id string) (provider.Provider, error) {
	return s.providers.Get(ctx, id)
}

// List returns all configured providers.
func (s *ProviderService) List(ctx context.Context) ([]provider.Provider, error) {
	return s.providers.List(ctx)
}

// Create registers a new provider. The name must be unique; the type
// must be one of the known provider types or "custom".
func (s *ProviderService) Create(ctx context.Context, p provider.Provider) (provider.Provider, error) {
	if p.ID == "" {
		p.ID = s.ids.New()
	}
	now := s.clock.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Health == "" {
		p.Health = provider.HealthUnknown
	}
	if len(p.Services) == 0 {
		p.Services = []provider.ServiceType{provider.ServiceLLM}
	}

	if !p.IsValid() {
		return provider.Provider{}, fmt.Errorf("provider missing required fields")
	}

	if _, err := s.providers.GetByName(ctx, p.Name); err == nil {
		return provider.Provider{}, fmt.Errorf("provider name %q: %w", p.Name, ports.ErrConflict)
	} else if !errors.Is(err, ports.ErrNotFound) {
		return provider.Provider{}, fmt.Errorf("check provider name: %w", err)
	}

	if err := s.providers.Create(ctx, p); err != nil {
		return provider.Provider{}, fmt.Errorf("create provider: %w", err)
	}

	s.logger.Info().Str("provider_id", p.ID).Str("name", p.Name).Msg("provider created")
	return p, nil
}

// Update replaces an existing provider's configuration.
func (s *ProviderService) Update(ctx context.Context, p provider.Provider) (provider.Provider, error) {
	p.UpdatedAt = s.clock.Now()
	if err := s.providers.Update(ctx, p); err != nil {
		return provider.Provider{}, fmt.Errorf("update provider: %w", err)
	}
	return p, nil
}

// Delete removes a provider. Credentials and models cascade.
func (s *ProviderService) Delete(ctx context.Context, id string) error {
	if err := s.providers.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete provider: %w", err)
	}
	s.logger.Info().Str("provider_id", id).Msg("provider deleted")
	return nil
}

// GetActive returns the primary provider for a service type.
func (s *ProviderService) GetActive(ctx context.Context, service provider.ServiceType) (provider.Provider, error) {
	all, err := s.providers.List(ctx)
	if err != nil {
		return provider.Provider{}, err
	}
	for _, p := range all {
		if p.Primary && p.Active && p.Offers(service) {
			return p, nil
		}
	}
	return provider.Provider{}, ports.ErrNotFound
}

// SetActive marks a provider as primary for a service type.
func (s *ProviderService) SetActive(ctx context.Context, id string, service provider.ServiceType) error {
	p, err := s.providers.Get(ctx, id)
	if err != nil {
		return err
	}
	if !p.Offers(service) {
		return fmt.Errorf("provider %s does not offer %s", p.Name, service)
	}
	if err := s.providers.SetPrimary(ctx, id, service); err != nil {
		return fmt.Errorf("set primary: %w", err)
	}
	s.logger.Info().Str("provider_id", id).Str("service", string(service)).Msg("primary provider changed")
	return nil
}

// SetCredential validates the raw key's format, encrypts it and stores
// it as the provider's active credential. Validation failures are
// returned in full so the caller can surface per-code messages.
func (s *ProviderService) SetCredential(ctx context.Context, providerID, rawKey, baseURL string) (provider.Credential, credential.Result, error) {
	p, err := s.providers.Get(ctx, providerID)
	if err != nil {
		return provider.Credential{}, credential.Result{}, err
	}

	result := credential.Validate(rawKey, string(p.Type))
	if !result.Valid {
		return provider.Credential{}, result, nil
	}

	ciphertext, err := s.cipher.Encrypt([]byte(credential.Sanitize(rawKey)))
	if err != nil {
		return provider.Credential{}, result, fmt.Errorf("encrypt credential: %w", err)
	}

	now := s.clock.Now()
	c := provider.Credential{
		ID:         s.ids.New(),
		ProviderID: providerID,
		Type:       provider.CredentialAPIKey,
		Ciphertext: ciphertext,
		BaseURL:    baseURL,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.credentials.Upsert(ctx, c); err != nil {
		return provider.Credential{}, result, fmt.Errorf("store credential: %w", err)
	}

	s.logger.Info().Str("provider_id", providerID).Str("credential_id", c.ID).Msg("credential set")
	return c, result, nil
}

// ValidateCredential checks a raw key's format against the provider's
// rules without storing anything.
func (s *ProviderService) ValidateCredential(ctx context.Context, providerID, rawKey string) (credential.Result, error) {
	p, err := s.providers.Get(ctx, providerID)
	if err != nil {
		return credential.Result{}, err
	}
	return credential.Validate(rawKey, string(p.Type)), nil
}

// RotateCredential replaces the secret of an existing credential,
// keeping its identity and recording the rotation time.
func (s *ProviderService) RotateCredential(ctx context.Context, credentialID, rawKey string) (provider.Credential, credential.Result, error) {
	c, err := s.credentials.Get(ctx, credentialID)
	if err != nil {
		return provider.Credential{}, credential.Result{}, err
	}
	p, err := s.providers.Get(ctx, c.ProviderID)
	if err != nil {
		return provider.Credential{}, credential.Result{}, err
	}

	result := credential.Validate(rawKey, string(p.Type))
	if !result.Valid {
		return c, result, nil
	}

	ciphertext, err := s.cipher.Encrypt([]byte(credential.Sanitize(rawKey)))
	if err != nil {
		return provider.Credential{}, result, fmt.Errorf("encrypt credential: %w", err)
	}

	rotated := c.WithRotated(ciphertext, s.clock.Now())
	if err := s.credentials.Update(ctx, rotated); err != nil {
		return provider.Credential{}, result, fmt.Errorf("store rotated credential: %w", err)
	}

	s.logger.Info().Str("credential_id", credentialID).Str("provider_id", c.ProviderID).Msg("credential rotated")
	return rotated, result, nil
}

// DeactivateCredential marks a credential inactive without deleting it.
func (s *ProviderService) DeactivateCredential(ctx context.Context, credentialID string) error {
	if err := s.credentials.Deactivate(ctx, credentialID, s.clock.Now()); err != nil {
		return fmt.Errorf("deactivate credential: %w", err)
	}
	s.logger.Info().Str("credential_id", credentialID).Msg("credential deactivated")
	return nil
}

// ActiveProviders returns providers that hold an active credential or
// need none at all (ollama, custom endpoints without auth).
func (s *ProviderService) ActiveProviders(ctx context.Context) ([]provider.Provider, error) {
	all, err := s.providers.List(ctx)
	if err != nil {
		return nil, err
	}
	withCreds, err := s.credentials.ActiveProviderIDs(ctx)
	if err != nil {
		return nil, err
	}
	credentialed := make(map[string]bool, len(withCreds))
	for _, id := range withCreds {
		credentialed[id] = true
	}

	var out []provider.Provider
	for _, p := range all {
		if !p.Active {
			continue
		}
		rule, known := credential.LookupRule(string(p.Type))
		keyless := known && !rule.RequiresKey
		if credentialed[p.ID] || keyless {
			out = append(out, p)
		}
	}
	return out, nil
}

// AddModel registers a model under a provider.
func (s *ProviderService) AddModel(ctx context.Context, m provider.Model) (provider.Model, error) {
	if _, err := s.providers.Get(ctx, m.ProviderID); err != nil {
		return provider.Model{}, err
	}
	if m.ID == "" {
		m.ID = s.ids.New()
	}
	now := s.clock.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
	if m.Type == "" {
		m.Type = provider.ModelLLM
	}

	if !m.IsValid() {
		return provider.Model{}, fmt.Errorf("model missing required fields")
	}

	if err := s.models.Create(ctx, m); err != nil {
		return provider.Model{}, fmt.Errorf("create model: %w", err)
	}
	return m, nil
}

// ListModels returns a provider's model catalog.
func (s *ProviderService) ListModels(ctx context.Context, providerID string) ([]provider.Model, error) {
	if _, err := s.providers.Get(ctx, providerID); err != nil {
		return nil, err
	}
	return s.models.ListByProvider(ctx, providerID)
}

// AllModels returns the full model catalog across providers.
func (s *ProviderService) AllModels(ctx context.Context) ([]provider.Model, error) {
	return s.models.List(ctx)
}

// EnvSetup decrypts the provider's active credential and returns the
// environment variables an agent process needs to talk to it.
func (s *ProviderService) EnvSetup(ctx context.Context, providerID string) (map[string]string, error) {
	p, err := s.providers.Get(ctx, providerID)
	if err != nil {
		return nil, err
	}

	env := map[string]string{}
	if v := provider.BaseURLEnvVar(p.Type); v != "" && p.BaseURL != "" {
		env[v] = p.BaseURL
	}

	rule, known := credential.LookupRule(string(p.Type))
	if known && !rule.RequiresKey {
		return env, nil
	}

	c, err := s.credentials.GetActive(ctx, providerID)
	if err != nil {
		return nil, err
	}
	plaintext, err := s.cipher.Decrypt(c.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decrypt credential: %w", err)
	}
	env[provider.EnvVar(p.Type)] = string(plaintext)
	if c.BaseURL != "" {
		if v := provider.BaseURLEnvVar(p.Type); v != "" {
			env[v] = c.BaseURL
		}
	}
	return env, nil
}
