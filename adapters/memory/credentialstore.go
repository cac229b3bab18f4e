package memory

import (
	"context"
	"sync"
	"time"

	"github.com/archonlabs/provgate/domain/provider"
	"github.com/archonlabs/provgate/ports"
)

// CredentialStore is an in-memory implementation of ports.CredentialStore.
type CredentialStore struct {
	mu    sync.RWMutex
	creds map[string]provider.Credential // by ID
}

// NewCredentialStore creates a new in-memory credential store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{creds: make(map[string]provider.Credential)}
}

// Get retrieves a credential by ID.
func (s *CredentialStore) Get(ctx context.Context, id string) (provider.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.creds[id]
	if !ok {
		return provider.Credential{}, ports.ErrNotFound
	}
	return c, nil
}

// GetActive returns the active credential for a provider.
func (s *CredentialStore) GetActive(ctx context.Context, providerID string) (provider.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.creds {
		if c.ProviderID == providerID && c.Active {
			return c, nil
		}
	}
	return provider.Credential{}, ports.ErrNotFound
}

// Upsert stores a credential, deactivating any other active one the
// provider holds.
func (s *CredentialStore) Upsert(ctx context.Context, cred provider.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cred.Active {
		for id, c := range s.creds {
			if c.ProviderID == cred.ProviderID && c.Active && id != cred.ID {
				c.Active = false
				s.creds[id] = c
			}
		}
	}
	s.creds[cred.ID] = cred
	return nil
}

// Update replaces an existing credential.
func (s *CredentialStore) Update(ctx context.Context, cred provider.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.creds[cred.ID]; !ok {
		return ports.ErrNotFound
	}
	s.creds[cred.ID] = cred
	return nil
}

// Deactivate marks a credential inactive.
func (s *CredentialStore) Deactivate(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.creds[id]
	if !ok {
		return ports.ErrNotFound
	}
	c.Active = false
	c.UpdatedAt = at
	s.creds[id] = c
	return nil
}

// ActiveProviderIDs returns ids of providers holding an active credential.
func (s *CredentialStore) ActiveProviderIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, c := range s.creds {
		if c.Active && !seen[c.ProviderID] {
			seen[c.ProviderID] = true
			out = append(out, c.ProviderID)
		}
	}
	return out, nil
}

var _ ports.CredentialStore = (*CredentialStore)(nil)
