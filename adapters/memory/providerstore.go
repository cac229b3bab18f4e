// Package memory provides in-memory implementations for testing.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/archonlabs/provgate/domain/provider"
	"github.com/archonlabs/provgate/ports"
)

// ProviderStore is an in-memory implementation of ports.ProviderStore.
type ProviderStore struct {
	mu        sync.RWMutex
	providers map[string]provider.Provider // by ID
}

// NewProviderStore creates a new in-memory provider store.
func NewProviderStore() *ProviderStore {
	return &ProviderStore{providers: make(map[string]provider.Provider)}
}

// Get retrieves a provider by ID.
func (s *ProviderStore) Get(ctx context.Context, id string) (provider.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.providers[id]
	if !ok {
		return provider.Provider{}, ports.ErrNotFound
	}
	return p, nil
}

// GetByName retrieves a provider by its unique name.
func (s *ProviderStore) GetByName(ctx context.Context, name string) (provider.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.providers {
		if p.Name == name {
			return p, nil
		}
	}
	return provider.Provider{}, ports.ErrNotFound
}

// List returns all providers sorted by name.
func (s *ProviderStore) List(ctx context.Context) ([]provider.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]provider.Provider, 0, len(s.providers))
	for _, p := range s.providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Create stores a new provider. Names are unique, matching the
// database schema.
func (s *ProviderStore) Create(ctx context.Context, p provider.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.providers {
		if existing.Name == p.Name {
			return fmt.Errorf("provider name %q: %w", p.Name, ports.ErrConflict)
		}
	}
	s.providers[p.ID] = p
	return nil
}

// Update replaces an existing provider.
func (s *ProviderStore) Update(ctx context.Context, p provider.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.providers[p.ID]; !ok {
		return ports.ErrNotFound
	}
	s.providers[p.ID] = p
	return nil
}

// Delete removes a provider.
func (s *ProviderStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.providers[id]; !ok {
		return ports.ErrNotFound
	}
	delete(s.providers, id)
	return nil
}

// SetPrimary marks one provider as primary for a service type.
func (s *ProviderStore) SetPrimary(ctx context.Context, id string, service provider.ServiceType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.providers[id]
	if !ok {
		return ports.ErrNotFound
	}

	for pid, p := range s.providers {
		if pid != id && p.Primary && p.Offers(service) {
			p.Primary = false
			s.providers[pid] = p
		}
	}
	target.Primary = true
	s.providers[id] = target
	return nil
}

var _ ports.ProviderStore = (*ProviderStore)(nil)
