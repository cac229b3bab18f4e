package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/archonlabs/provgate/domain/provider"
	"github.com/archonlabs/provgate/ports"
)

// ModelStore is an in-memory implementation of ports.ModelStore.
type ModelStore struct {
	mu     sync.RWMutex
	models map[string]provider.Model // by ID
}

// NewModelStore creates a new in-memory model store.
func NewModelStore() *ModelStore {
	return &ModelStore{models: make(map[string]provider.Model)}
}

// Get retrieves a model by ID.
func (s *ModelStore) Get(ctx context.Context, id string) (provider.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.models[id]
	if !ok {
		return provider.Model{}, ports.ErrNotFound
	}
	return m, nil
}

// ListByProvider returns all models for one provider sorted by model id.
func (s *ModelStore) ListByProvider(ctx context.Context, providerID string) ([]provider.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []provider.Model
	for _, m := range s.models {
		if m.ProviderID == providerID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModelID < out[j].ModelID })
	return out, nil
}

// List returns the full catalog sorted by model id.
func (s *ModelStore) List(ctx context.Context) ([]provider.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]provider.Model, 0, len(s.models))
	for _, m := range s.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModelID < out[j].ModelID })
	return out, nil
}

// Create stores a new model.
func (s *ModelStore) Create(ctx context.Context, m provider.Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.models[m.ID] = m
	return nil
}

// Update replaces an existing model.
func (s *ModelStore) Update(ctx context.Context, m provider.Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.models[m.ID]; !ok {
		return ports.ErrNotFound
	}
	s.models[m.ID] = m
	return nil
}

// Delete removes a model.
func (s *ModelStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.models[id]; !ok {
		return ports.ErrNotFound
	}
	delete(s.models, id)
	return nil
}

var _ ports.ModelStore = (*ModelStore)(nil)
