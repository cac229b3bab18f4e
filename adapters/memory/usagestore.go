package memory

import (
	"context"
	"sync"
	"time"

	"github.com/archonlabs/provgate/domain/provider"
	"github.com/archonlabs/provgate/domain/usage"
	"github.com/archonlabs/provgate/ports"
)

// UsageStore is an in-memory implementation of ports.UsageStore.
type UsageStore struct {
	mu     sync.RWMutex
	events []usage.Event
}

// NewUsageStore creates a new in-memory usage store.
func NewUsageStore() *UsageStore {
	return &UsageStore{}
}

// Record stores a usage event.
func (s *UsageStore) Record(ctx context.Context, e usage.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, e)
	return nil
}

// ListByProvider returns events for one provider within [from, to).
func (s *UsageStore) ListByProvider(ctx context.Context, providerID string, from, to time.Time) ([]usage.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []usage.Event
	for _, e := range s.events {
		if e.ProviderID == providerID && inPeriod(e.Timestamp, from, to) {
			out = append(out, e)
		}
	}
	return out, nil
}

// List returns all events within [from, to).
func (s *UsageStore) List(ctx context.Context, from, to time.Time) ([]usage.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []usage.Event
	for _, e := range s.events {
		if inPeriod(e.Timestamp, from, to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func inPeriod(ts, from, to time.Time) bool {
	return !ts.Before(from) && ts.Before(to)
}

var _ ports.UsageStore = (*UsageStore)(nil)

// HealthStore is an in-memory implementation of ports.HealthStore.
type HealthStore struct {
	mu     sync.RWMutex
	checks map[string][]provider.HealthCheck // by provider ID, newest first
}

// NewHealthStore creates a new in-memory health store.
func NewHealthStore() *HealthStore {
	return &HealthStore{checks: make(map[string][]provider.HealthCheck)}
}

// Record stores a health check outcome.
func (s *HealthStore) Record(ctx context.Context, hc provider.HealthCheck) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.checks[hc.ProviderID] = append([]provider.HealthCheck{hc}, s.checks[hc.ProviderID]...)
	return nil
}

// History returns the most recent checks for a provider, newest first.
func (s *HealthStore) History(ctx context.Context, providerID string, limit int) ([]provider.HealthCheck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	checks := s.checks[providerID]
	if limit > 0 && len(checks) > limit {
		checks = checks[:limit]
	}
	out := make([]provider.HealthCheck, len(checks))
	copy(out, checks)
	return out, nil
}

var _ ports.HealthStore = (*HealthStore)(nil)
