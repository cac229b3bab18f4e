// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/archonlabs/provgate/domain/provider"
	"github.com/archonlabs/provgate/domain/usage"
)

// ErrNotFound is returned by any store when an entity does not exist.
// Shared here so every adapter reports the same sentinel and the HTTP
// layer can map it to 404 without knowing which adapter is wired.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write collides with an existing entity,
// e.g. a provider name that is already taken.
var ErrConflict = errors.New("already exists")

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// Cipher encrypts provider credentials at rest.
type Cipher interface {
	// Encrypt seals plaintext into an opaque ciphertext.
	Encrypt(plaintext []byte) ([]byte, error)
	// Decrypt opens a ciphertext produced by Encrypt.
	Decrypt(ciphertext []byte) ([]byte, error)
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// ProviderStore persists provider configurations.
type ProviderStore interface {
	// Get retrieves a provider by ID.
	Get(ctx context.Context, id string) (provider.Provider, error)

	// GetByName retrieves a provider by its unique name.
	GetByName(ctx context.Context, name string) (provider.Provider, error)

	// List returns all providers, active or not.
	List(ctx context.Context) ([]provider.Provider, error)

	// Create stores a new provider.
	Create(ctx context.Context, p provider.Provider) error

	// Update replaces an existing provider.
	Update(ctx context.Context, p provider.Provider) error

	// Delete removes a provider and everything hanging off it.
	Delete(ctx context.Context, id string) error

	// SetPrimary marks one provider as primary for a service type,
	// clearing the flag on every other provider offering it.
	SetPrimary(ctx context.Context, id string, service provider.ServiceType) error
}

// CredentialStore persists encrypted provider credentials.
type CredentialStore interface {
	// Get retrieves a credential by ID.
	Get(ctx context.Context, id string) (provider.Credential, error)

	// GetActive returns the active credential for a provider.
	GetActive(ctx context.Context, providerID string) (provider.Credential, error)

	// Upsert stores a credential, replacing the provider's active one.
	Upsert(ctx context.Context, c provider.Credential) error

	// Update replaces an existing credential.
	Update(ctx context.Context, c provider.Credential) error

	// Deactivate marks a credential inactive.
	Deactivate(ctx context.Context, id string, at time.Time) error

	// ActiveProviderIDs returns ids of providers holding an active credential.
	ActiveProviderIDs(ctx context.Context) ([]string, error)
}

// ModelStore persists the per-provider model catalog.
type ModelStore interface {
	// Get retrieves a model by ID.
	Get(ctx context.Context, id string) (provider.Model, error)

	// ListByProvider returns all models for one provider.
	ListByProvider(ctx context.Context, providerID string) ([]provider.Model, error)

	// List returns the full catalog.
	List(ctx context.Context) ([]provider.Model, error)

	// Create stores a new model.
	Create(ctx context.Context, m provider.Model) error

	// Update replaces an existing model.
	Update(ctx context.Context, m provider.Model) error

	// Delete removes a model.
	Delete(ctx context.Context, id string) error
}

// UsageStore persists usage events.
type UsageStore interface {
	// Record stores a usage event.
	Record(ctx context.Context, e usage.Event) error

	// ListByProvider returns events for one provider within a period.
	ListByProvider(ctx context.Context, providerID string, from, to time.Time) ([]usage.Event, error)

	// List returns all events within a period.
	List(ctx context.Context, from, to time.Time) ([]usage.Event, error)
}

// HealthStore persists health check history.
type HealthStore interface {
	// Record stores a health check outcome.
	Record(ctx context.Context, hc provider.HealthCheck) error

	// History returns the most recent checks for a provider, newest first.
	History(ctx context.Context, providerID string, limit int) ([]provider.HealthCheck, error)
}
