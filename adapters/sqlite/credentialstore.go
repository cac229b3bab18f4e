package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/archonlabs/provgate/domain/provider"
	"github.com/archonlabs/provgate/ports"
)

// CredentialStore implements ports.CredentialStore using SQLite.
type CredentialStore struct {
	db *DB
}

// NewCredentialStore creates a new SQLite credential store.
func NewCredentialStore(db *DB) *CredentialStore {
	return &CredentialStore{db: db}
}

const credentialColumns = `id, provider_id, type, ciphertext, base_url, active, created_at, updated_at, rotated_at`

// Get retrieves a credential by ID.
func (s *CredentialStore) Get(ctx context.Context, id string) (provider.Credential, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+credentialColumns+` FROM credentials WHERE id = ?
	`, id)
	return scanCredential(row)
}

// GetActive returns the active credential for a provider.
func (s *CredentialStore) GetActive(ctx context.Context, providerID string) (provider.Credential, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+credentialColumns+` FROM credentials
		WHERE provider_id = ? AND active = 1
		ORDER BY created_at DESC LIMIT 1
	`, providerID)
	return scanCredential(row)
}

// Upsert stores a credential, deactivating any other active one the
// provider holds. Runs in a transaction.
func (s *CredentialStore) Upsert(ctx context.Context, c provider.Credential) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if c.Active {
		if _, err := tx.ExecContext(ctx, `
			UPDATE credentials SET active = 0, updated_at = ?
			WHERE provider_id = ? AND active = 1 AND id != ?
		`, c.UpdatedAt, c.ProviderID, c.ID); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO credentials (`+credentialColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type, ciphertext = excluded.ciphertext,
			base_url = excluded.base_url, active = excluded.active,
			updated_at = excluded.updated_at, rotated_at = excluded.rotated_at
	`, c.ID, c.ProviderID, string(c.Type), c.Ciphertext, c.BaseURL, c.Active,
		c.CreatedAt, c.UpdatedAt, nullTime(c.RotatedAt)); err != nil {
		return err
	}

	return tx.Commit()
}

// Update replaces an existing credential.
func (s *CredentialStore) Update(ctx context.Context, c provider.Credential) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE credentials SET
			type = ?, ciphertext = ?, base_url = ?, active = ?,
			updated_at = ?, rotated_at = ?
		WHERE id = ?
	`, string(c.Type), c.Ciphertext, c.BaseURL, c.Active, c.UpdatedAt,
		nullTime(c.RotatedAt), c.ID)
	if err != nil {
		return err
	}
	return requireRows(result)
}

// Deactivate marks a credential inactive.
func (s *CredentialStore) Deactivate(ctx context.Context, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE credentials SET active = 0, updated_at = ? WHERE id = ?
	`, at, id)
	if err != nil {
		return err
	}
	return requireRows(result)
}

// ActiveProviderIDs returns ids of providers holding an active credential.
func (s *CredentialStore) ActiveProviderIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT provider_id FROM credentials WHERE active = 1
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func scanCredential(row scanner) (provider.Credential, error) {
	var (
		c       provider.Credential
		typ     string
		rotated sql.NullTime
	)

	err := row.Scan(&c.ID, &c.ProviderID, &typ, &c.Ciphertext, &c.BaseURL,
		&c.Active, &c.CreatedAt, &c.UpdatedAt, &rotated)
	if errors.Is(err, sql.ErrNoRows) {
		return provider.Credential{}, ports.ErrNotFound
	}
	if err != nil {
		return provider.Credential{}, err
	}

	c.Type = provider.CredentialType(typ)
	if rotated.Valid {
		t := rotated.Time
		c.RotatedAt = &t
	}
	return c, nil
}

var _ ports.CredentialStore = (*CredentialStore)(nil)
