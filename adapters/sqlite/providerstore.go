package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/archonlabs/provgate/domain/provider"
	"github.com/archonlabs/provgate/ports"
)

// ProviderStore implements ports.ProviderStore using SQLite.
type ProviderStore struct {
	db *DB
}

// NewProviderStore creates a new SQLite provider store.
func NewProviderStore(db *DB) *ProviderStore {
	return &ProviderStore{db: db}
}

const providerColumns = `id, name, display_name, type, services, base_url, api_version,
	timeout_ms, max_retries, retry_delay_ms, headers, active, is_primary,
	health, last_health_check, created_at, updated_at`

// Get retrieves a provider by ID.
func (s *ProviderStore) Get(ctx context.Context, id string) (provider.Provider, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+providerColumns+` FROM providers WHERE id = ?
	`, id)
	return scanProvider(row)
}

// GetByName retrieves a provider by its unique name.
func (s *ProviderStore) GetByName(ctx context.Context, name string) (provider.Provider, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+providerColumns+` FROM providers WHERE name = ?
	`, name)
	return scanProvider(row)
}

// List returns all providers ordered by name.
func (s *ProviderStore) List(ctx context.Context) ([]provider.Provider, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+providerColumns+` FROM providers ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []provider.Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Create stores a new provider.
func (s *ProviderStore) Create(ctx context.Context, p provider.Provider) error {
	services, err := json.Marshal(p.Services)
	if err != nil {
		return err
	}
	headers, err := json.Marshal(headerMap(p.Headers))
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO providers (`+providerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.DisplayName, string(p.Type), string(services), p.BaseURL, p.APIVersion,
		p.Timeout.Milliseconds(), p.MaxRetries, p.RetryDelay.Milliseconds(), string(headers),
		p.Active, p.Primary, string(p.Health), nullTime(p.LastHealthCheck), p.CreatedAt, p.UpdatedAt)

	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("provider name %q: %w", p.Name, ports.ErrConflict)
	}
	return err
}

// Update replaces an existing provider.
func (s *ProviderStore) Update(ctx context.Context, p provider.Provider) error {
	services, err := json.Marshal(p.Services)
	if err != nil {
		return err
	}
	headers, err := json.Marshal(headerMap(p.Headers))
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE providers SET
			name = ?, display_name = ?, type = ?, services = ?, base_url = ?,
			api_version = ?, timeout_ms = ?, max_retries = ?, retry_delay_ms = ?,
			headers = ?, active = ?, is_primary = ?, health = ?,
			last_health_check = ?, updated_at = ?
		WHERE id = ?
	`, p.Name, p.DisplayName, string(p.Type), string(services), p.BaseURL,
		p.APIVersion, p.Timeout.Milliseconds(), p.MaxRetries, p.RetryDelay.Milliseconds(),
		string(headers), p.Active, p.Primary, string(p.Health),
		nullTime(p.LastHealthCheck), p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	return requireRows(result)
}

// Delete removes a provider; credentials and models cascade.
func (s *ProviderStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM providers WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRows(result)
}

// SetPrimary marks one provider as primary for a service type, clearing
// the flag on every other provider offering it. Runs in a transaction.
func (s *ProviderStore) SetPrimary(ctx context.Context, id string, service provider.ServiceType) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// JSON array containment via LIKE is enough for the small service set.
	if _, err := tx.ExecContext(ctx, `
		UPDATE providers SET is_primary = 0
		WHERE id != ? AND is_primary = 1 AND services LIKE ?
	`, id, `%"`+string(service)+`"%`); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `UPDATE providers SET is_primary = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := requireRows(result); err != nil {
		return err
	}
	return tx.Commit()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanProvider(row scanner) (provider.Provider, error) {
	var (
		p            provider.Provider
		typ, health  string
		services     string
		headers      string
		timeoutMs    int64
		retryDelayMs int64
		lastCheck    sql.NullTime
	)

	err := row.Scan(&p.ID, &p.Name, &p.DisplayName, &typ, &services, &p.BaseURL, &p.APIVersion,
		&timeoutMs, &p.MaxRetries, &retryDelayMs, &headers, &p.Active, &p.Primary,
		&health, &lastCheck, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return provider.Provider{}, ports.ErrNotFound
	}
	if err != nil {
		return provider.Provider{}, err
	}

	p.Type = provider.Type(typ)
	p.Health = provider.HealthStatus(health)
	p.Timeout = time.Duration(timeoutMs) * time.Millisecond
	p.RetryDelay = time.Duration(retryDelayMs) * time.Millisecond
	if lastCheck.Valid {
		t := lastCheck.Time
		p.LastHealthCheck = &t
	}
	if err := json.Unmarshal([]byte(services), &p.Services); err != nil {
		return provider.Provider{}, err
	}
	if err := json.Unmarshal([]byte(headers), &p.Headers); err != nil {
		return provider.Provider{}, err
	}
	return p, nil
}

func headerMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func requireRows(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

var _ ports.ProviderStore = (*ProviderStore)(nil)
