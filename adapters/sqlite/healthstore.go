package sqlite

import (
	"context"

	"github.com/archonlabs/provgate/domain/provider"
	"github.com/archonlabs/provgate/ports"
)

// HealthStore implements ports.HealthStore using SQLite.
type HealthStore struct {
	db *DB
}

// NewHealthStore creates a new SQLite health store.
func NewHealthStore(db *DB) *HealthStore {
	return &HealthStore{db: db}
}

// Record stores a health check outcome.
func (s *HealthStore) Record(ctx context.Context, hc provider.HealthCheck) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO health_checks (id, provider_id, status, status_code, latency_ms, error, checked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, hc.ID, hc.ProviderID, string(hc.Status), hc.StatusCode, hc.LatencyMs,
		hc.Error, hc.CheckedAt)
	return err
}

// History returns the most recent checks for a provider, newest first.
func (s *HealthStore) History(ctx context.Context, providerID string, limit int) ([]provider.HealthCheck, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, provider_id, status, status_code, latency_ms, error, checked_at
		FROM health_checks WHERE provider_id = ?
		ORDER BY checked_at DESC LIMIT ?
	`, providerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []provider.HealthCheck
	for rows.Next() {
		var (
			hc     provider.HealthCheck
			status string
		)
		if err := rows.Scan(&hc.ID, &hc.ProviderID, &status, &hc.StatusCode,
			&hc.LatencyMs, &hc.Error, &hc.CheckedAt); err != nil {
			return nil, err
		}
		hc.Status = provider.HealthStatus(status)
		out = append(out, hc)
	}
	return out, rows.Err()
}

var _ ports.HealthStore = (*HealthStore)(nil)
