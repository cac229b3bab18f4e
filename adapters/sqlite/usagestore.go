package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/archonlabs/provgate/domain/usage"
	"github.com/archonlabs/provgate/ports"
)

// UsageStore implements ports.UsageStore using SQLite.
type UsageStore struct {
	db *DB
}

// NewUsageStore creates a new SQLite usage store.
func NewUsageStore(db *DB) *UsageStore {
	return &UsageStore{db: db}
}

const usageColumns = `id, provider_id, model_id, agent_id, operation,
	input_tokens, output_tokens, latency_ms, status_code, cost_cents, timestamp`

// Record stores a usage event.
func (s *UsageStore) Record(ctx context.Context, e usage.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_events (`+usageColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.ProviderID, e.ModelID, e.AgentID, string(e.Operation),
		e.InputTokens, e.OutputTokens, e.LatencyMs, e.StatusCode,
		e.CostCents, e.Timestamp)
	return err
}

// ListByProvider returns events for one provider within a period.
func (s *UsageStore) ListByProvider(ctx context.Context, providerID string, from, to time.Time) ([]usage.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+usageColumns+` FROM usage_events
		WHERE provider_id = ? AND timestamp >= ? AND timestamp < ?
		ORDER BY timestamp
	`, providerID, from, to)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

// List returns all events within a period.
func (s *UsageStore) List(ctx context.Context, from, to time.Time) ([]usage.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+usageColumns+` FROM usage_events
		WHERE timestamp >= ? AND timestamp < ?
		ORDER BY timestamp
	`, from, to)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

func collectEvents(rows *sql.Rows) ([]usage.Event, error) {
	defer rows.Close()

	var out []usage.Event
	for rows.Next() {
		var (
			e  usage.Event
			op string
		)
		if err := rows.Scan(&e.ID, &e.ProviderID, &e.ModelID, &e.AgentID, &op,
			&e.InputTokens, &e.OutputTokens, &e.LatencyMs, &e.StatusCode,
			&e.CostCents, &e.Timestamp); err != nil {
			return nil, err
		}
		e.Operation = usage.Operation(op)
		out = append(out, e)
	}
	return out, rows.Err()
}

var _ ports.UsageStore = (*UsageStore)(nil)
