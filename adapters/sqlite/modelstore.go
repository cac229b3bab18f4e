package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/archonlabs/provgate/domain/provider"
	"github.com/archonlabs/provgate/ports"
)

// ModelStore implements ports.ModelStore using SQLite.
type ModelStore struct {
	db *DB
}

// NewModelStore creates a new SQLite model store.
func NewModelStore(db *DB) *ModelStore {
	return &ModelStore{db: db}
}

const modelColumns = `id, provider_id, model_id, name, type, family,
	context_window, max_output_tokens, embedding_dims,
	supports_streaming, supports_functions, supports_vision,
	input_price_cents, output_price_cents, available, created_at, updated_at`

// Get retrieves a model by ID.
func (s *ModelStore) Get(ctx context.Context, id string) (provider.Model, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+modelColumns+` FROM models WHERE id = ?
	`, id)
	return scanModel(row)
}

// ListByProvider returns all models for one provider.
func (s *ModelStore) ListByProvider(ctx context.Context, providerID string) ([]provider.Model, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+modelColumns+` FROM models WHERE provider_id = ? ORDER BY model_id
	`, providerID)
	if err != nil {
		return nil, err
	}
	return collectModels(rows)
}

// List returns the full catalog.
func (s *ModelStore) List(ctx context.Context) ([]provider.Model, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+modelColumns+` FROM models ORDER BY provider_id, model_id
	`)
	if err != nil {
		return nil, err
	}
	return collectModels(rows)
}

// Create stores a new model.
func (s *ModelStore) Create(ctx context.Context, m provider.Model) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO models (`+modelColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.ProviderID, m.ModelID, m.Name, string(m.Type), m.Family,
		m.ContextWindow, m.MaxOutputTokens, m.EmbeddingDims,
		m.SupportsStreaming, m.SupportsFunctions, m.SupportsVision,
		m.InputPriceCentsPerMTok, m.OutputPriceCentsPerMTok,
		m.Available, m.CreatedAt, m.UpdatedAt)
	return err
}

// Update replaces an existing model.
func (s *ModelStore) Update(ctx context.Context, m provider.Model) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE models SET
			model_id = ?, name = ?, type = ?, family = ?,
			context_window = ?, max_output_tokens = ?, embedding_dims = ?,
			supports_streaming = ?, supports_functions = ?, supports_vision = ?,
			input_price_cents = ?, output_price_cents = ?,
			available = ?, updated_at = ?
		WHERE id = ?
	`, m.ModelID, m.Name, string(m.Type), m.Family,
		m.ContextWindow, m.MaxOutputTokens, m.EmbeddingDims,
		m.SupportsStreaming, m.SupportsFunctions, m.SupportsVision,
		m.InputPriceCentsPerMTok, m.OutputPriceCentsPerMTok,
		m.Available, m.UpdatedAt, m.ID)
	if err != nil {
		return err
	}
	return requireRows(result)
}

// Delete removes a model.
func (s *ModelStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM models WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRows(result)
}

func scanModel(row scanner) (provider.Model, error) {
	var (
		m   provider.Model
		typ string
	)

	err := row.Scan(&m.ID, &m.ProviderID, &m.ModelID, &m.Name, &typ, &m.Family,
		&m.ContextWindow, &m.MaxOutputTokens, &m.EmbeddingDims,
		&m.SupportsStreaming, &m.SupportsFunctions, &m.SupportsVision,
		&m.InputPriceCentsPerMTok, &m.OutputPriceCentsPerMTok,
		&m.Available, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return provider.Model{}, ports.ErrNotFound
	}
	if err != nil {
		return provider.Model{}, err
	}

	m.Type = provider.ModelType(typ)
	return m, nil
}

func collectModels(rows *sql.Rows) ([]provider.Model, error) {
	defer rows.Close()

	var out []provider.Model
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

var _ ports.ModelStore = (*ModelStore)(nil)
