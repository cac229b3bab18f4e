package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/archonlabs/provgate/adapters/metrics"
	"github.com/archonlabs/provgate/domain/usage"
	"github.com/archonlabs/provgate/ports"
)

// UsageService records provider API usage and answers summary queries.
type UsageService struct {
	store   ports.UsageStore
	models  ports.ModelStore
	clock   ports.Clock
	ids     ports.IDGenerator
	metrics *metrics.Collector
	logger  zerolog.Logger
}

// NewUsageService creates a new usage service. The metrics collector
// may be nil when metrics are disabled.
func NewUsageService(
	store ports.UsageStore,
	models ports.ModelStore,
	clock ports.Clock,
	ids ports.IDGenerator,
	collector *metrics.Collector,
	logger zerolog.Logger,
) *UsageService {
	return &UsageService{
		store:   store,
		models:  models,
		clock:   clock,
		ids:     ids,
		metrics: collector,
		logger:  logger.With().Str("component", "usage_service").Logger(),
	}
}

// Record stores a usage event, pricing it from the model catalog when
// the event carries no cost of its own.
func (s *UsageService) Record(ctx context.Context, e usage.Event) (usage.Event, error) {
	if e.ID == "" {
		e.ID = s.ids.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = s.clock.Now()
	}
	if e.Operation == "" {
		e.Operation = usage.OpChat
	}

	if e.CostCents == 0 && e.ModelID != "" {
		if m, err := s.models.Get(ctx, e.ModelID); err == nil {
			e.CostCents = m.TokenCostCents(e.InputTokens, e.OutputTokens)
		}
	}

	if err := s.store.Record(ctx, e); err != nil {
		return usage.Event{}, fmt.Errorf("record usage: %w", err)
	}

	if s.metrics != nil {
		op := string(e.Operation)
		s.metrics.UsageTokens.WithLabelValues(e.ProviderID, op, "input").Add(float64(e.InputTokens))
		s.metrics.UsageTokens.WithLabelValues(e.ProviderID, op, "output").Add(float64(e.OutputTokens))
		s.metrics.UsageCost.WithLabelValues(e.ProviderID).Add(float64(e.CostCents))
	}

	return e, nil
}

// SummaryByProvider aggregates one provider's events in [from, to).
func (s *UsageService) SummaryByProvider(ctx context.Context, providerID string, from, to time.Time) (usage.Summary, error) {
	events, err := s.store.ListByProvider(ctx, providerID, from, to)
	if err != nil {
		return usage.Summary{}, fmt.Errorf("list usage: %w", err)
	}
	return usage.Aggregate(events, from, to), nil
}

// Summary aggregates all events in [from, to), grouped by provider.
func (s *UsageService) Summary(ctx context.Context, from, to time.Time) (map[string]usage.Summary, error) {
	events, err := s.store.List(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list usage: %w", err)
	}
	return usage.GroupByProvider(events, from, to), nil
}

// ListByProvider returns raw events for a provider within a period.
func (s *UsageService) ListByProvider(ctx context.Context, providerID string, from, to time.Time) ([]usage.Event, error) {
	return s.store.ListByProvider(ctx, providerID, from, to)
}
