package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/archonlabs/provgate/adapters/metrics"
	"github.com/archonlabs/provgate/domain/provider"
	"github.com/archonlabs/provgate/ports"
)

// HealthService probes provider endpoints and tracks the outcomes.
type HealthService struct {
	providers ports.ProviderStore
	history   ports.HealthStore
	client    *http.Client
	clock     ports.Clock
	ids       ports.IDGenerator
	metrics   *metrics.Collector
	logger    zerolog.Logger
}

// NewHealthService creates a new health service. The metrics collector
// may be nil when metrics are disabled.
func NewHealthService(
	providers ports.ProviderStore,
	history ports.HealthStore,
	client *http.Client,
	clock ports.Clock,
	ids ports.IDGenerator,
	collector *metrics.Collector,
	logger zerolog.Logger,
) *HealthService {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HealthService{
		providers: providers,
		history:   history,
		client:    client,
		clock:     clock,
		ids:       ids,
		metrics:   collector,
		logger:    logger.With().Str("component", "health_service").Logger(),
	}
}

// CheckProvider probes a provider's base URL, classifies the outcome
// and records it. Providers without a base URL are left unknown.
func (s *HealthService) CheckProvider(ctx context.Context, providerID string) (provider.HealthCheck, error) {
	p, err := s.providers.Get(ctx, providerID)
	if err != nil {
		return provider.HealthCheck{}, err
	}

	hc := provider.HealthCheck{
		ID:         s.ids.New(),
		ProviderID: providerID,
		CheckedAt:  s.clock.Now(),
	}

	if p.BaseURL == "" {
		hc.Status = provider.HealthUnknown
	} else {
		status, latency, probeErr := s.probe(ctx, p.BaseURL)
		hc.StatusCode = status
		hc.LatencyMs = latency
		if probeErr != nil {
			hc.Error = probeErr.Error()
		}
		hc.Status = provider.ClassifyHealth(status, latency, probeErr != nil)
	}

	if err := s.history.Record(ctx, hc); err != nil {
		return provider.HealthCheck{}, fmt.Errorf("record health check: %w", err)
	}
	if err := s.providers.Update(ctx, p.WithHealth(hc.Status, hc.CheckedAt)); err != nil {
		return provider.HealthCheck{}, fmt.Errorf("update provider health: %w", err)
	}

	if s.metrics != nil {
		s.metrics.HealthChecks.WithLabelValues(p.Name, string(hc.Status)).Inc()
		s.metrics.HealthCheckLatency.WithLabelValues(p.Name).Observe(float64(hc.LatencyMs) / 1000)
	}

	s.logger.Debug().
		Str("provider_id", providerID).
		Str("status", string(hc.Status)).
		Int64("latency_ms", hc.LatencyMs).
		Msg("health check")

	return hc, nil
}

// History returns the most recent checks for a provider, newest first.
func (s *HealthService) History(ctx context.Context, providerID string, limit int) ([]provider.HealthCheck, error) {
	return s.history.History(ctx, providerID, limit)
}

func (s *HealthService) probe(ctx context.Context, baseURL string) (statusCode int, latencyMs int64, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return 0, 0, err
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	latencyMs = time.Since(start).Milliseconds()
	if err != nil {
		return 0, latencyMs, err
	}
	defer resp.Body.Close()

	return resp.StatusCode, latencyMs, nil
}
