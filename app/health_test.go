package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/archonlabs/provgate/adapters/clock"
	"github.com/archonlabs/provgate/adapters/idgen"
	"github.com/archonlabs/provgate/adapters/memory"
	"github.com/archonlabs/provgate/app"
	"github.com/archonlabs/provgate/domain/provider"
)

func newHealthFixture(t *testing.T) (*app.HealthService, *memory.ProviderStore) {
	t.Helper()
	providers := memory.NewProviderStore()
	svc := app.NewHealthService(
		providers, memory.NewHealthStore(), nil,
		clock.NewFake(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)),
		idgen.NewSequential("hc"), nil, zerolog.Nop(),
	)
	return svc, providers
}

func createProbeTarget(t *testing.T, providers *memory.ProviderStore, baseURL string) provider.Provider {
	t.Helper()
	p := provider.NewProvider("prov-1", "openai", provider.TypeOpenAI)
	p.BaseURL = baseURL
	if err := providers.Create(context.Background(), p); err != nil {
		t.Fatalf("create provider: %v", err)
	}
	return p
}

func TestHealthService_HealthyProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc, providers := newHealthFixture(t)
	p := createProbeTarget(t, providers, srv.URL)
	ctx := context.Background()

	hc, err := svc.CheckProvider(ctx, p.ID)
	if err != nil {
		t.Fatalf("check provider: %v", err)
	}
	if hc.Status != provider.HealthHealthy {
		t.Errorf("Status = %s, want healthy", hc.Status)
	}
	if hc.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", hc.StatusCode)
	}

	// Provider record reflects the outcome.
	got, _ := providers.Get(ctx, p.ID)
	if got.Health != provider.HealthHealthy {
		t.Errorf("provider Health = %s, want healthy", got.Health)
	}
	if got.LastHealthCheck == nil {
		t.Error("LastHealthCheck should be set")
	}
}

func TestHealthService_AuthRejectionIsDegraded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	svc, providers := newHealthFixture(t)
	p := createProbeTarget(t, providers, srv.URL)

	hc, err := svc.CheckProvider(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("check provider: %v", err)
	}
	if hc.Status != provider.HealthDegraded {
		t.Errorf("Status = %s, want degraded", hc.Status)
	}
}

func TestHealthService_ServerErrorIsUnhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc, providers := newHealthFixture(t)
	p := createProbeTarget(t, providers, srv.URL)

	hc, err := svc.CheckProvider(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("check provider: %v", err)
	}
	if hc.Status != provider.HealthUnhealthy {
		t.Errorf("Status = %s, want unhealthy", hc.Status)
	}
}

func TestHealthService_UnreachableIsUnhealthy(t *testing.T) {
	// Start and immediately stop a server to get a dead address.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := srv.URL
	srv.Close()

	svc, providers := newHealthFixture(t)
	p := createProbeTarget(t, providers, deadURL)

	hc, err := svc.CheckProvider(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("check provider: %v", err)
	}
	if hc.Status != provider.HealthUnhealthy {
		t.Errorf("Status = %s, want unhealthy", hc.Status)
	}
	if hc.Error == "" {
		t.Error("Error should describe the probe failure")
	}
}

func TestHealthService_NoBaseURLIsUnknown(t *testing.T) {
	svc, providers := newHealthFixture(t)
	p := createProbeTarget(t, providers, "")

	hc, err := svc.CheckProvider(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("check provider: %v", err)
	}
	if hc.Status != provider.HealthUnknown {
		t.Errorf("Status = %s, want unknown", hc.Status)
	}
}

func TestHealthService_History(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc, providers := newHealthFixture(t)
	p := createProbeTarget(t, providers, srv.URL)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.CheckProvider(ctx, p.ID); err != nil {
			t.Fatalf("check provider: %v", err)
		}
	}

	history, err := svc.History(ctx, p.ID, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Errorf("len(history) = %d, want 3", len(history))
	}
}
