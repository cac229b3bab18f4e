package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/archonlabs/provgate/adapters/clock"
	"github.com/archonlabs/provgate/adapters/idgen"
	"github.com/archonlabs/provgate/adapters/memory"
	"github.com/archonlabs/provgate/app"
	"github.com/archonlabs/provgate/domain/provider"
	"github.com/archonlabs/provgate/domain/usage"
)

func newUsageService(t *testing.T) (*app.UsageService, *memory.ModelStore, *clock.Fake) {
	t.Helper()
	models := memory.NewModelStore()
	fake := clock.NewFake(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC))
	svc := app.NewUsageService(
		memory.NewUsageStore(), models, fake,
		idgen.NewSequential("ev"), nil, zerolog.Nop(),
	)
	return svc, models, fake
}

func TestUsageService_RecordFillsDefaults(t *testing.T) {
	svc, _, fake := newUsageService(t)

	e, err := svc.Record(context.Background(), usage.Event{
		ProviderID:  "prov-1",
		InputTokens: 100,
		StatusCode:  200,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if e.ID == "" {
		t.Error("ID should be generated")
	}
	if !e.Timestamp.Equal(fake.Now()) {
		t.Errorf("Timestamp = %v, want %v", e.Timestamp, fake.Now())
	}
	if e.Operation != usage.OpChat {
		t.Errorf("Operation = %s, want chat default", e.Operation)
	}
}

func TestUsageService_RecordPricesFromCatalog(t *testing.T) {
	svc, models, _ := newUsageService(t)
	ctx := context.Background()

	now := time.Now()
	if err := models.Create(ctx, provider.Model{
		ID:                      "model-1",
		ProviderID:              "prov-1",
		ModelID:                 "gpt-4o-mini",
		Type:                    provider.ModelLLM,
		InputPriceCentsPerMTok:  1500,
		OutputPriceCentsPerMTok: 6000,
		Available:               true,
		CreatedAt:               now,
		UpdatedAt:               now,
	}); err != nil {
		t.Fatalf("create model: %v", err)
	}

	e, err := svc.Record(ctx, usage.Event{
		ProviderID:   "prov-1",
		ModelID:      "model-1",
		InputTokens:  1_000_000,
		OutputTokens: 500_000,
		StatusCode:   200,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	// 1M input at 1500c/MTok + 0.5M output at 6000c/MTok
	if e.CostCents != 4500 {
		t.Errorf("CostCents = %d, want 4500", e.CostCents)
	}
}

func TestUsageService_SummaryByProvider(t *testing.T) {
	svc, _, fake := newUsageService(t)
	ctx := context.Background()

	base := fake.Now()
	events := []usage.Event{
		{ProviderID: "prov-1", InputTokens: 100, OutputTokens: 50, LatencyMs: 200, StatusCode: 200, Timestamp: base},
		{ProviderID: "prov-1", InputTokens: 300, OutputTokens: 100, LatencyMs: 400, StatusCode: 200, Timestamp: base.Add(time.Minute)},
		{ProviderID: "prov-1", InputTokens: 10, StatusCode: 500, Timestamp: base.Add(2 * time.Minute)},
		{ProviderID: "prov-2", InputTokens: 999, StatusCode: 200, Timestamp: base},
	}
	for _, e := range events {
		if _, err := svc.Record(ctx, e); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	sum, err := svc.SummaryByProvider(ctx, "prov-1", base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.RequestCount != 3 {
		t.Errorf("RequestCount = %d, want 3", sum.RequestCount)
	}
	if sum.ErrorCount != 1 {
		t.Errorf("ErrorCount = %d, want 1", sum.ErrorCount)
	}
	if sum.InputTokens != 410 {
		t.Errorf("InputTokens = %d, want 410", sum.InputTokens)
	}
}

func TestUsageService_SummaryGroupsByProvider(t *testing.T) {
	svc, _, fake := newUsageService(t)
	ctx := context.Background()

	base := fake.Now()
	for _, e := range []usage.Event{
		{ProviderID: "prov-1", InputTokens: 100, StatusCode: 200, Timestamp: base},
		{ProviderID: "prov-2", InputTokens: 200, StatusCode: 200, Timestamp: base},
	} {
		if _, err := svc.Record(ctx, e); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	byProvider, err := svc.Summary(ctx, base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(byProvider) != 2 {
		t.Fatalf("len = %d, want 2", len(byProvider))
	}
	if byProvider["prov-2"].InputTokens != 200 {
		t.Errorf("prov-2 InputTokens = %d, want 200", byProvider["prov-2"].InputTokens)
	}
}
