package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/archonlabs/provgate/domain/usage"
)

// UsageEventRequest reports one provider API call.
type UsageEventRequest struct {
	ModelID      string `json:"model_id,omitempty"`
	AgentID      string `json:"agent_id,omitempty"`
	Operation    string `json:"operation,omitempty"`
	InputTokens  int64  `json:"input_tokens"`
	OutputTokens int64  `json:"output_tokens"`
	LatencyMs    int64  `json:"latency_ms"`
	StatusCode   int    `json:"status_code"`
	CostCents    int64  `json:"cost_cents,omitempty"`
}

// SummaryResponse is the wire shape of an aggregated usage window.
type SummaryResponse struct {
	ProviderID   string    `json:"provider_id,omitempty"`
	PeriodStart  time.Time `json:"period_start"`
	PeriodEnd    time.Time `json:"period_end"`
	RequestCount int64     `json:"request_count"`
	ErrorCount   int64     `json:"error_count"`
	InputTokens  int64     `json:"input_tokens"`
	OutputTokens int64     `json:"output_tokens"`
	CostCents    int64     `json:"cost_cents"`
	AvgLatencyMs int64     `json:"avg_latency_ms"`
}

func summaryToResponse(s usage.Summary) SummaryResponse {
	return SummaryResponse{
		ProviderID:   s.ProviderID,
		PeriodStart:  s.PeriodStart,
		PeriodEnd:    s.PeriodEnd,
		RequestCount: s.RequestCount,
		ErrorCount:   s.ErrorCount,
		InputTokens:  s.InputTokens,
		OutputTokens: s.OutputTokens,
		CostCents:    s.CostCents,
		AvgLatencyMs: s.AvgLatencyMs,
	}
}

// UsageEventResponse is the wire shape of one raw usage event.
type UsageEventResponse struct {
	ID           string    `json:"id"`
	ModelID      string    `json:"model_id,omitempty"`
	AgentID      string    `json:"agent_id,omitempty"`
	Operation    string    `json:"operation"`
	InputTokens  int64     `json:"input_tokens"`
	OutputTokens int64     `json:"output_tokens"`
	LatencyMs    int64     `json:"latency_ms"`
	StatusCode   int       `json:"status_code"`
	CostCents    int64     `json:"cost_cents"`
	Timestamp    time.Time `json:"timestamp"`
}

func eventToResponse(e usage.Event) UsageEventResponse {
	return UsageEventResponse{
		ID:           e.ID,
		ModelID:      e.ModelID,
		AgentID:      e.AgentID,
		Operation:    string(e.Operation),
		InputTokens:  e.InputTokens,
		OutputTokens: e.OutputTokens,
		LatencyMs:    e.LatencyMs,
		StatusCode:   e.StatusCode,
		CostCents:    e.CostCents,
		Timestamp:    e.Timestamp,
	}
}

// parsePeriod reads ?from= and ?to= (RFC 3339), defaulting to the last
// 24 hours.
func parsePeriod(r *http.Request) (time.Time, time.Time, bool) {
	now := time.Now().UTC()
	from := now.Add(-24 * time.Hour)
	to := now

	if s := r.URL.Query().Get("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return from, to, false
		}
		from = t
	}
	if s := r.URL.Query().Get("to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return from, to, false
		}
		to = t
	}
	return from, to, true
}

// ProviderUsage returns a provider's aggregated usage for a period.
// With ?include=events the raw events behind the aggregate are attached.
func (h *Handler) ProviderUsage(w http.ResponseWriter, r *http.Request) {
	providerID := chi.URLParam(r, "provider_id")

	from, to, ok := parsePeriod(r)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "from/to must be RFC 3339 timestamps")
		return
	}

	sum, err := h.usage.SummaryByProvider(r.Context(), providerID, from, to)
	if err != nil {
		h.internalError(w, err, "usage summary")
		return
	}
	if sum.ProviderID == "" {
		sum.ProviderID = providerID
	}

	out := struct {
		SummaryResponse
		Events []UsageEventResponse `json:"events,omitempty"`
	}{SummaryResponse: summaryToResponse(sum)}

	if r.URL.Query().Get("include") == "events" {
		events, err := h.usage.ListByProvider(r.Context(), providerID, from, to)
		if err != nil {
			h.internalError(w, err, "list usage events")
			return
		}
		out.Events = make([]UsageEventResponse, len(events))
		for i, e := range events {
			out.Events[i] = eventToResponse(e)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// RecordUsage stores one usage event for a provider.
func (h *Handler) RecordUsage(w http.ResponseWriter, r *http.Request) {
	providerID := chi.URLParam(r, "provider_id")

	var req UsageEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	e, err := h.usage.Record(r.Context(), usage.Event{
		ProviderID:   providerID,
		ModelID:      req.ModelID,
		AgentID:      req.AgentID,
		Operation:    usage.Operation(req.Operation),
		InputTokens:  req.InputTokens,
		OutputTokens: req.OutputTokens,
		LatencyMs:    req.LatencyMs,
		StatusCode:   req.StatusCode,
		CostCents:    req.CostCents,
	})
	if err != nil {
		h.internalError(w, err, "record usage")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": e.ID, "cost_cents": e.CostCents})
}

// UsageSummary returns usage aggregated per provider for a period.
func (h *Handler) UsageSummary(w http.ResponseWriter, r *http.Request) {
	from, to, ok := parsePeriod(r)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "from/to must be RFC 3339 timestamps")
		return
	}

	byProvider, err := h.usage.Summary(r.Context(), from, to)
	if err != nil {
		h.internalError(w, err, "usage summary")
		return
	}

	out := make(map[string]SummaryResponse, len(byProvider))
	sums := make([]usage.Summary, 0, len(byProvider))
	for id, s := range byProvider {
		out[id] = summaryToResponse(s)
		sums = append(sums, s)
	}

	total := usage.Summary{PeriodStart: from, PeriodEnd: to}
	if len(sums) > 0 {
		total = usage.MergeSummaries(sums...)
		total.ProviderID = "" // cross-provider total
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"providers": out,
		"total":     summaryToResponse(total),
	})
}
