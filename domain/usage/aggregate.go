package usage

import "time"

// Summary aggregates events for one provider over a period
// (immutable value type).
type Summary struct {
	ProviderID  string
	PeriodStart time.Time
	PeriodEnd   time.Time

	RequestCount int64
	ErrorCount   int64

	InputTokens  int64
	OutputTokens int64
	CostCents    int64

	AvgLatencyMs int64
}

// Aggregate combines events into a summary for the given period.
// This is a PURE function.
func Aggregate(events []Event, periodStart, periodEnd time.Time) Summary {
	s := Summary{PeriodStart: periodStart, PeriodEnd: periodEnd}
	if len(events) == 0 {
		return s
	}

	var totalLatency int64
	for _, e := range events {
		if s.ProviderID == "" {
			s.ProviderID = e.ProviderID
		}

		s.RequestCount++
		s.InputTokens += e.InputTokens
		s.OutputTokens += e.OutputTokens
		s.CostCents += e.CostCents
		totalLatency += e.LatencyMs

		if e.Failed() {
			s.ErrorCount++
		}
	}

	s.AvgLatencyMs = totalLatency / s.RequestCount
	return s
}

// GroupByProvider splits events per provider and aggregates each group.
// This is a PURE function.
func GroupByProvider(events []Event, periodStart, periodEnd time.Time) map[string]Summary {
	groups := make(map[string][]Event)
	for _, e := range events {
		groups[e.ProviderID] = append(groups[e.ProviderID], e)
	}

	out := make(map[string]Summary, len(groups))
	for id, evs := range groups {
		out[id] = Aggregate(evs, periodStart, periodEnd)
	}
	return out
}

// MergeSummaries combines multiple summaries into one.
// This is a PURE function.
func MergeSummaries(summaries ...Summary) Summary {
	if len(summaries) == 0 {
		return Summary{}
	}

	result := summaries[0]
	for _, s := range summaries[1:] {
		// Weighted average for latency, computed before counts change.
		if result.RequestCount+s.RequestCount > 0 {
			total := result.AvgLatencyMs*result.RequestCount + s.AvgLatencyMs*s.RequestCount
			result.AvgLatencyMs = total / (result.RequestCount + s.RequestCount)
		}

		result.RequestCount += s.RequestCount
		result.ErrorCount += s.ErrorCount
		result.InputTokens += s.InputTokens
		result.OutputTokens += s.OutputTokens
		result.CostCents += s.CostCents

		if s.PeriodStart.Before(result.PeriodStart) {
			result.PeriodStart = s.PeriodStart
		}
		if s.PeriodEnd.After(result.PeriodEnd) {
			result.PeriodEnd = s.PeriodEnd
		}
	}
	return result
}
