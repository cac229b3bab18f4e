// Package usage provides usage event types and aggregation functions.
// All functions are pure - no side effects.
package usage

import "time"

// Operation identifies the kind of AI call an event records.
type Operation string

const (
	OpChat      Operation = "chat"
	OpEmbedding Operation = "embedding"
	OpRerank    Operation = "rerank"
)

// Event represents a single provider API call (immutable value type).
type Event struct {
	ID         string
	ProviderID string
	ModelID    string
	AgentID    string // Which agent triggered the call; "" for ad-hoc calls
	Operation  Operation

	InputTokens  int64
	OutputTokens int64
	LatencyMs    int64
	StatusCode   int
	CostCents    int64

	Timestamp time.Time
}

// TotalTokens returns input plus output tokens.
func (e Event) TotalTokens() int64 {
	return e.InputTokens + e.OutputTokens
}

// Failed returns true if the upstream call did not succeed.
func (e Event) Failed() bool {
	return e.StatusCode >= 400 || e.StatusCode == 0
}
