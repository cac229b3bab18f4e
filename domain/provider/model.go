package provider

import "time"

// ModelType identifies what a model does.
type ModelType string

const (
	ModelLLM          ModelType = "llm"
	ModelEmbedding    ModelType = "embedding"
	ModelReranking    ModelType = "reranking"
	ModelSpeechToText ModelType = "speech_to_text"
	ModelTextToSpeech ModelType = "text_to_speech"
)

// Model represents one model offered by a provider (immutable value type).
type Model struct {
	ID         string
	ProviderID string
	ModelID    string // Provider-native id, e.g. "gpt-4o-mini"
	Name       string
	Type       ModelType
	Family     string

	ContextWindow   int
	MaxOutputTokens int
	EmbeddingDims   int

	SupportsStreaming bool
	SupportsFunctions bool
	SupportsVision    bool

	// Prices in cents per million tokens; 0 = unpriced.
	InputPriceCentsPerMTok  int64
	OutputPriceCentsPerMTok int64

	Available bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsValid returns true if the model has minimum required fields.
func (m Model) IsValid() bool {
	return m.ID != "" && m.ProviderID != "" && m.ModelID != "" && m.Type != ""
}

// TokenCostCents computes the cost in cents for a token count split.
// This is a PURE function.
func (m Model) TokenCostCents(inputTokens, outputTokens int64) int64 {
	return (inputTokens*m.InputPriceCentsPerMTok + outputTokens*m.OutputPriceCentsPerMTok) / 1_000_000
}
