// Package provider provides AI provider value types and pure helper
// functions. This package has NO dependencies on I/O or external packages.
package provider

import "time"

// Type identifies a provider vendor.
type Type string

const (
	TypeOpenAI     Type = "openai"
	TypeAnthropic  Type = "anthropic"
	TypeGoogle     Type = "google"
	TypeGemini     Type = "gemini"
	TypeGroq       Type = "groq"
	TypeMistral    Type = "mistral"
	TypeCohere     Type = "cohere"
	TypeTogether   Type = "together"
	TypeOpenRouter Type = "openrouter"
	TypeOllama     Type = "ollama"
	TypeCustom     Type = "custom"
)

// ServiceType identifies the kind of AI service a provider offers.
type ServiceType string

const (
	ServiceLLM        ServiceType = "llm"
	ServiceEmbedding  ServiceType = "embedding"
	ServiceReranking  ServiceType = "reranking"
	ServiceSpeech     ServiceType = "speech"
	ServiceVision     ServiceType = "vision"
	ServiceMultimodal ServiceType = "multimodal"
)

// HealthStatus reflects the most recent health check outcome.
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
	HealthUnknown   HealthStatus = "unknown"
)

// Provider represents a configured AI provider (immutable value type).
type Provider struct {
	ID          string
	Name        string
	DisplayName string
	Type        Type
	Services    []ServiceType

	// Endpoint configuration
	BaseURL    string
	APIVersion string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	Headers    map[string]string

	// State
	Active  bool
	Primary bool // At most one provider is primary per service type

	Health          HealthStatus
	LastHealthCheck *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProvider creates a provider with sensible defaults.
func NewProvider(id, name string, typ Type) Provider {
	now := time.Now()
	return Provider{
		ID:          id,
		Name:        name,
		DisplayName: name,
		Type:        typ,
		Services:    []ServiceType{ServiceLLM},
		Timeout:     30 * time.Second,
		MaxRetries:  3,
		RetryDelay:  time.Second,
		Active:      true,
		Health:      HealthUnknown,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsValid returns true if the provider has minimum required fields.
func (p Provider) IsValid() bool {
	return p.ID != "" && p.Name != "" && p.Type != ""
}

// Offers returns true if the provider offers the given service type.
func (p Provider) Offers(s ServiceType) bool {
	for _, svc := range p.Services {
		if svc == s {
			return true
		}
	}
	return false
}

// WithHealth returns a copy of the provider with an updated health status.
func (p Provider) WithHealth(h HealthStatus, at time.Time) Provider {
	p.Health = h
	p.LastHealthCheck = &at
	p.UpdatedAt = at
	return p
}

// envVars maps provider types to the environment variable each SDK reads.
// Unlisted types fall back to <TYPE>_API_KEY.
var envVars = map[Type]string{
	TypeOpenAI:     "OPENAI_API_KEY",
	TypeAnthropic:  "ANTHROPIC_API_KEY",
	TypeGoogle:     "GOOGLE_API_KEY",
	TypeGemini:     "GOOGLE_API_KEY", // Gemini uses the Google API key
	TypeGroq:       "GROQ_API_KEY",
	TypeMistral:    "MISTRAL_API_KEY",
	TypeCohere:     "CO_API_KEY",
	TypeOpenRouter: "OPENROUTER_API_KEY",
}

// baseURLVars maps provider types to their base URL override variable.
var baseURLVars = map[Type]string{
	TypeOpenAI: "OPENAI_BASE_URL",
	TypeOllama: "OLLAMA_BASE_URL",
}

// EnvVar returns the environment variable name agent SDKs read the
// provider's API key from. This is a PURE function.
func EnvVar(t Type) string {
	if v, ok := envVars[t]; ok {
		return v
	}
	return upperSnake(string(t)) + "_API_KEY"
}

// BaseURLEnvVar returns the base URL override variable for a provider
// type, or "" if the provider has none.
func BaseURLEnvVar(t Type) string {
	return baseURLVars[t]
}

func upperSnake(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
			out = append(out, c-'a'+'A')
		case c >= 'A' && c <= 'Z' || c >= '0' && c <= '9':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
