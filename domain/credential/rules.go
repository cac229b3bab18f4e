package credential

import "regexp"

// Rule describes the expected shape of a credential for one provider.
// Rules are process-wide constants, initialized once and never mutated.
type Rule struct {
	MinLength   int            // Minimum trimmed length; 0 = no minimum
	Prefix      string         // Required prefix; "" = no prefix check
	Pattern     *regexp.Regexp // Full-match pattern, stricter than prefix+length; nil = skip
	Description string         // Human-readable shape, cited in INVALID_FORMAT messages
	RequiresKey bool           // false = locally-hosted provider, any value accepted
}

// rules maps provider id to its credential rule. Every provider id the
// admin UI can reference must have exactly one entry; ids without an
// entry are rejected with CodeUnknownProvider.
var rules = map[string]Rule{
	"openai": {
		MinLength:   40,
		Prefix:      "sk-",
		Pattern:     regexp.MustCompile(`^sk-[A-Za-z0-9_-]{20,}$`),
		Description: "OpenAI keys start with sk- followed by at least 20 characters",
		RequiresKey: true,
	},
	"anthropic": {
		MinLength:   40,
		Prefix:      "sk-ant-",
		Pattern:     regexp.MustCompile(`^sk-ant-[A-Za-z0-9_-]{24,}$`),
		Description: "Anthropic keys start with sk-ant-",
		RequiresKey: true,
	},
	"google": {
		MinLength:   35,
		Prefix:      "AIza",
		Pattern:     regexp.MustCompile(`^AIza[A-Za-z0-9_-]{30,}$`),
		Description: "Google API keys start with AIza",
		RequiresKey: true,
	},
	// Gemini authenticates with a Google API key.
	"gemini": {
		MinLength:   35,
		Prefix:      "AIza",
		Pattern:     regexp.MustCompile(`^AIza[A-Za-z0-9_-]{30,}$`),
		Description: "Gemini uses a Google API key starting with AIza",
		RequiresKey: true,
	},
	"groq": {
		MinLength:   40,
		Prefix:      "gsk_",
		Description: "Groq keys start with gsk_",
		RequiresKey: true,
	},
	"mistral": {
		MinLength:   30,
		Description: "Mistral keys are at least 30 characters",
		RequiresKey: true,
	},
	"cohere": {
		MinLength:   36,
		Description: "Cohere keys are at least 36 characters",
		RequiresKey: true,
	},
	"together": {
		MinLength:   64,
		Pattern:     regexp.MustCompile(`^[0-9a-f]{64}$`),
		Description: "Together keys are 64 lowercase hex characters",
		RequiresKey: true,
	},
	"openrouter": {
		MinLength:   40,
		Prefix:      "sk-or-",
		Description: "OpenRouter keys start with sk-or-",
		RequiresKey: true,
	},
	"ollama": {
		Description: "Ollama runs locally and does not use an API key",
		RequiresKey: false,
	},
	"custom": {
		Description: "Custom endpoints accept any credential",
		RequiresKey: false,
	},
}

// strictMinLength holds per-provider minimums stricter than the generic
// rule. Checked in addition to Rule.MinLength and reported with the same
// CodeInvalidLength code.
var strictMinLength = map[string]int{
	"anthropic": 60,
}

// LookupRule returns the rule for a provider id.
func LookupRule(providerID string) (Rule, bool) {
	r, ok := rules[providerID]
	return r, ok
}

// Providers returns all provider ids that have a rule.
func Providers() []string {
	ids := make([]string, 0, len(rules))
	for id := range rules {
		ids = append(ids, id)
	}
	return ids
}
