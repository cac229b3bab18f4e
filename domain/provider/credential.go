package provider

import "time"

// CredentialType identifies how a credential authenticates.
type CredentialType string

const (
	CredentialAPIKey CredentialType = "api_key"
	CredentialBearer CredentialType = "bearer_token"
	CredentialBasic  CredentialType = "basic_auth"
	CredentialOAuth  CredentialType = "oauth_token"
)

// Credential represents a stored provider credential (immutable value
// type). The secret itself is encrypted at rest; the plaintext never
// appears in this struct.
type Credential struct {
	ID         string
	ProviderID string
	Type       CredentialType
	Ciphertext []byte // Encrypted secret
	BaseURL    string // Optional custom endpoint
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
	RotatedAt  *time.Time // nil = never rotated
}

// IsValid returns true if the credential has minimum required fields.
func (c Credential) IsValid() bool {
	return c.ID != "" && c.ProviderID != "" && len(c.Ciphertext) > 0
}

// WithRotated returns a copy marking the credential as rotated at the
// given time with a new ciphertext.
func (c Credential) WithRotated(ciphertext []byte, at time.Time) Credential {
	c.Ciphertext = ciphertext
	c.RotatedAt = &at
	c.UpdatedAt = at
	return c
}
