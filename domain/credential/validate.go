// Package credential provides provider credential value types and pure
// format validation functions. This package has NO dependencies on I/O
// or external packages.
package credential

import (
	"fmt"
	"strings"
	"unicode"
)

// Severity classifies how an issue affects submission.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue codes form a closed enumeration. Every code the validator can
// produce has an entry in the message table (see messages.go).
const (
	CodeMissingKey         = "MISSING_API_KEY"
	CodeInvalidLength      = "INVALID_LENGTH"
	CodeInvalidPrefix      = "INVALID_PREFIX"
	CodeInvalidFormat      = "INVALID_FORMAT"
	CodeContainsSpaces     = "CONTAINS_SPACES"
	CodeContainsWhitespace = "CONTAINS_WHITESPACE"
	CodeUnknownProvider    = "UNKNOWN_PROVIDER"
	CodeUnusuallyLong      = "UNUSUALLY_LONG"
)

// maxReasonableLength is a generous ceiling above which a key is
// probably a paste accident. Exceeding it is a warning, never an error.
const maxReasonableLength = 200

// Issue describes a single problem found in a credential.
type Issue struct {
	Field    string   `json:"field"`
	Message  string   `json:"message"`
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
}

// Result is the outcome of validating one credential (value type).
// Valid is true exactly when Errors is empty; warnings never affect it.
type Result struct {
	Valid    bool    `json:"is_valid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// Validate checks whether raw is plausibly well-formed for the given
// provider, without making a network call. It never panics and always
// returns a structured Result.
//
// Steps 1-3 (unknown provider, no-key provider, missing key) short-circuit.
// From step 4 on, errors accumulate so the caller can display every
// problem at once. This is a PURE function.
func Validate(raw, providerID string) Result {
	rule, ok := LookupRule(providerID)
	if !ok {
		return Result{
			Valid: false,
			Errors: []Issue{{
				Field:    "provider",
				Message:  fmt.Sprintf("unknown provider %q", providerID),
				Code:     CodeUnknownProvider,
				Severity: SeverityError,
			}},
			Warnings: []Issue{},
		}
	}

	// Locally-hosted providers accept any value, including garbage.
	// The checks are skipped entirely; this is intentional.
	if !rule.RequiresKey {
		return Result{Valid: true, Errors: []Issue{}, Warnings: []Issue{}}
	}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Result{
			Valid: false,
			Errors: []Issue{{
				Field:    "api_key",
				Message:  "an API key is required for this provider",
				Code:     CodeMissingKey,
				Severity: SeverityError,
			}},
			Warnings: []Issue{},
		}
	}

	var errs []Issue

	if rule.MinLength > 0 && len(trimmed) < rule.MinLength {
		errs = append(errs, Issue{
			Field:    "api_key",
			Message:  fmt.Sprintf("key is too short: expected at least %d characters, got %d", rule.MinLength, len(trimmed)),
			Code:     CodeInvalidLength,
			Severity: SeverityError,
		})
	}

	if rule.Prefix != "" && !strings.HasPrefix(trimmed, rule.Prefix) {
		errs = append(errs, Issue{
			Field:    "api_key",
			Message:  fmt.Sprintf("key must start with %q", rule.Prefix),
			Code:     CodeInvalidPrefix,
			Severity: SeverityError,
		})
	}

	// Internal spaces and other whitespace get distinct codes because the
	// UI offers different remediation copy for each.
	if strings.Contains(trimmed, " ") {
		errs = append(errs, Issue{
			Field:    "api_key",
			Message:  "key contains space characters",
			Code:     CodeContainsSpaces,
			Severity: SeverityError,
		})
	}
	if strings.ContainsAny(trimmed, "\t\n\r\v\f") {
		errs = append(errs, Issue{
			Field:    "api_key",
			Message:  "key contains tab or newline characters",
			Code:     CodeContainsWhitespace,
			Severity: SeverityError,
		})
	}

	if min, ok := strictMinLength[providerID]; ok && len(trimmed) < min {
		errs = append(errs, Issue{
			Field:    "api_key",
			Message:  fmt.Sprintf("%s keys are at least %d characters, got %d", providerID, min, len(trimmed)),
			Code:     CodeInvalidLength,
			Severity: SeverityError,
		})
	}

	if rule.Pattern != nil && !rule.Pattern.MatchString(trimmed) {
		errs = append(errs, Issue{
			Field:    "api_key",
			Message:  fmt.Sprintf("key does not match the expected format: %s", rule.Description),
			Code:     CodeInvalidFormat,
			Severity: SeverityError,
		})
	}

	var warnings []Issue
	if len(trimmed) > maxReasonableLength {
		warnings = append(warnings, Issue{
			Field:    "api_key",
			Message:  fmt.Sprintf("key is unusually long (%d characters); check for an accidental paste", len(trimmed)),
			Code:     CodeUnusuallyLong,
			Severity: SeverityWarning,
		})
	}

	if errs == nil {
		errs = []Issue{}
	}
	if warnings == nil {
		warnings = []Issue{}
	}

	return Result{
		Valid:    len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
	}
}

// Sanitize trims the key and removes ALL internal whitespace (spaces,
// tabs, newlines), preserving every other character. Idempotent:
// Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(raw string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
}

// FormatValid sanitizes raw and reports whether the result validates.
// Note the asymmetry with Validate, which operates on a merely-trimmed
// copy: whitespace inside a key fails Validate but passes FormatValid.
func FormatValid(raw, providerID string) bool {
	return Validate(Sanitize(raw), providerID).Valid
}
