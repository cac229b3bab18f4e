package client

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind discriminates error origins once, at the boundary where the
// error is created. Callers switch on Kind instead of probing fields.
type Kind string

const (
	// KindTransport covers network failures and non-2xx responses.
	KindTransport Kind = "transport"
	// KindValidation covers request payloads the server rejected as
	// structurally invalid (HTTP 422).
	KindValidation Kind = "validation"
)

// APIError is the single error shape the client produces. It is
// constructed only inside the client: when a response status is outside
// the 2xx range, or when the network call itself fails.
type APIError struct {
	Kind       Kind
	Message    string
	Status     int    // 0 for network-level failures
	StatusText string // HTTP status text; "" for network-level failures
	Response   any    // Decoded error body when it was JSON, raw string otherwise
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.StatusText, e.Message)
}

// AsAPIError unwraps err into an *APIError if it is one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsNotFound returns true if the error is a 404 response.
func IsNotFound(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Status == 404
}

// errorMessage extracts the most useful message from a decoded error
// body. Priority: detail (object flattened, string used directly),
// then message, then the HTTP status text.
func errorMessage(body any, statusText string) string {
	obj, ok := body.(map[string]any)
	if !ok {
		if s, ok := body.(string); ok && s != "" {
			return s
		}
		return statusText
	}

	switch detail := obj["detail"].(type) {
	case string:
		if detail != "" {
			return detail
		}
	case map[string]any:
		if msg := flattenDetail(detail); msg != "" {
			return msg
		}
	}

	if msg, ok := obj["message"].(string); ok && msg != "" {
		return msg
	}
	return statusText
}

// detailFields are the diagnostic fields a data-store error carries,
// flattened in this order.
var detailFields = []string{"message", "error", "details", "hint", "code"}

// flattenDetail turns a structured detail object into one readable
// multi-line string.
func flattenDetail(detail map[string]any) string {
	var lines []string
	used := make(map[string]bool)

	for _, field := range detailFields {
		v, ok := detail[field]
		if !ok || v == nil {
			continue
		}
		used[field] = true
		s := fmt.Sprintf("%v", v)
		if s == "" {
			continue
		}
		if field == "message" || field == "error" {
			lines = append(lines, s)
		} else {
			lines = append(lines, field+": "+s)
		}
	}

	// Carry unknown fields too, sorted for stable output.
	var rest []string
	for k, v := range detail {
		if used[k] || v == nil {
			continue
		}
		rest = append(rest, fmt.Sprintf("%s: %v", k, v))
	}
	sort.Strings(rest)
	lines = append(lines, rest...)

	return strings.Join(lines, "\n")
}
