package credential

// messages maps every code the validator can produce to user-facing
// copy. Message falls back to the issue's own text for unknown codes,
// so growing the code set never breaks rendering.
var messages = map[string]string{
	CodeMissingKey:         "Enter an API key for this provider.",
	CodeInvalidLength:      "This key looks too short for the selected provider.",
	CodeInvalidPrefix:      "This key does not start with the provider's expected prefix.",
	CodeInvalidFormat:      "This key does not match the provider's key format.",
	CodeContainsSpaces:     "Remove the spaces from the key; keys never contain spaces.",
	CodeContainsWhitespace: "The key contains line breaks or tabs, likely from a multi-line paste.",
	CodeUnknownProvider:    "Select a known provider before adding a key.",
	CodeUnusuallyLong:      "This key is much longer than any known provider issues; double-check it.",
}

// Message returns the user-facing text for an issue. Known codes use the
// lookup table; unknown codes fall back to the issue's raw message.
func Message(i Issue) string {
	if m, ok := messages[i.Code]; ok {
		return m
	}
	return i.Message
}
