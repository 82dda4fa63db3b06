package logging

import (
	"regexp"
	"strings"
)

// Redactor scrubs credential-shaped values out of log fields before they
// reach a handler, so an Authorization header or api_key never lands in a
// log line even if a caller passes one through by mistake.
type Redactor struct {
	patterns []*regexp.Regexp
}

// NewRedactor returns a Redactor covering the gateway's own credential
// shapes: bearer tokens, x-api-key/Authorization header values, and
// generic api_key-looking fields.
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`Bearer\s+[A-Za-z0-9\-._~+/]+=*`),
			regexp.MustCompile(`(?i)(api[-_]?key|x-api-key)["':=\s]+[A-Za-z0-9\-._~+/]+`),
		},
	}
}

var sensitiveKeys = []string{"password", "secret", "token", "api_key", "apikey", "authorization", "x-api-key"}

// isSensitiveKey reports whether a log field's key name indicates its
// value should be fully redacted rather than pattern-scanned.
func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// RedactArgs returns a redacted copy of a slog-style key1, value1, key2,
// value2, ... arg list, replacing any value whose key is sensitive or whose
// string form matches a known credential shape. args itself is not modified.
func (r *Redactor) RedactArgs(args ...any) []any {
	if len(args) == 0 {
		return args
	}
	redacted := make([]any, len(args))
	copy(redacted, args)

	for i := 1; i < len(redacted); i += 2 {
		key, _ := redacted[i-1].(string)
		if isSensitiveKey(key) {
			redacted[i] = redactValue(redacted[i])
			continue
		}
		if s, ok := redacted[i].(string); ok {
			redacted[i] = r.redactString(s)
		}
	}
	return redacted
}

func (r *Redactor) redactString(value string) string {
	for _, p := range r.patterns {
		value = p.ReplaceAllString(value, "***")
	}
	return value
}

func redactValue(value any) any {
	s, ok := value.(string)
	if !ok {
		return "***"
	}
	if len(s) <= 4 {
		return "***"
	}
	return s[:4] + "***"
}
