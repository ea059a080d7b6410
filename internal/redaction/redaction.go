// Package redaction masks credentials before they reach logs or terminal output.
package redaction

import (
	"regexp"
	"strings"
)

// sensitivePatterns are compiled once at package init.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9._~+/=-]+`),                   // Authorization header values
	regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]*`), // JWT tokens
	regexp.MustCompile(`(?i)"(token|password)"\s*:\s*"[^"]*"`),               // JSON credential fields
	regexp.MustCompile(`(?i)(password|token)\s*=\s*\S+`),                     // password=... token=...
}

const replacement = "[REDACTED]"

// Redact replaces every credential-looking substring of text with [REDACTED],
// then applies caller-supplied extraPatterns (e.g. a known token value).
func Redact(text string, extraPatterns []*regexp.Regexp) string {
	for _, re := range sensitivePatterns {
		text = re.ReplaceAllString(text, replacement)
	}
	for _, re := range extraPatterns {
		text = re.ReplaceAllString(text, replacement)
	}
	return text
}

// Secret returns a short masked form of a token suitable for display:
// the first four characters followed by an ellipsis. Short or empty tokens
// are fully masked.
func Secret(token string) string {
	token = strings.TrimSpace(token)
	switch {
	case token == "":
		return ""
	case len(token) <= 8:
		return replacement
	default:
		return token[:4] + "…"
	}
}

// Literal returns a pattern matching s exactly, for use as an extra pattern.
// It returns nil for an empty s.
func Literal(s string) *regexp.Regexp {
	if s == "" {
		return nil
	}
	return regexp.MustCompile(regexp.QuoteMeta(s))
}
