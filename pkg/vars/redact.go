package vars

import (
	"regexp"
	"strings"
)

const redactedMarker = "[REDACTED]"

var namedPatterns = map[string]string{
	"email": `(?i)[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}`,
	"cc16":  `\b(?:\d[ -]?){16}\b`,
	"jwt":   `eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9._-]+\.[A-Za-z0-9._-]+`,
}

// Redactor masks sensitive content in variable values before they are logged.
//
// The zero value is a no-op redactor.
type Redactor struct {
	patterns []*regexp.Regexp
}

// NewRedactor builds a redactor. redactEmails enables the built-in e-mail
// expression; custom entries are either regular expressions or one of the
// named patterns "email", "cc16" and "jwt".
func NewRedactor(redactEmails bool, custom []string) (Redactor, error) {
	patterns := make([]*regexp.Regexp, 0, len(custom)+1)
	if redactEmails {
		patterns = append(patterns, regexp.MustCompile(namedPatterns["email"]))
	}

	for _, expr := range custom {
		trimmed := strings.TrimSpace(expr)
		if trimmed == "" {
			continue
		}
		if mapped, ok := namedPatterns[strings.ToLower(trimmed)]; ok {
			trimmed = mapped
		}
		rx, err := regexp.Compile(trimmed)
		if err != nil {
			return Redactor{}, err
		}
		patterns = append(patterns, rx)
	}
	return Redactor{patterns: patterns}, nil
}

// String masks every match in value.
func (r Redactor) String(value string) string {
	for _, rx := range r.patterns {
		value = rx.ReplaceAllString(value, redactedMarker)
	}
	return value
}

// Map returns a redacted copy of values, or nil when values is empty.
func (r Redactor) Map(values map[string]string) map[string]string {
	if len(values) == 0 {
		return nil
	}
	clone := make(map[string]string, len(values))
	for k, v := range values {
		clone[k] = r.String(v)
	}
	return clone
}
