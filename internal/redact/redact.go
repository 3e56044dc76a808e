// Package redact scrubs sensitive material from strings before they reach
// logs or API error responses. It targets credentials, tokens, SQL values,
// identifiers, and filesystem paths.
package redact

import "regexp"

// Placeholders substituted for redacted content. Exported so callers can
// assert on them without hard-coding the literals.
const (
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
)

// rule pairs a pattern with its replacement. Replacements may reference
// capture groups.
type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// rules run in order. Ordering is load-bearing in two places: stack traces
// are collapsed before path redaction can split them, and SQL statements are
// rewritten before the value-level patterns (emails, UUIDs) see their
// contents. The key pattern also runs before the JWT pattern so that
// "token: eyJ..." collapses to a single placeholder.
var rules = []rule{
	// Panics and goroutine dumps collapse to a single marker.
	{regexp.MustCompile(`(?:goroutine \d+|panic:)[\s\S]*?(\n\t.*)+`), "[STACK_TRACE_REDACTED]"},

	// SQL statements keep their shape but lose their values. SELECTs lose
	// the column and predicate text entirely since both routinely embed
	// user identifiers.
	{regexp.MustCompile(`(?i)\bSELECT\b.*?\bFROM\b.*`), "SELECT FROM... [SQL_VALUES_REDACTED]"},
	{regexp.MustCompile(`(?i)\b(INSERT\s+INTO\s+\w+\s*(?:\([^)]*\))?\s*VALUES)\b.*`), "${1} [SQL_VALUES_REDACTED]"},
	{regexp.MustCompile(`(?i)\b(UPDATE\s+\w+\s+SET)\b.*`), "${1} [SQL_VALUES_REDACTED]"},
	{regexp.MustCompile(`(?i)\b(DELETE\s+FROM\s+\w+)\s+WHERE\b.*`), "${1} [SQL_WHERE_REDACTED]"},

	// Connection strings and credentials.
	{regexp.MustCompile(`(?i)(postgres|mysql|mongodb|db|database|connection)://[^@]+@`), RedactedCredentialPlaceholder},
	{regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]?['"]?)[^'"&\s]{3,}`), RedactedCredentialPlaceholder},
	{regexp.MustCompile(`(?i)(api[_-]?key|token|secret|key|access|auth)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`), RedactedKeyPlaceholder},
	{regexp.MustCompile(`(AKIA|AccessKey(Id)?)([^a-zA-Z0-9])?[A-Z0-9]{8,}`), RedactedKeyPlaceholder},
	{regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`), "[REDACTED_JWT]"},

	// Identifiers.
	{regexp.MustCompile(`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`), "[REDACTED_UUID]"},
	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`), "[REDACTED_EMAIL]"},

	// Filesystem paths, both Unix and Windows.
	{regexp.MustCompile(`(/[\w.-]+){2,}`), RedactedPathPlaceholder},
	{regexp.MustCompile(`[A-Za-z]:\\[^\\]+(\\[^\\]+)+`), RedactedPathPlaceholder},

	// Error detail that leaks internals.
	{regexp.MustCompile(`(?:at )?line ?\d+`), "[REDACTED_LINE_NUMBER]"},
	{regexp.MustCompile(`(?i)syntax error|syntax problem|parse error`), "[REDACTED_SYNTAX_ERROR]"},
	{regexp.MustCompile(`\b(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}(?::\d{1,5})?\b`), "[REDACTED_HOST]"},
	{regexp.MustCompile(`(?i)(?:no such file|file not found|can't open|cannot open|file error)`), "[REDACTED_FILE_ERROR]"},
}

// String returns input with all sensitive fragments replaced.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.replacement)
	}
	return result
}

// Error redacts an error's message. Returns "" for a nil error.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
