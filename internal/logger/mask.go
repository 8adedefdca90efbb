package logger

import (
	"regexp"
	"strings"
)

// MaskFunc rewrites a string to hide sensitive data.
type MaskFunc func(string) string

const masked = "***MASKED***"

// Secrets that commonly leak into committed files. Patterns broad enough to
// match commit hashes are left out so revisions stay readable.
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`gh[po]_[a-zA-Z0-9]{36}`),                                                      // GitHub PAT / OAuth
	regexp.MustCompile(`github_pat_[a-zA-Z0-9]{22}_[a-zA-Z0-9]{59}`),                                  // GitHub fine-grained
	regexp.MustCompile(`xox[bp]-[a-zA-Z0-9-]+`),                                                       // Slack
	regexp.MustCompile(`AKIA[A-Z0-9]{16}`),                                                            // AWS access key
	regexp.MustCompile(`(?i)Bearer\s+[a-zA-Z0-9._-]+`),                                                // Bearer tokens
	regexp.MustCompile(`(?i)api[_-]?key[=:]\s*["']?[a-zA-Z0-9_-]{16,}["']?`),                          // API keys
	regexp.MustCompile(`(?i)password[=:]\s*["']?[^\s"']{8,}["']?`),                                    // Passwords
	regexp.MustCompile(`-----BEGIN [A-Z ]+ PRIVATE KEY-----[\s\S]*?-----END [A-Z ]+ PRIVATE KEY-----`), // Private keys
}

var sensitiveKeys = map[string]bool{
	"password":      true,
	"secret":        true,
	"token":         true,
	"api_key":       true,
	"apikey":        true,
	"private_key":   true,
	"authorization": true,
	"credentials":   true,
}

// IsSensitiveKey reports whether values logged under key are always masked.
func IsSensitiveKey(key string) bool {
	return sensitiveKeys[strings.ToLower(key)]
}

// MaskSecrets masks every known secret pattern in s.
func MaskSecrets(s string) string {
	return maskPatterns(s)
}

func maskPatterns(s string) string {
	for _, re := range secretPatterns {
		s = re.ReplaceAllStringFunc(s, partialMask)
	}
	return s
}

// partialMask keeps the first and last four bytes of long values.
func partialMask(s string) string {
	if len(s) <= 8 {
		return masked
	}
	return s[:4] + "***" + s[len(s)-4:]
}

// mask runs the sink's mask chain. Callers hold s.mu.
func (s *sink) mask(v string) string {
	for _, fn := range s.masks {
		v = fn(v)
	}
	return v
}

func (s *sink) maskField(key string, value any) any {
	str, isString := value.(string)
	switch {
	case IsSensitiveKey(key) && isString:
		return partialMask(str)
	case IsSensitiveKey(key):
		return masked
	case isString:
		return s.mask(str)
	}
	return value
}
