package logger

import (
	"log/slog"
	"strings"
)

// Key fragments whose values are always fully redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"cookie",
	"key",
	"credential",
	"authorization",
	"bearer",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// digestPrefixLen is how much of a token digest may be logged.
const digestPrefixLen = 8

func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}

	if a.Value.Kind() != slog.KindString {
		return a
	}
	val := a.Value.String()
	if val == "" {
		return a
	}

	key := strings.ToLower(a.Key)
	switch {
	case key == "digest" || strings.HasSuffix(key, "_digest"):
		return slog.String(a.Key, RedactDigest(val))
	case key == "email" || strings.HasSuffix(key, "_email"):
		return slog.String(a.Key, RedactEmail(val))
	case IsSensitiveKey(key):
		return slog.String(a.Key, redactedValue)
	case IsSensitiveValue(val):
		return slog.String(a.Key, redactedValue)
	}
	return a
}

// RedactEmail keeps the first character of the local part and the domain.
//
//	RedactEmail("jane.doe@rcmp.ca") == "j***@rcmp.ca"
func RedactEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return redactedValue
	}
	return email[:1] + "***" + email[at:]
}

// RedactDigest keeps a short prefix of a hex digest for correlation.
func RedactDigest(digest string) string {
	if len(digest) <= digestPrefixLen {
		return redactedValue
	}
	return digest[:digestPrefixLen] + "..."
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

// IsSensitiveValue reports whether value has the shape of a magic link token:
// 26 characters of Crockford base32 starting with 0-7.
func IsSensitiveValue(value string) bool {
	if len(value) != 26 || value[0] < '0' || value[0] > '7' {
		return false
	}
	for i := 0; i < len(value); i++ {
		c := value[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		switch {
		case c >= '0' && c <= '9':
		case c >= 'A' && c <= 'Z' && c != 'I' && c != 'L' && c != 'O' && c != 'U':
		default:
			return false
		}
	}
	return true
}
