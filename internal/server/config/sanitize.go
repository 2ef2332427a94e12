package config

import (
	"net/url"
	"strings"
)

// Sanitize returns a copy of the config with sensitive fields masked.
//
// This is used for logging configuration without exposing secrets.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg

	if sanitized.Auth.SessionSecret != "" {
		sanitized.Auth.SessionSecret = maskSecret(sanitized.Auth.SessionSecret)
	}
	if sanitized.Notify.APIKey != "" {
		sanitized.Notify.APIKey = maskSecret(sanitized.Notify.APIKey)
	}
	sanitized.Storage.DSN = maskDSN(sanitized.Storage.DSN)

	return &sanitized
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}

// maskDSN hides the password of URL-style DSNs.
func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "****")
	}
	return u.String()
}
