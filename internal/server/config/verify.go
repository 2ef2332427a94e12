package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yndnr/fp4-go/pkg/crypto/adaptive"
	"github.com/yndnr/fp4-go/pkg/sessiontoken"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyAuth(&cfg.Auth); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	return verifyNotify(&cfg.Notify)
}

func verifyServer(cfg *ServerSection) error {
	if cfg.HTTP.Port < 1 || cfg.HTTP.Port > 65535 {
		return fmt.Errorf("server.http.port %d out of range", cfg.HTTP.Port)
	}
	if (cfg.HTTP.TLSCertFile == "") != (cfg.HTTP.TLSKeyFile == "") {
		return errors.New("server.http.tls_cert_file and tls_key_file must be set together")
	}
	if cfg.HTTP.RateLimitRPS < 0 {
		return errors.New("server.http.rate_limit_rps must not be negative")
	}
	return nil
}

func verifyAuth(cfg *AuthSection) error {
	if len(SplitList(cfg.AllowedDomains)) == 0 {
		return errors.New("auth.allowed_domains is required")
	}
	if cfg.SessionSecret == "" {
		return errors.New("auth.session_secret is required")
	}
	if _, err := sessiontoken.DecodeSecret(cfg.SessionSecret); err != nil {
		return fmt.Errorf("auth.session_secret: %w", err)
	}
	if cfg.Issuer == "" {
		return errors.New("auth.issuer is required")
	}
	switch adaptive.CipherType(cfg.Cipher) {
	case "", adaptive.CipherAESGCM, adaptive.CipherChaCha20:
	default:
		return fmt.Errorf("auth.cipher %q is not supported", cfg.Cipher)
	}
	if cfg.TokenTTL <= 0 || cfg.SessionTTL <= 0 {
		return errors.New("auth.token_ttl and auth.session_ttl must be positive")
	}
	for name, l := range map[string]LimiterConfig{"login": cfg.Login, "verify": cfg.Verify} {
		if l.Points < 1 || l.Duration <= 0 {
			return fmt.Errorf("auth.%s needs points >= 1 and a positive duration", name)
		}
	}
	switch cfg.RateLimitKeyFallback {
	case "email", "skip":
	default:
		return fmt.Errorf("auth.rate_limit_key_fallback %q must be email or skip", cfg.RateLimitKeyFallback)
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	switch cfg.Driver {
	case "memory":
		return nil
	case "sqlite3", "pgx":
	default:
		return fmt.Errorf("storage.driver %q must be sqlite3, pgx or memory", cfg.Driver)
	}
	if strings.TrimSpace(cfg.DSN) == "" {
		return errors.New("storage.dsn is required")
	}
	return nil
}

func verifyNotify(cfg *NotifySection) error {
	switch cfg.Driver {
	case "log":
		return nil
	case "notify":
		if cfg.APIKey == "" {
			return errors.New("notify.api_key is required")
		}
		if cfg.TemplateID == "" {
			return errors.New("notify.template_id is required")
		}
		if cfg.BaseURL == "" {
			return errors.New("notify.base_url is required")
		}
		return nil
	default:
		return fmt.Errorf("notify.driver %q must be notify or log", cfg.Driver)
	}
}
