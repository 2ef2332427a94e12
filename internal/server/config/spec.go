package config

import (
	"net"
	"strconv"
	"strings"
	"time"
)

// ServerConfig is the root configuration for fp4-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Auth    AuthSection    `koanf:"auth"`
	Storage StorageSection `koanf:"storage"`
	Notify  NotifySection  `koanf:"notify"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP            HTTPConfig    `koanf:"http"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Host        string `koanf:"host"`
	Port        int    `koanf:"port"`
	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`

	// TrustProxyHeaders makes X-Forwarded-For and X-Real-IP the client address.
	// Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool `koanf:"trust_proxy_headers"`

	// CORSOrigins is a comma-separated list of allowed origins. Empty disables CORS.
	CORSOrigins string `koanf:"cors_origins"`

	// RateLimitRPS and RateLimitBurst bound requests per client IP across all routes.
	// Zero RPS disables the global limiter.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
}

// Addr returns host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, strconv.Itoa(h.Port))
}

// AllowedOrigins splits CORSOrigins.
func (h HTTPConfig) AllowedOrigins() []string {
	return SplitList(h.CORSOrigins)
}

// AuthSection configures the magic link flow and sessions.
type AuthSection struct {
	// AllowedDomains is the comma-separated email domain allow-list.
	AllowedDomains string `koanf:"allowed_domains"`

	// SessionSecret is the base64 secret for session signing and encryption.
	SessionSecret string `koanf:"session_secret"`
	Issuer        string `koanf:"issuer"`
	Audience      string `koanf:"audience"`
	// Cipher forces the session AEAD (aes-gcm, chacha20-poly1305); empty picks per platform.
	Cipher string `koanf:"cipher"`

	TokenTTL   time.Duration `koanf:"token_ttl"`
	SessionTTL time.Duration `koanf:"session_ttl"`

	Login  LimiterConfig `koanf:"login"`
	Verify LimiterConfig `koanf:"verify"`

	// RateLimitKeyFallback decides how to rate limit a login with no client
	// address: "email" keys by email, "skip" does not limit.
	RateLimitKeyFallback string        `koanf:"rate_limit_key_fallback"`
	SweepInterval        time.Duration `koanf:"sweep_interval"`
}

// LimiterConfig configures one fixed-window limiter.
type LimiterConfig struct {
	Points   int           `koanf:"points"`
	Duration time.Duration `koanf:"duration"`
}

// StorageSection configures the relational store.
type StorageSection struct {
	// Driver is sqlite3, pgx or memory. The memory driver ignores DSN.
	Driver          string        `koanf:"driver"`
	DSN             string        `koanf:"dsn"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

// NotifySection configures login link delivery.
type NotifySection struct {
	// Driver is "notify" for GC Notify or "log" for development.
	Driver     string        `koanf:"driver"`
	BaseURL    string        `koanf:"base_url"`
	APIKey     string        `koanf:"api_key"`
	TemplateID string        `koanf:"template_id"`
	Timeout    time.Duration `koanf:"timeout"`
	// CAFile adds a PEM CA bundle to the system roots for the delivery API.
	CAFile     string        `koanf:"ca_file"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// SplitList splits a comma-separated list, trimming blanks and dropping empties.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
