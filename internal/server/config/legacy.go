package config

import (
	"fmt"
	"strconv"
)

// ApplyLegacyEnv copies the unprefixed variables of earlier deployments into
// cfg. Only non-empty variables are applied. getenv is usually os.Getenv.
//
//	ALLOWED_DOMAINS     auth.allowed_domains
//	JWT_SECRET          auth.session_secret
//	JWT_ISSUER          auth.issuer
//	NOTIFY_API_KEY      notify.api_key
//	NOTIFY_TEMPLATE_ID  notify.template_id
//	DB_PATH             storage.dsn (sqlite3)
//	PORT                server.http.port
//	HOST                server.http.host
func ApplyLegacyEnv(cfg *ServerConfig, getenv func(string) string) error {
	set := func(name string, dst *string) {
		if v := getenv(name); v != "" {
			*dst = v
		}
	}

	set("ALLOWED_DOMAINS", &cfg.Auth.AllowedDomains)
	set("JWT_SECRET", &cfg.Auth.SessionSecret)
	set("JWT_ISSUER", &cfg.Auth.Issuer)
	set("NOTIFY_API_KEY", &cfg.Notify.APIKey)
	set("NOTIFY_TEMPLATE_ID", &cfg.Notify.TemplateID)
	set("HOST", &cfg.Server.HTTP.Host)

	if v := getenv("DB_PATH"); v != "" {
		cfg.Storage.Driver = "sqlite3"
		cfg.Storage.DSN = v
	}
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		cfg.Server.HTTP.Port = port
	}
	return nil
}
