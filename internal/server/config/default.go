package config

import "time"

// Default configuration values.
const (
	DefaultHTTPHost        = "0.0.0.0"
	DefaultHTTPPort        = 3000
	DefaultShutdownTimeout = 15 * time.Second
	DefaultRateLimitRPS    = 20
	DefaultRateLimitBurst  = 40

	DefaultAudience   = "fp4"
	DefaultTokenTTL   = 15 * time.Minute
	DefaultSessionTTL = 24 * time.Hour

	DefaultLimiterPoints   = 5
	DefaultLimiterDuration = 60 * time.Second
	DefaultSweepInterval   = time.Minute
	DefaultKeyFallback     = "email"

	DefaultStorageDriver = "sqlite3"
	DefaultStorageDSN    = "file:fp4.db?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"

	DefaultNotifyDriver  = "notify"
	DefaultNotifyBaseURL = "https://api.notification.canada.ca"
	DefaultNotifyTimeout = 10 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Host:           DefaultHTTPHost,
				Port:           DefaultHTTPPort,
				RateLimitRPS:   DefaultRateLimitRPS,
				RateLimitBurst: DefaultRateLimitBurst,
				ReadTimeout:    10 * time.Second,
				WriteTimeout:   30 * time.Second,
				IdleTimeout:    120 * time.Second,
			},
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Auth: AuthSection{
			Audience:             DefaultAudience,
			TokenTTL:             DefaultTokenTTL,
			SessionTTL:           DefaultSessionTTL,
			Login:                LimiterConfig{Points: DefaultLimiterPoints, Duration: DefaultLimiterDuration},
			Verify:               LimiterConfig{Points: DefaultLimiterPoints, Duration: DefaultLimiterDuration},
			RateLimitKeyFallback: DefaultKeyFallback,
			SweepInterval:        DefaultSweepInterval,
		},
		Storage: StorageSection{
			Driver:       DefaultStorageDriver,
			DSN:          DefaultStorageDSN,
			MaxOpenConns: 10,
			MaxIdleConns: 5,
			AutoMigrate:  true,
		},
		Notify: NotifySection{
			Driver:  DefaultNotifyDriver,
			BaseURL: DefaultNotifyBaseURL,
			Timeout: DefaultNotifyTimeout,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
