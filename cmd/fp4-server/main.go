package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/yndnr/fp4-go/internal/core/service"
	"github.com/yndnr/fp4-go/internal/infra/buildinfo"
	"github.com/yndnr/fp4-go/internal/infra/confloader"
	"github.com/yndnr/fp4-go/internal/infra/shutdown"
	"github.com/yndnr/fp4-go/internal/infra/tlsroots"
	"github.com/yndnr/fp4-go/internal/notify"
	"github.com/yndnr/fp4-go/internal/server/config"
	"github.com/yndnr/fp4-go/internal/server/httpserver"
	"github.com/yndnr/fp4-go/internal/server/httpserver/handler"
	"github.com/yndnr/fp4-go/internal/storage/memory"
	"github.com/yndnr/fp4-go/internal/storage/sqlstore"
	"github.com/yndnr/fp4-go/internal/telemetry/logger"
	"github.com/yndnr/fp4-go/internal/telemetry/metric"
	"github.com/yndnr/fp4-go/pkg/crypto/adaptive"
	"github.com/yndnr/fp4-go/pkg/ratelimit"
	"github.com/yndnr/fp4-go/pkg/sessiontoken"
)

// httpLimiterIdle is how long an address stays tracked by the global limiter.
const httpLimiterIdle = 10 * time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
		overrides   []confloader.Option
	)
	flag.Func("set", "Override a config key, e.g. -set server.http.port=8443 (repeatable)", func(arg string) error {
		key, value, err := confloader.ParseOverride(arg)
		if err != nil {
			return err
		}
		overrides = append(overrides, confloader.WithOverride(key, value))
		return nil
	})
	flag.Parse()

	if *showVersion {
		fmt.Printf("fp4-server %s\n", buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile, overrides...)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	info := buildinfo.Get()
	log.Info("starting fp4-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", *configFile,
		"settings", config.Sanitize(cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownHandler := shutdown.NewHandler(cfg.Server.ShutdownTimeout)
	// Releases what was started when run fails before Wait; a no-op afterwards.
	defer func() { _ = shutdownHandler.Shutdown() }()
	metrics := metric.NewRegistry()

	store, err := initStorage(ctx, cfg, log, metrics, shutdownHandler)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	allowList := service.NewAllowList(cfg.Auth.AllowedDomains)
	if allowList.Len() == 0 {
		log.Warn("email domain allow-list is empty, no login links will be sent")
	}

	loginLimiter := ratelimit.New("login", cfg.Auth.Login.Points, cfg.Auth.Login.Duration)
	verifyLimiter := ratelimit.New("verify", cfg.Auth.Verify.Points, cfg.Auth.Verify.Duration)
	httpLimiter := httpserver.NewIPRateLimiter(cfg.Server.HTTP.RateLimitRPS, cfg.Server.HTTP.RateLimitBurst)

	for _, l := range []*ratelimit.Limiter{loginLimiter, verifyLimiter} {
		go l.Run(ctx, cfg.Auth.SweepInterval, func(live int) {
			metrics.RateLimitWindows(l.Name(), live)
		})
	}
	go httpLimiter.Run(ctx, cfg.Auth.SweepInterval, httpLimiterIdle, func(live int) {
		metrics.RateLimitWindows("http", live)
	})

	sessions, err := sessiontoken.New(sessiontoken.Config{
		Secret:   cfg.Auth.SessionSecret,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
		TTL:      cfg.Auth.SessionTTL,
		Cipher:   adaptive.CipherType(cfg.Auth.Cipher),
	})
	if err != nil {
		return fmt.Errorf("init session codec: %w", err)
	}

	sender, err := initSender(cfg, log)
	if err != nil {
		return fmt.Errorf("init notify: %w", err)
	}

	authSvc, err := service.NewAuthService(service.AuthServiceConfig{
		Store:         store,
		AllowList:     allowList,
		LoginLimiter:  loginLimiter,
		VerifyLimiter: verifyLimiter,
		Sessions:      sessions,
		Sender:        sender,
		Recorder:      metrics,
		Logger:        log,
		TokenTTL:      cfg.Auth.TokenTTL,
		NotifyTimeout: cfg.Notify.Timeout,
		KeyFallback:   cfg.Auth.RateLimitKeyFallback,
	})
	if err != nil {
		return fmt.Errorf("init auth service: %w", err)
	}
	seizureSvc := service.NewSeizureService(store, log)

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Handler: handler.New(handler.Config{
			Auth:     authSvc,
			Seizures: seizureSvc,
			Ready:    store.Ready,
			Version:  info.Version,
			Logger:   log,
		}),
		Sessions:           authSvc,
		Limiter:            rateLimiterOrNil(cfg, httpLimiter),
		Metrics:            metrics.Handler(),
		Observer:           metrics,
		Logger:             log,
		CORSAllowedOrigins: cfg.Server.HTTP.AllowedOrigins(),
		TrustProxyHeaders:  cfg.Server.HTTP.TrustProxyHeaders,
	})

	serverTLS, err := initServerTLS(ctx, cfg, metrics, log)
	if err != nil {
		return err
	}

	httpServer := httpserver.New(httpserver.Config{
		Addr:         cfg.Server.HTTP.Addr(),
		TLSConfig:    serverTLS,
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
		IdleTimeout:  cfg.Server.HTTP.IdleTimeout,
	}, router)

	ln, err := net.Listen("tcp", cfg.Server.HTTP.Addr())
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	// Hooks run in reverse order: the listener stops before storage closes.
	shutdownHandler.OnShutdown(func(context.Context) error {
		cancel()
		return nil
	})
	if *configFile != "" {
		watcher, err := watchConfig(*configFile, overrides, allowList, log)
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			shutdownHandler.OnClose(watcher.Stop)
		}
	}
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return httpServer.Shutdown(ctx)
	})

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", ln.Addr().String(), "tls", httpServer.TLS())
		serveErr <- httpServer.Serve(ln)
	}()

	waitCtx, stopWait := context.WithCancel(context.Background())
	defer stopWait()
	go func() {
		if err := <-serveErr; err != nil {
			log.Error("HTTP server error", "error", err)
			stopWait()
		}
	}()

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(waitCtx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig layers defaults, legacy environment variables, the config
// file, FP4_* environment variables and -set overrides, then validates the result.
func loadConfig(configFile string, overrides ...confloader.Option) (*config.ServerConfig, error) {
	cfg := config.Default()

	if err := config.ApplyLegacyEnv(cfg, os.Getenv); err != nil {
		return nil, err
	}

	opts := append([]confloader.Option(nil), overrides...)
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// initLogger initializes the structured logger and makes it the default.
func initLogger(cfg *config.ServerConfig) (*slog.Logger, error) {
	l, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(l)
	return logger.Slog(l), nil
}

// backend is a storage driver with its readiness probe.
type backend interface {
	service.CredentialStore
	service.SeizureRepository
	Ready(ctx context.Context) error
}

type sqlBackend struct{ *sqlstore.Store }

func (b sqlBackend) Ready(ctx context.Context) error { return b.Ping(ctx) }

type memoryBackend struct{ *memory.Store }

func (memoryBackend) Ready(context.Context) error { return nil }

func initStorage(ctx context.Context, cfg *config.ServerConfig, log *slog.Logger, metrics *metric.Registry, sh *shutdown.Handler) (backend, error) {
	if cfg.Storage.Driver == "memory" {
		log.Warn("using in-memory storage, data is lost on restart")
		return memoryBackend{memory.New()}, nil
	}

	store, err := sqlstore.Open(ctx, sqlstore.Config{
		Driver:          cfg.Storage.Driver,
		DSN:             cfg.Storage.DSN,
		MaxOpenConns:    cfg.Storage.MaxOpenConns,
		MaxIdleConns:    cfg.Storage.MaxIdleConns,
		ConnMaxLifetime: cfg.Storage.ConnMaxLifetime,
	}, log)
	if err != nil {
		return nil, err
	}
	sh.OnClose(func() error {
		log.Info("closing database")
		return store.Close()
	})

	if cfg.Storage.AutoMigrate {
		applied, err := store.Migrate(ctx)
		if err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info("database migrated", "driver", store.Driver(), "applied", applied)
	}

	metrics.MustRegister(metric.NewDBStatsCollector(store.Driver(), store.Stats))
	return sqlBackend{store}, nil
}

func initSender(cfg *config.ServerConfig, log *slog.Logger) (notify.Sender, error) {
	if cfg.Notify.Driver == "log" {
		log.Warn("login links are logged, not delivered")
		return notify.NewLogSender(log), nil
	}
	var caFiles []string
	if cfg.Notify.CAFile != "" {
		caFiles = append(caFiles, cfg.Notify.CAFile)
	}
	tlsCfg, err := tlsroots.ClientConfig(caFiles...)
	if err != nil {
		return nil, err
	}
	return notify.NewClient(notify.ClientConfig{
		BaseURL:    cfg.Notify.BaseURL,
		APIKey:     cfg.Notify.APIKey,
		TemplateID: cfg.Notify.TemplateID,
		Timeout:    cfg.Notify.Timeout,
		TLSConfig:  tlsCfg,
	})
}

// initServerTLS returns nil when the listener serves plain HTTP. Otherwise
// the certificate is reloaded from disk whenever it changes until ctx ends.
func initServerTLS(ctx context.Context, cfg *config.ServerConfig, metrics *metric.Registry, log *slog.Logger) (*tls.Config, error) {
	certFile, keyFile := cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile
	if certFile == "" || keyFile == "" {
		return nil, nil
	}
	reloader, err := tlsroots.NewCertReloader(certFile, keyFile,
		tlsroots.WithLogger(log),
		tlsroots.WithReloadHook(metrics.CertReloaded),
	)
	if err != nil {
		return nil, err
	}
	go func() {
		if err := reloader.Run(ctx); err != nil {
			log.Warn("certificate hot reload disabled", "error", err)
		}
	}()
	return reloader.ServerConfig(), nil
}

func rateLimiterOrNil(cfg *config.ServerConfig, l *httpserver.IPRateLimiter) *httpserver.IPRateLimiter {
	if cfg.Server.HTTP.RateLimitRPS <= 0 {
		return nil
	}
	return l
}

// watchConfig reloads the allow-list and log level when the file changes.
// Other settings need a restart.
func watchConfig(path string, overrides []confloader.Option, allowList *service.AllowList, log *slog.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		_ = w.Stop()
		return nil, err
	}

	w.OnChange(func(string) {
		cfg, err := loadConfig(path, overrides...)
		if err != nil {
			log.Error("config reload rejected", "error", err)
			return
		}
		allowList.Reload(cfg.Auth.AllowedDomains)
		logger.SetLevel(cfg.Log.Level)
		log.Info("config reloaded",
			"allowed_domains", allowList.Len(),
			"log_level", logger.GetLevel())
	})
	w.StartAsync()
	return w, nil
}
