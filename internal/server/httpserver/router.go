package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/fp4-go/internal/server/httpserver/handler"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	Handler *handler.Handler

	// Sessions opens the session cookie for the Session middleware.
	Sessions Authenticator

	// Limiter throttles requests per client address. Nil disables throttling.
	Limiter *IPRateLimiter

	// Metrics serves GET /metrics. Nil leaves the route unregistered.
	Metrics http.Handler

	// Observer receives per-request metrics.
	Observer RequestObserver

	Logger *slog.Logger

	// CORSAllowedOrigins is the list of allowed CORS origins (empty = CORS off).
	CORSAllowedOrigins []string

	// TrustProxyHeaders makes X-Forwarded-For and X-Real-IP authoritative.
	TrustProxyHeaders bool
}

// NewRouter creates the HTTP router with all routes and middleware.
//
// Order: Recover -> RequestID -> RealIP -> CORS -> RateLimit -> Session -> Audit -> routes.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	h := cfg.Handler
	authed := RequireSession(log)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ready", h.Ready)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	mux.HandleFunc("POST /auth/login", h.Login)
	mux.HandleFunc("POST /auth/verify", h.Verify)
	mux.HandleFunc("POST /auth/logout", h.Logout)

	mux.Handle("GET /me", authed(http.HandlerFunc(h.Me)))
	mux.Handle("GET /seizures", authed(http.HandlerFunc(h.ListSeizures)))
	mux.Handle("POST /seizures", authed(http.HandlerFunc(h.CreateSeizure)))
	mux.Handle("GET /seizures/summary", authed(http.HandlerFunc(h.SeizureSummary)))

	middlewares := []Middleware{
		Recover(log),
		RequestID(),
		RealIP(cfg.TrustProxyHeaders),
		CORS(cfg.CORSAllowedOrigins),
	}
	if cfg.Limiter != nil {
		middlewares = append(middlewares, RateLimit(cfg.Limiter, log))
	}
	if cfg.Sessions != nil {
		middlewares = append(middlewares, Session(cfg.Sessions, log))
	}
	middlewares = append(middlewares, Audit(log, cfg.Observer))

	return Chain(mux, middlewares...)
}
