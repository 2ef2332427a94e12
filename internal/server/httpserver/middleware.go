package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/yndnr/fp4-go/internal/core/domain"
	"github.com/yndnr/fp4-go/internal/core/service"
	"github.com/yndnr/fp4-go/internal/server/httpserver/handler"
	"github.com/yndnr/fp4-go/internal/telemetry/logger"
)

type contextKey string

// ContextKeyStartTime is the context key for request start time.
const ContextKeyStartTime contextKey = "start_time"

// Middleware wraps an http.Handler with additional functionality.
type Middleware func(http.Handler) http.Handler

// Chain chains multiple middlewares together. The first middleware runs first.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// Authenticator opens session cookies.
type Authenticator interface {
	Authenticate(ctx context.Context, cookieValue string) (*domain.Identity, error)
}

// RequestObserver records per-request metrics.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// RequestID adds a unique request ID to each request.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" || len(requestID) > 128 {
				requestID = "req-" + uuid.NewString()
			}

			w.Header().Set("X-Request-ID", requestID)

			ctx := logger.WithRequestID(r.Context(), requestID)
			ctx = context.WithValue(ctx, ContextKeyStartTime, time.Now())

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RealIP resolves the client address once and stores it in the context.
func RealIP(trustProxy bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := handler.WithClientIP(r.Context(), handler.ClientIP(r, trustProxy))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CORS adds Cross-Origin Resource Sharing headers for allowedOrigins.
// An empty list disables CORS handling.
func CORS(allowedOrigins []string) Middleware {
	if len(allowedOrigins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Error-Code", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// RateLimit applies the per-address limiter.
func RateLimit(l *IPRateLimiter, log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := handler.ClientIPFromContext(r.Context())
			if ip == "" {
				ip = handler.ClientIP(r, false)
			}
			if !l.Allow(ip) {
				w.Header().Set("Retry-After", "1")
				handler.WriteError(w, r, log, domain.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Session decodes the session cookie into the request identity. A cookie
// that fails verification is cleared and the request continues anonymously.
func Session(auth Authenticator, log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(service.SessionCookieName)
			if err != nil || c.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			id, err := auth.Authenticate(r.Context(), c.Value)
			if err != nil {
				log.DebugContext(r.Context(), "session cookie rejected", "error", err)
				http.SetCookie(w, service.ClearSessionCookie())
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(domain.WithIdentity(r.Context(), id)))
		})
	}
}

// RequireSession rejects anonymous requests with ErrUnauthenticated.
func RequireSession(log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if domain.IdentityFromContext(r.Context()) == nil {
				handler.WriteError(w, r, log, domain.ErrUnauthenticated)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Audit logs each request and reports it to obs when set.
func Audit(log *slog.Logger, obs RequestObserver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			startTime, ok := r.Context().Value(ContextKeyStartTime).(time.Time)
			if !ok {
				startTime = time.Now()
			}
			duration := time.Since(startTime)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			if obs != nil {
				obs.ObserveRequest(r.Method, route, wrapped.statusCode, duration)
			}

			attrs := []any{
				"method", r.Method,
				"route", route,
				"status", wrapped.statusCode,
				"duration_ms", duration.Milliseconds(),
				"client_ip", handler.ClientIPFromContext(r.Context()),
			}
			if id := domain.IdentityFromContext(r.Context()); id != nil {
				attrs = append(attrs, "account_id", id.AccountID)
			}

			ctx := r.Context()
			switch {
			case wrapped.statusCode >= 500:
				log.ErrorContext(ctx, "request completed with error", attrs...)
			case wrapped.statusCode >= 400:
				log.WarnContext(ctx, "request completed with client error", attrs...)
			default:
				log.InfoContext(ctx, "request completed", attrs...)
			}
		})
	}
}

// Recover recovers from panics and returns 500 error.
func Recover(log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log.ErrorContext(r.Context(), "panic recovered",
						"panic", rec,
						"path", r.URL.Path,
					)
					handler.WriteError(w, r, nil, domain.ErrInternal)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.statusCode = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
