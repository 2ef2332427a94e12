package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/fp4-go/internal/core/domain"
	"github.com/yndnr/fp4-go/internal/core/service"
	"github.com/yndnr/fp4-go/internal/telemetry/logger"
	"github.com/yndnr/fp4-go/pkg/ratelimit"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// AuthFlow is the part of service.AuthService the handlers use.
type AuthFlow interface {
	Initiate(ctx context.Context, req *service.InitiateRequest) (*service.InitiateResponse, error)
	Redeem(ctx context.Context, req *service.RedeemRequest) (*service.RedeemResult, error)
	SessionCookie(sealed string, expiresAt time.Time) *http.Cookie
}

// Seizures is the part of service.SeizureService the handlers use.
type Seizures interface {
	Report(ctx context.Context, in *domain.SeizureInput) (*domain.Seizure, error)
	List(ctx context.Context, page domain.PageRequest) (*domain.SeizureConnection, error)
	Summary(ctx context.Context) ([]domain.SummaryRow, error)
}

// Config holds handler dependencies.
type Config struct {
	Auth     AuthFlow
	Seizures Seizures
	// Ready reports whether backing storage is reachable. Nil means always ready.
	Ready   func(ctx context.Context) error
	Version string
	Logger  *slog.Logger
}

// Handler serves the fp4 HTTP API.
type Handler struct {
	auth     AuthFlow
	seizures Seizures
	ready    func(ctx context.Context) error
	version  string
	logger   *slog.Logger
}

// New creates a Handler.
func New(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Handler{
		auth:     cfg.Auth,
		seizures: cfg.Seizures,
		ready:    cfg.Ready,
		version:  cfg.Version,
		logger:   cfg.Logger,
	}
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := logger.RequestIDFromContext(r.Context())
	writeEnvelope(w, status, NewResponse(requestID, data), h.logger)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	WriteError(w, r, h.logger, err)
}

// WriteError writes err as an error envelope. Server-side failures are
// logged and answered with a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	requestID := logger.RequestIDFromContext(r.Context())

	var de *domain.DomainError
	if !errors.As(err, &de) {
		de = domain.ErrInternal.WithCause(err)
	}
	status := errorCodeToHTTPStatus(de.Code)

	message := de.Message
	var details any
	if status >= http.StatusInternalServerError {
		if log != nil {
			log.ErrorContext(r.Context(), "request failed",
				"request_id", requestID,
				"code", de.Code,
				"error", err,
			)
		}
		message = domain.ErrInternal.Message
	} else if de.Details != "" {
		details = de.Details
	}

	var exceeded *ratelimit.ExceededError
	if errors.As(err, &exceeded) {
		secs := int(math.Ceil(exceeded.RetryAfter.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
	}

	w.Header().Set("X-Error-Code", de.Code)
	writeEnvelope(w, status, NewErrorResponse(requestID, de.Code, message, details), log)
}

func writeEnvelope(w http.ResponseWriter, status int, resp *Response, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	if resp.RequestID != "" {
		w.Header().Set("X-Request-ID", resp.RequestID)
	}
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil && log != nil {
		log.Error("failed to encode response", "error", err)
	}
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.ErrBadRequest.WithDetails("invalid request body").WithCause(err)
	}
	return nil
}

// errorCodeToHTTPStatus maps error codes to HTTP status codes.
func errorCodeToHTTPStatus(code string) int {
	switch {
	case strings.HasSuffix(code, "-4290"):
		return http.StatusTooManyRequests
	case strings.HasSuffix(code, "-4040"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4090"):
		return http.StatusConflict
	case strings.HasPrefix(code, "FP-AUTH-401"):
		return http.StatusUnauthorized
	case strings.HasPrefix(code, "FP-AUTH-403"):
		return http.StatusForbidden
	case strings.HasPrefix(code, "FP-ARG-"), code == domain.ErrBadRequest.Code:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
