package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yndnr/fp4-go/internal/core/domain"
	"github.com/yndnr/fp4-go/internal/notify"
	"github.com/yndnr/fp4-go/pkg/ratelimit"
	"github.com/yndnr/fp4-go/pkg/sessiontoken"
	"github.com/yndnr/fp4-go/pkg/token"
)

// AmbiguousMessage is the only answer to a login request, whatever happened.
const AmbiguousMessage = "If an account exists for this email, a login link has been sent."

// SessionCookieName is the session cookie. The __Host- prefix pins it to the
// exact origin over HTTPS.
const SessionCookieName = "__Host-fp4auth"

// Login outcomes, recorded in logs and metrics but never returned.
const (
	OutcomeRateLimited    = "rate_limited"
	OutcomeNotAllowed     = "not_allowed"
	OutcomeIssued         = "issued"
	OutcomeDeliveryFailed = "delivery_failed"
	OutcomeStorageError   = "storage_error"
)

// Verify outcomes.
const (
	OutcomeRedeemed = "redeemed"
	OutcomeExpired  = "expired"
	OutcomeInvalid  = "invalid"
	OutcomeInternal = "internal_error"
)

// Rate limit fallbacks for requests without a client address.
const (
	FallbackEmail = "email"
	FallbackSkip  = "skip"
)

// CredentialStore persists accounts and token digests.
type CredentialStore interface {
	// FindOrCreateAccount returns the account for email, creating it if needed.
	FindOrCreateAccount(ctx context.Context, email string) (*domain.Account, error)

	// SaveDigest stores a digest for accountID. A duplicate is ErrDigestConflict.
	SaveDigest(ctx context.Context, digest string, accountID int64) error

	// ConsumeDigest deletes the digest and returns its account, or ErrNotFound.
	ConsumeDigest(ctx context.Context, digest string) (*domain.Account, error)

	// DeleteDigest removes the digest if present.
	DeleteDigest(ctx context.Context, digest string) error
}

// Limiter is a fixed-window rate limiter keyed by identity.
type Limiter interface {
	Consume(identity string, points int) error
}

// SessionCodec seals and opens session tokens.
type SessionCodec interface {
	Issue(sub sessiontoken.Subject) (string, time.Time, error)
	Verify(token string) (*sessiontoken.Claims, error)
}

// Recorder receives flow outcomes. *metric.Registry implements it.
type Recorder interface {
	LoginOutcome(outcome string)
	VerifyOutcome(outcome string)
	NotifyFailed()
}

type nopRecorder struct{}

func (nopRecorder) LoginOutcome(string)  {}
func (nopRecorder) VerifyOutcome(string) {}
func (nopRecorder) NotifyFailed()        {}

// AuthServiceConfig holds the AuthService collaborators and settings.
type AuthServiceConfig struct {
	Store         CredentialStore
	AllowList     *AllowList
	LoginLimiter  Limiter
	VerifyLimiter Limiter
	Sessions      SessionCodec
	Sender        notify.Sender

	// Recorder defaults to a no-op.
	Recorder Recorder
	// Logger defaults to slog.Default.
	Logger *slog.Logger

	// TokenTTL is the magic link lifetime (default: 15m).
	TokenTTL time.Duration
	// NotifyTimeout bounds one delivery attempt (default: 10s).
	NotifyTimeout time.Duration
	// KeyFallback is FallbackEmail or FallbackSkip (default: FallbackEmail).
	KeyFallback string

	// Now defaults to time.Now.
	Now func() time.Time
}

// AuthService runs the magic link flow: issue a link, redeem it for a
// session, and authenticate later requests from the session cookie.
type AuthService struct {
	store         CredentialStore
	allow         *AllowList
	loginLimiter  Limiter
	verifyLimiter Limiter
	sessions      SessionCodec
	sender        notify.Sender
	recorder      Recorder
	log           *slog.Logger
	tokenTTL      time.Duration
	notifyTimeout time.Duration
	keyFallback   string
	now           func() time.Time
}

// NewAuthService creates an AuthService. Store, AllowList, both limiters,
// Sessions and Sender are required.
func NewAuthService(cfg AuthServiceConfig) (*AuthService, error) {
	if cfg.Store == nil || cfg.AllowList == nil || cfg.LoginLimiter == nil ||
		cfg.VerifyLimiter == nil || cfg.Sessions == nil || cfg.Sender == nil {
		return nil, errors.New("service: incomplete auth service config")
	}
	s := &AuthService{
		store:         cfg.Store,
		allow:         cfg.AllowList,
		loginLimiter:  cfg.LoginLimiter,
		verifyLimiter: cfg.VerifyLimiter,
		sessions:      cfg.Sessions,
		sender:        cfg.Sender,
		recorder:      cfg.Recorder,
		log:           cfg.Logger,
		tokenTTL:      cfg.TokenTTL,
		notifyTimeout: cfg.NotifyTimeout,
		keyFallback:   cfg.KeyFallback,
		now:           cfg.Now,
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.tokenTTL <= 0 {
		s.tokenTTL = token.DefaultMaxAge
	}
	if s.notifyTimeout <= 0 {
		s.notifyTimeout = 10 * time.Second
	}
	switch s.keyFallback {
	case FallbackEmail, FallbackSkip:
	case "":
		s.keyFallback = FallbackEmail
	default:
		return nil, errors.New("service: unknown rate limit key fallback " + s.keyFallback)
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// InitiateRequest asks for a login link.
type InitiateRequest struct {
	Email      string
	RemoteAddr string
}

// InitiateResponse carries the ambiguous answer. Outcome is for the caller's
// audit trail only and must not reach the client.
type InitiateResponse struct {
	Message string
	Outcome string
}

// Initiate issues a login link to email when its domain is allowed.
// The only error is ErrRateLimited; every other failure is logged and
// answered with AmbiguousMessage.
func (s *AuthService) Initiate(ctx context.Context, req *InitiateRequest) (*InitiateResponse, error) {
	email := strings.TrimSpace(req.Email)
	log := s.log.With("email", email, "remote_addr", req.RemoteAddr)

	if key, ok := s.limitKey(req.RemoteAddr, email); ok {
		if err := s.loginLimiter.Consume(key, 1); err != nil {
			s.recorder.LoginOutcome(OutcomeRateLimited)
			log.WarnContext(ctx, "login rate limited", "outcome", OutcomeRateLimited)
			return nil, domain.ErrRateLimited.WithCause(err)
		}
	}

	resp := &InitiateResponse{Message: AmbiguousMessage}
	done := func(outcome string) (*InitiateResponse, error) {
		s.recorder.LoginOutcome(outcome)
		resp.Outcome = outcome
		return resp, nil
	}

	if !s.allow.IsAllowed(email) {
		log.InfoContext(ctx, "login refused", "outcome", OutcomeNotAllowed)
		return done(OutcomeNotAllowed)
	}

	account, err := s.store.FindOrCreateAccount(ctx, email)
	if err != nil {
		log.ErrorContext(ctx, "find or create account failed", "outcome", OutcomeStorageError, "error", err)
		return done(OutcomeStorageError)
	}

	raw, err := token.GenerateAt(s.now())
	if err != nil {
		log.ErrorContext(ctx, "generate token failed", "outcome", OutcomeStorageError, "error", err)
		return done(OutcomeStorageError)
	}
	digest := token.Digest(raw.String())

	if err := s.store.SaveDigest(ctx, digest, account.ID); err != nil {
		log.ErrorContext(ctx, "save digest failed", "outcome", OutcomeStorageError, "token_digest", digest, "error", err)
		return done(OutcomeStorageError)
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()
	if err := s.sender.Send(sendCtx, email, notify.Personalisation{Code: raw.String()}); err != nil {
		s.recorder.NotifyFailed()
		log.ErrorContext(ctx, "login link delivery failed", "outcome", OutcomeDeliveryFailed, "token_digest", digest, "error", err)
		return done(OutcomeDeliveryFailed)
	}

	log.InfoContext(ctx, "login link issued", "outcome", OutcomeIssued, "account_id", account.ID, "token_digest", digest)
	return done(OutcomeIssued)
}

// limitKey picks the limiter identity. ok is false when limiting is skipped.
func (s *AuthService) limitKey(remoteAddr, email string) (string, bool) {
	if remoteAddr != "" {
		return remoteAddr, true
	}
	if s.keyFallback == FallbackSkip {
		return "", false
	}
	return "email:" + strings.ToLower(email), true
}

// RedeemRequest exchanges a login token for a session.
type RedeemRequest struct {
	Token      string
	RemoteAddr string
}

// RedeemResult is a freshly issued session.
type RedeemResult struct {
	Token     string
	Session   *domain.Identity
	ExpiresAt time.Time
	Account   *domain.Account
}

// Redeem consumes a login token and issues a session for its account.
// Errors are ErrRateLimited, ErrExpiredToken, ErrInvalidToken and ErrStorage.
func (s *AuthService) Redeem(ctx context.Context, req *RedeemRequest) (*RedeemResult, error) {
	log := s.log.With("remote_addr", req.RemoteAddr)

	if req.RemoteAddr != "" {
		if err := s.verifyLimiter.Consume(req.RemoteAddr, 1); err != nil {
			s.recorder.VerifyOutcome(OutcomeRateLimited)
			log.WarnContext(ctx, "verify rate limited", "outcome", OutcomeRateLimited)
			return nil, domain.ErrRateLimited.WithCause(err)
		}
	}

	raw, err := token.Parse(strings.TrimSpace(req.Token))
	if err != nil {
		s.recorder.VerifyOutcome(OutcomeInvalid)
		log.InfoContext(ctx, "malformed login token", "outcome", OutcomeInvalid)
		return nil, domain.ErrInvalidToken.WithCause(err)
	}
	digest := token.Digest(raw.String())
	log = log.With("token_digest", digest)

	if raw.Expired(s.tokenTTL, s.now()) {
		if err := s.store.DeleteDigest(ctx, digest); err != nil {
			log.WarnContext(ctx, "delete expired digest failed", "error", err)
		}
		s.recorder.VerifyOutcome(OutcomeExpired)
		log.InfoContext(ctx, "expired login token", "outcome", OutcomeExpired, "age", raw.Age(s.now()))
		return nil, domain.ErrExpiredToken
	}

	account, err := s.store.ConsumeDigest(ctx, digest)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.recorder.VerifyOutcome(OutcomeInvalid)
			log.InfoContext(ctx, "unknown login token", "outcome", OutcomeInvalid)
			return nil, domain.ErrInvalidToken
		}
		s.recorder.VerifyOutcome(OutcomeStorageError)
		log.ErrorContext(ctx, "consume digest failed", "outcome", OutcomeStorageError, "error", err)
		return nil, asStorageError(err)
	}

	sealed, expiresAt, err := s.sessions.Issue(sessiontoken.Subject{Email: account.Email, UserID: account.ID})
	if err != nil {
		s.recorder.VerifyOutcome(OutcomeInternal)
		log.ErrorContext(ctx, "issue session failed", "error", err)
		return nil, domain.ErrInternal.WithCause(err)
	}
	claims, err := s.sessions.Verify(sealed)
	if err != nil {
		s.recorder.VerifyOutcome(OutcomeInternal)
		log.ErrorContext(ctx, "issued session does not verify", "error", err)
		return nil, domain.ErrInternal.WithCause(err)
	}

	s.recorder.VerifyOutcome(OutcomeRedeemed)
	log.InfoContext(ctx, "login token redeemed", "outcome", OutcomeRedeemed, "account_id", account.ID)

	return &RedeemResult{
		Token:     sealed,
		Session:   identityFromClaims(claims),
		ExpiresAt: expiresAt,
		Account:   account,
	}, nil
}

// Authenticate opens a session cookie value. Any failure is ErrSessionInvalid.
func (s *AuthService) Authenticate(_ context.Context, cookieValue string) (*domain.Identity, error) {
	if cookieValue == "" {
		return nil, domain.ErrSessionInvalid
	}
	claims, err := s.sessions.Verify(cookieValue)
	if err != nil {
		return nil, domain.ErrSessionInvalid.WithCause(err)
	}
	return identityFromClaims(claims), nil
}

func identityFromClaims(claims *sessiontoken.Claims) *domain.Identity {
	id := &domain.Identity{
		AccountID: claims.UserID,
		Email:     claims.Email,
		Issuer:    claims.Issuer,
	}
	if claims.IssuedAt != nil {
		id.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id
}

// SessionCookie builds the session cookie for a sealed token.
func (s *AuthService) SessionCookie(sealed string, expiresAt time.Time) *http.Cookie {
	maxAge := int(expiresAt.Sub(s.now()).Seconds())
	if maxAge < 1 {
		maxAge = -1
	}
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    sealed,
		Path:     "/",
		Expires:  expiresAt.UTC(),
		MaxAge:   maxAge,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearSessionCookie builds a cookie that deletes the session cookie.
func ClearSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func asStorageError(err error) error {
	if domain.IsDomainError(err, domain.ErrStorage.Code) {
		return err
	}
	return domain.ErrStorage.WithCause(err)
}

var _ Limiter = (*ratelimit.Limiter)(nil)
