package sessiontoken

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yndnr/fp4-go/pkg/crypto/adaptive"
)

const (
	// DefaultAudience is the audience stamped into every session.
	DefaultAudience = "fp4"

	// DefaultTTL is the session lifetime.
	DefaultTTL = 24 * time.Hour

	// MinSecretBytes is the minimum decoded length of the shared secret.
	MinSecretBytes = 16

	signingLabel    = "fp4 session signing v1"
	encryptionLabel = "fp4 session encryption v1"
)

var (
	// ErrInvalidSession is matched by every Verify failure.
	ErrInvalidSession = errors.New("sessiontoken: invalid session")

	// ErrWeakSecret is returned when the secret does not decode to MinSecretBytes.
	ErrWeakSecret = errors.New("sessiontoken: secret must be base64 of at least 16 bytes")
)

// Claims is the JWT payload of a session.
type Claims struct {
	Email  string `json:"email"`
	UserID int64  `json:"user_id"`
	jwt.RegisteredClaims
}

// Subject identifies the account a session is issued for.
type Subject struct {
	Email  string
	UserID int64
}

// Config holds codec settings.
type Config struct {
	// Secret is the base64 shared secret (standard or URL alphabet, padded or raw).
	Secret string
	// Issuer is stamped into iss and required on verify.
	Issuer string
	// Audience defaults to DefaultAudience.
	Audience string
	// TTL defaults to DefaultTTL.
	TTL time.Duration
	// Cipher selects the sealing algorithm; empty picks the platform default.
	Cipher adaptive.CipherType
	// Now defaults to time.Now.
	Now func() time.Time
}

// Codec issues and verifies session tokens. It is safe for concurrent use.
type Codec struct {
	signKey  []byte
	ring     *adaptive.Keyring
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// New creates a codec from cfg.
func New(cfg Config) (*Codec, error) {
	secret, err := DecodeSecret(cfg.Secret)
	if err != nil {
		return nil, err
	}
	if cfg.Issuer == "" {
		return nil, errors.New("sessiontoken: issuer is required")
	}
	if cfg.Audience == "" {
		cfg.Audience = DefaultAudience
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	signKey, err := adaptive.DeriveKey(secret, signingLabel, 32)
	if err != nil {
		return nil, err
	}
	encKey, err := adaptive.DeriveKey(secret, encryptionLabel, adaptive.KeySize)
	if err != nil {
		return nil, err
	}
	ring, err := adaptive.NewKeyring(encKey, cfg.Cipher)
	if err != nil {
		return nil, err
	}

	return &Codec{
		signKey:  signKey,
		ring:     ring,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      cfg.TTL,
		now:      cfg.Now,
	}, nil
}

// TTL returns the session lifetime.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue signs and seals a session for sub. It returns the token and its expiry.
func (c *Codec) Issue(sub Subject) (string, time.Time, error) {
	iat := c.now().Truncate(time.Second)
	exp := iat.Add(c.ttl)

	claims := Claims{
		Email:  sub.Email,
		UserID: sub.UserID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{c.audience},
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.signKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	sealed, err := c.ring.Seal([]byte(signed), []byte(c.audience))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("seal session: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(sealed), exp, nil
}

// Verify opens and validates a token. Every failure matches ErrInvalidSession.
func (c *Codec) Verify(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}
	sealed, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}
	signed, err := c.ring.Open(sealed, []byte(c.audience))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(string(signed), claims,
		func(*jwt.Token) (interface{}, error) { return c.signKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}
	if !parsed.Valid || claims.Email == "" {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

// DecodeSecret decodes a base64 secret and checks its length.
func DecodeSecret(s string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding, base64.RawStdEncoding,
		base64.URLEncoding, base64.RawURLEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil {
			if len(b) < MinSecretBytes {
				return nil, ErrWeakSecret
			}
			return b, nil
		}
	}
	return nil, ErrWeakSecret
}

// GenerateSecret returns standard base64 of 32 random bytes.
func GenerateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
