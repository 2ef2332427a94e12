package domain

import (
	"context"
	"time"
)

// Account is a user known to the system, keyed by a unique email address.
type Account struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Identity is the authenticated caller, as carried by a session cookie.
type Identity struct {
	AccountID int64     `json:"user_id"`
	Email     string    `json:"email"`
	Issuer    string    `json:"iss"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

type identityKey struct{}

// WithIdentity stores the authenticated identity in the context.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the authenticated identity, or nil for anonymous requests.
func IdentityFromContext(ctx context.Context) *Identity {
	if id, ok := ctx.Value(identityKey{}).(*Identity); ok {
		return id
	}
	return nil
}

// RequireIdentity returns the identity from the context or ErrUnauthenticated.
func RequireIdentity(ctx context.Context) (*Identity, error) {
	id := IdentityFromContext(ctx)
	if id == nil {
		return nil, ErrUnauthenticated
	}
	return id, nil
}
