package token

import "time"

// DefaultMaxAge is the lifetime of a magic link token.
const DefaultMaxAge = 15 * time.Minute

// IsExpired reports whether the token is older than maxAge at now.
//
// Age is computed from the embedded timestamp only. A token that cannot be
// decoded yields ErrMalformedToken, never a false "not expired".
func IsExpired(raw string, maxAge time.Duration, now time.Time) (bool, error) {
	t, err := Parse(raw)
	if err != nil {
		return false, err
	}
	return t.Expired(maxAge, now), nil
}

// Expired reports whether the token is older than maxAge at now.
func (t RawToken) Expired(maxAge time.Duration, now time.Time) bool {
	age := now.UnixMilli() - int64(t.Timestamp())
	return age > maxAge.Milliseconds()
}

// Age returns how long ago the token was created.
func (t RawToken) Age(now time.Time) time.Duration {
	return time.Duration(now.UnixMilli()-int64(t.Timestamp())) * time.Millisecond
}
