package token

import (
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Length is the encoded length of a token.
const Length = ulid.EncodedSize

// ErrMalformedToken is returned when a string is not a well-formed token.
var ErrMalformedToken = errors.New("token: malformed")

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// RawToken is a parsed magic link token.
type RawToken struct {
	id ulid.ULID
}

// String returns the canonical upper case encoding.
func (t RawToken) String() string { return t.id.String() }

// Timestamp returns the embedded creation time in Unix milliseconds.
func (t RawToken) Timestamp() uint64 { return t.id.Time() }

// Time returns the embedded creation time.
func (t RawToken) Time() time.Time { return ulid.Time(t.id.Time()) }

// IsZero reports whether t holds no token.
func (t RawToken) IsZero() bool { return t.id == ulid.ULID{} }

// Generate returns a new token stamped with the current time.
//
// Tokens generated by one process are strictly increasing, including those
// created within the same millisecond.
func Generate() (RawToken, error) {
	return GenerateAt(time.Now())
}

// GenerateAt returns a new token stamped with the given time.
func GenerateAt(now time.Time) (RawToken, error) {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	id, err := ulid.New(ulid.Timestamp(now), entropy)
	if err != nil {
		return RawToken{}, err
	}
	return RawToken{id: id}, nil
}

// Parse decodes a token. Lower case input is accepted and normalised.
func Parse(s string) (RawToken, error) {
	if len(s) != Length {
		return RawToken{}, ErrMalformedToken
	}
	id, err := ulid.ParseStrict(strings.ToUpper(s))
	if err != nil {
		return RawToken{}, ErrMalformedToken
	}
	return RawToken{id: id}, nil
}
