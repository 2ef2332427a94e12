package sessiontoken

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yndnr/fp4-go/pkg/crypto/adaptive"
)

const testSecret = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=" // 32 bytes

func newTestCodec(t *testing.T, now func() time.Time) *Codec {
	t.Helper()
	c, err := New(Config{Secret: testSecret, Issuer: "fp4-test", Now: now})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestIssueVerify(t *testing.T) {
	issued := time.Date(2025, 9, 16, 12, 0, 0, 0, time.UTC)
	c := newTestCodec(t, func() time.Time { return issued })

	tok, exp, err := c.Issue(Subject{Email: "agent@rcmp.ca", UserID: 42})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if !exp.Equal(issued.Add(24 * time.Hour)) {
		t.Errorf("expiresAt = %v, want %v", exp, issued.Add(24*time.Hour))
	}
	if strings.Contains(tok, "agent") || strings.Count(tok, ".") != 0 {
		t.Error("token must not expose claims or a JWS structure")
	}

	claims, err := c.Verify(tok)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.Email != "agent@rcmp.ca" || claims.UserID != 42 {
		t.Errorf("claims = %+v", claims)
	}
	if claims.Issuer != "fp4-test" {
		t.Errorf("iss = %q", claims.Issuer)
	}
	if len(claims.Audience) != 1 || claims.Audience[0] != DefaultAudience {
		t.Errorf("aud = %v", claims.Audience)
	}
	if !claims.IssuedAt.Time.Equal(issued) {
		t.Errorf("iat = %v", claims.IssuedAt.Time)
	}
}

func TestVerify_Expired(t *testing.T) {
	now := time.Date(2025, 9, 16, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := newTestCodec(t, clock)

	tok, _, err := c.Issue(Subject{Email: "a@example.com", UserID: 1})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	now = now.Add(24*time.Hour + time.Second)
	_, err = c.Verify(tok)
	if !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("Verify() error = %v, want ErrInvalidSession", err)
	}
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Errorf("Verify() error = %v, want cause jwt.ErrTokenExpired", err)
	}
}

func TestVerify_Rejects(t *testing.T) {
	c := newTestCodec(t, nil)
	tok, _, err := c.Issue(Subject{Email: "a@example.com", UserID: 1})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	otherIssuer, _ := New(Config{Secret: testSecret, Issuer: "someone-else"})
	otherSecret, _ := New(Config{Secret: base64.StdEncoding.EncodeToString([]byte("a-completely-different-secret!!")), Issuer: "fp4-test"})

	raw, _ := base64.RawURLEncoding.DecodeString(tok)
	raw[len(raw)-1] ^= 0x01
	tampered := base64.RawURLEncoding.EncodeToString(raw)

	tests := []struct {
		name  string
		codec *Codec
		token string
	}{
		{"empty", c, ""},
		{"not base64", c, "%%%"},
		{"garbage", c, base64.RawURLEncoding.EncodeToString([]byte("garbage"))},
		{"tampered", c, tampered},
		{"wrong issuer", otherIssuer, tok},
		{"wrong secret", otherSecret, tok},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.codec.Verify(tt.token); !errors.Is(err, ErrInvalidSession) {
				t.Errorf("Verify() error = %v, want ErrInvalidSession", err)
			}
		})
	}
}

func TestVerify_RejectsOtherAlgorithm(t *testing.T) {
	c := newTestCodec(t, nil)

	// A token signed with "none" and sealed with the right key must still fail.
	now := time.Now()
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Email: "a@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "fp4-test",
			Audience:  jwt.ClaimStrings{DefaultAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	sealed, err := c.ring.Seal([]byte(unsigned), []byte(DefaultAudience))
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}

	if _, err := c.Verify(base64.RawURLEncoding.EncodeToString(sealed)); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Verify() error = %v, want ErrInvalidSession", err)
	}
}

func TestVerify_AcrossCipherPreference(t *testing.T) {
	a, err := New(Config{Secret: testSecret, Issuer: "fp4", Cipher: adaptive.CipherAESGCM})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	b, err := New(Config{Secret: testSecret, Issuer: "fp4", Cipher: adaptive.CipherChaCha20})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	tok, _, _ := a.Issue(Subject{Email: "a@example.com", UserID: 1})
	if _, err := b.Verify(tok); err != nil {
		t.Errorf("Verify() across cipher preference error = %v", err)
	}
}

func TestNew_Config(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"missing secret", Config{Issuer: "fp4"}, ErrWeakSecret},
		{"short secret", Config{Secret: base64.StdEncoding.EncodeToString([]byte("short")), Issuer: "fp4"}, ErrWeakSecret},
		{"not base64", Config{Secret: "not base64!", Issuer: "fp4"}, ErrWeakSecret},
		{"missing issuer", Config{Secret: testSecret}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if err == nil {
				t.Fatal("New() expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("New() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeSecret_Encodings(t *testing.T) {
	raw := []byte("0123456789abcdef0123")
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		got, err := DecodeSecret(enc.EncodeToString(raw))
		if err != nil {
			t.Fatalf("DecodeSecret() error = %v", err)
		}
		if string(got) != string(raw) {
			t.Errorf("DecodeSecret() = %q", got)
		}
	}
}

func TestGenerateSecret(t *testing.T) {
	s, err := GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret() error = %v", err)
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		t.Fatalf("secret is not standard base64: %v", err)
	}
	if len(b) != 32 {
		t.Errorf("decoded length = %d, want 32", len(b))
	}
	if _, err := New(Config{Secret: s, Issuer: "fp4"}); err != nil {
		t.Errorf("generated secret rejected: %v", err)
	}
}
