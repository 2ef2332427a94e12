package adaptive

import (
	"crypto/sha256"
	"errors"
	"io"
	"runtime"

	"golang.org/x/crypto/hkdf"
)

// CipherType identifies the cipher algorithm.
type CipherType string

const (
	CipherAESGCM   CipherType = "aes-gcm"
	CipherChaCha20 CipherType = "chacha20-poly1305"
)

// KeySize is the key length used by Keyring for both algorithms.
const KeySize = 32

var (
	// ErrOpen is returned when a sealed message fails authentication or is truncated.
	ErrOpen = errors.New("adaptive: message authentication failed")

	// ErrUnknownCipher is returned for an unrecognised algorithm name or tag.
	ErrUnknownCipher = errors.New("adaptive: unknown cipher")
)

const (
	tagAESGCM   byte = 0x01
	tagChaCha20 byte = 0x02
)

// Cipher provides authenticated encryption.
type Cipher interface {
	// Type returns the cipher type.
	Type() CipherType

	// Encrypt encrypts plaintext with additional data.
	// The random nonce is prepended to the result.
	Encrypt(plaintext, additionalData []byte) ([]byte, error)

	// Decrypt decrypts ciphertext with additional data.
	Decrypt(ciphertext, additionalData []byte) ([]byte, error)

	// NonceSize returns the nonce size in bytes.
	NonceSize() int

	// Overhead returns the authentication tag size in bytes.
	Overhead() int
}

// New creates a cipher with the algorithm preferred on this architecture.
func New(key []byte) (Cipher, error) {
	return NewWithType(key, Preferred())
}

// NewWithType creates a cipher of the specified type.
func NewWithType(key []byte, cipherType CipherType) (Cipher, error) {
	switch cipherType {
	case CipherAESGCM:
		return newAESGCM(key)
	case CipherChaCha20:
		return newChaCha20(key)
	default:
		return nil, ErrUnknownCipher
	}
}

// Preferred returns the algorithm that is fastest on this architecture.
func Preferred() CipherType {
	switch runtime.GOARCH {
	case "amd64", "arm64":
		return CipherAESGCM
	default:
		return CipherChaCha20
	}
}

// DeriveKey expands secret into a size-byte key bound to info using HKDF-SHA256.
func DeriveKey(secret []byte, info string, size int) ([]byte, error) {
	if len(secret) == 0 {
		return nil, errors.New("adaptive: empty secret")
	}
	key := make([]byte, size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(info)), key); err != nil {
		return nil, err
	}
	return key, nil
}

// Keyring seals with one algorithm and opens messages sealed with either.
// It is safe for concurrent use.
type Keyring struct {
	preferred *aeadCipher
	byTag     map[byte]*aeadCipher
}

// NewKeyring builds a keyring from a KeySize-byte key.
// An empty preferred type selects Preferred().
func NewKeyring(key []byte, preferred CipherType) (*Keyring, error) {
	if preferred == "" {
		preferred = Preferred()
	}
	if len(key) != KeySize {
		return nil, errors.New("adaptive: keyring key must be 32 bytes")
	}
	gcm, err := newAESGCM(key)
	if err != nil {
		return nil, err
	}
	cc, err := newChaCha20(key)
	if err != nil {
		return nil, err
	}

	k := &Keyring{byTag: map[byte]*aeadCipher{gcm.tag: gcm, cc.tag: cc}}
	switch preferred {
	case CipherAESGCM:
		k.preferred = gcm
	case CipherChaCha20:
		k.preferred = cc
	default:
		return nil, ErrUnknownCipher
	}
	return k, nil
}

// Type returns the algorithm used by Seal.
func (k *Keyring) Type() CipherType { return k.preferred.Type() }

// Seal encrypts plaintext and prefixes the algorithm tag.
func (k *Keyring) Seal(plaintext, additionalData []byte) ([]byte, error) {
	ct, err := k.preferred.Encrypt(plaintext, additionalData)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, 1+len(ct))
	out = append(out, k.preferred.tag)
	return append(out, ct...), nil
}

// Open reverses Seal. Any failure is reported as ErrOpen or ErrUnknownCipher.
func (k *Keyring) Open(sealed, additionalData []byte) ([]byte, error) {
	if len(sealed) < 1 {
		return nil, ErrOpen
	}
	c, ok := k.byTag[sealed[0]]
	if !ok {
		return nil, ErrUnknownCipher
	}
	pt, err := c.Decrypt(sealed[1:], additionalData)
	if err != nil {
		return nil, ErrOpen
	}
	return pt, nil
}
