package adaptive

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// aeadCipher is a Cipher over any AEAD with a random nonce prefix.
type aeadCipher struct {
	typ  CipherType
	tag  byte
	aead cipher.AEAD
}

// newAESGCM accepts 16, 24 or 32 byte keys.
func newAESGCM(key []byte) (*aeadCipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("adaptive: aes-gcm: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &aeadCipher{typ: CipherAESGCM, tag: tagAESGCM, aead: aead}, nil
}

func newChaCha20(key []byte) (*aeadCipher, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("adaptive: chacha20-poly1305: %w", err)
	}
	return &aeadCipher{typ: CipherChaCha20, tag: tagChaCha20, aead: aead}, nil
}

func (c *aeadCipher) Type() CipherType { return c.typ }

func (c *aeadCipher) NonceSize() int { return c.aead.NonceSize() }

func (c *aeadCipher) Overhead() int { return c.aead.Overhead() }

func (c *aeadCipher) Encrypt(plaintext, additionalData []byte) ([]byte, error) {
	n := c.aead.NonceSize()
	nonce := make([]byte, n, n+len(plaintext)+c.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return c.aead.Seal(nonce, nonce, plaintext, additionalData), nil
}

func (c *aeadCipher) Decrypt(ciphertext, additionalData []byte) ([]byte, error) {
	n := c.aead.NonceSize()
	if len(ciphertext) < n+c.aead.Overhead() {
		return nil, ErrOpen
	}
	return c.aead.Open(nil, ciphertext[:n], ciphertext[n:], additionalData)
}
