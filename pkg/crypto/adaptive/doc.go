// Package adaptive provides authenticated encryption for fp4 session tokens.
//
// Supported Algorithms:
//
//   - AES-256-GCM: preferred on amd64 and arm64, where Go uses hardware AES
//   - ChaCha20-Poly1305: preferred everywhere else
//
// A Keyring seals with its preferred algorithm and prefixes the output with
// a one-byte algorithm tag, so any instance holding the same key can open it
// regardless of which algorithm that instance prefers.
//
// Keys are derived from a shared secret with HKDF-SHA256 (DeriveKey), one
// label per purpose.
//
// Usage:
//
//	key, err := adaptive.DeriveKey(secret, "fp4 session encryption", 32)
//	ring, err := adaptive.NewKeyring(key, "")
//	sealed, err := ring.Seal(plaintext, aad)
//	plaintext, err := ring.Open(sealed, aad)
package adaptive
