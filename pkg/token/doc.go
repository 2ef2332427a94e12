// Package token provides magic link token generation, parsing and hashing.
//
// Token Format:
//
//   - A ULID: 26 characters of Crockford base32
//   - The first 10 characters encode the creation time in milliseconds
//   - The remaining 16 characters are monotonic random entropy
//
// Digest Format:
//
//   - 64 characters of lowercase hex-encoded SHA-256
//
// Security:
//
//   - Entropy is drawn from crypto/rand
//   - Only digests are stored; raw tokens travel to the user and back once
//   - Expiry is derived from the embedded timestamp, so no expiry column is needed
package token
