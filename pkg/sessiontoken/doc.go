// Package sessiontoken issues and verifies fp4 session tokens.
//
// A session token is an HS256-signed JWT carrying the account email and id,
// sealed with an AEAD (see pkg/crypto/adaptive) and encoded as base64url.
// The signature protects integrity; the seal keeps claims confidential in
// the cookie. Signing and encryption keys are derived from one shared secret
// with HKDF under separate labels.
package sessiontoken
