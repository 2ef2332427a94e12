// Package tlsroots manages the TLS material fp4 uses on both sides of a
// connection.
//
// CertReloader serves the HTTP listener's certificate and swaps it in place
// when the certificate or key file changes on disk, so renewals need no
// restart. ClientConfig builds the outbound trust store from the system
// roots plus extra CA files, for delivery services behind a private CA.
package tlsroots
