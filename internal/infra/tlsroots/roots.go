package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// ErrNoCertsFound is returned when PEM data holds no CERTIFICATE block.
var ErrNoCertsFound = errors.New("tlsroots: no certificates found in PEM data")

// AppendPEM adds every CERTIFICATE block in data to pool and returns how
// many were added. Other block types are skipped.
func AppendPEM(pool *x509.CertPool, data []byte) (int, error) {
	added := 0
	for len(data) > 0 {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return added, fmt.Errorf("tlsroots: parse certificate: %w", err)
		}
		pool.AddCert(cert)
		added++
	}
	if added == 0 {
		return 0, ErrNoCertsFound
	}
	return added, nil
}

// LoadRoots returns the system roots plus the certificates in caFiles.
// Where the platform has no system pool it starts from an empty one.
func LoadRoots(caFiles ...string) (*x509.CertPool, error) {
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	for _, path := range caFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("tlsroots: read %s: %w", path, err)
		}
		if _, err := AppendPEM(pool, data); err != nil {
			return nil, fmt.Errorf("tlsroots: %s: %w", path, err)
		}
	}
	return pool, nil
}

// ClientConfig returns a client TLS config trusting the system roots and
// caFiles. With no caFiles it returns nil, meaning Go's defaults.
func ClientConfig(caFiles ...string) (*tls.Config, error) {
	if len(caFiles) == 0 {
		return nil, nil
	}
	pool, err := LoadRoots(caFiles...)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		RootCAs:    pool,
		MinVersion: tls.VersionTLS12,
	}, nil
}
