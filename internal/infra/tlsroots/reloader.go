package tlsroots

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// CertReloader holds the serving certificate and reloads it when its files
// change. It is safe for concurrent use.
type CertReloader struct {
	certFile string
	keyFile  string
	cert     atomic.Pointer[tls.Certificate]
	notAfter atomic.Int64

	log      *slog.Logger
	debounce time.Duration
	onReload func(notAfter time.Time, err error)
}

// Option configures a CertReloader.
type Option func(*CertReloader)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *CertReloader) { r.log = l }
}

// WithDebounce sets how long Run waits after the last file event before
// reloading. Editors and cert managers often write cert and key separately.
func WithDebounce(d time.Duration) Option {
	return func(r *CertReloader) { r.debounce = d }
}

// WithReloadHook is called after every reload attempt, including the initial one.
func WithReloadHook(fn func(notAfter time.Time, err error)) Option {
	return func(r *CertReloader) { r.onReload = fn }
}

// NewCertReloader loads certFile and keyFile and fails if they do not form
// a valid key pair.
func NewCertReloader(certFile, keyFile string, opts ...Option) (*CertReloader, error) {
	r := &CertReloader{
		certFile: certFile,
		keyFile:  keyFile,
		log:      slog.Default(),
		debounce: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload reads the key pair from disk. On failure the current certificate
// stays in use.
func (r *CertReloader) Reload() error {
	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err == nil && cert.Leaf == nil {
		cert.Leaf, err = x509.ParseCertificate(cert.Certificate[0])
	}
	if err != nil {
		err = fmt.Errorf("tlsroots: load key pair: %w", err)
		if r.onReload != nil {
			r.onReload(time.Time{}, err)
		}
		return err
	}

	r.cert.Store(&cert)
	r.notAfter.Store(cert.Leaf.NotAfter.Unix())
	if r.onReload != nil {
		r.onReload(cert.Leaf.NotAfter, nil)
	}
	r.log.Info("certificate loaded",
		"cert_file", r.certFile,
		"subject", cert.Leaf.Subject.CommonName,
		"not_after", cert.Leaf.NotAfter,
	)
	return nil
}

// NotAfter returns the expiry of the certificate in use.
func (r *CertReloader) NotAfter() time.Time {
	return time.Unix(r.notAfter.Load(), 0)
}

// GetCertificate implements tls.Config.GetCertificate.
func (r *CertReloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return r.cert.Load(), nil
}

// ServerConfig returns a server TLS config backed by the reloader.
func (r *CertReloader) ServerConfig() *tls.Config {
	return &tls.Config{
		MinVersion:     tls.VersionTLS12,
		GetCertificate: r.GetCertificate,
	}
}

// Run watches the directories holding the cert and key until ctx is done.
// Directories rather than files are watched so atomic renames and symlink
// swaps are seen.
func (r *CertReloader) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("tlsroots: create watcher: %w", err)
	}
	defer watcher.Close()

	dirs := map[string]struct{}{
		filepath.Dir(r.certFile): {},
		filepath.Dir(r.keyFile):  {},
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("tlsroots: watch %s: %w", dir, err)
		}
	}

	watched := map[string]struct{}{
		filepath.Base(r.certFile): {},
		filepath.Base(r.keyFile):  {},
		"..data":                  {}, // Kubernetes secret volumes swap this symlink
	}

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if _, hit := watched[filepath.Base(event.Name)]; !hit {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			r.log.Debug("certificate file changed", "file", event.Name, "op", event.Op.String())
			pending = time.After(r.debounce)

		case <-pending:
			pending = nil
			if err := r.Reload(); err != nil {
				r.log.Error("certificate reload failed, keeping previous certificate",
					"cert_file", r.certFile,
					"error", err,
				)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.log.Error("certificate watcher error", "error", err)
		}
	}
}
