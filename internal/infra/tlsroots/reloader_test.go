package tlsroots

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func keyPairPaths(t *testing.T) (string, string) {
	dir := t.TempDir()
	return filepath.Join(dir, "server.crt"), filepath.Join(dir, "server.key")
}

func TestNewCertReloader(t *testing.T) {
	certFile, keyFile := keyPairPaths(t)
	writeKeyPair(t, certFile, keyFile, "first.local", 24*time.Hour)

	var hookCalls int
	r, err := NewCertReloader(certFile, keyFile,
		WithLogger(quietLogger()),
		WithReloadHook(func(notAfter time.Time, err error) {
			hookCalls++
			if err != nil {
				t.Errorf("hook error = %v", err)
			}
		}),
	)
	if err != nil {
		t.Fatalf("NewCertReloader() error = %v", err)
	}
	if hookCalls != 1 {
		t.Errorf("hook calls = %d, want 1", hookCalls)
	}

	cert, err := r.GetCertificate(nil)
	if err != nil || cert == nil {
		t.Fatalf("GetCertificate() = %v, %v", cert, err)
	}
	if cert.Leaf.Subject.CommonName != "first.local" {
		t.Errorf("CN = %q", cert.Leaf.Subject.CommonName)
	}
	if d := time.Until(r.NotAfter()); d < 23*time.Hour || d > 25*time.Hour {
		t.Errorf("NotAfter in %v, want about 24h", d)
	}

	cfg := r.ServerConfig()
	if cfg.GetCertificate == nil || cfg.MinVersion == 0 {
		t.Errorf("ServerConfig() = %+v", cfg)
	}
}

func TestNewCertReloader_Invalid(t *testing.T) {
	if _, err := NewCertReloader("/nonexistent/cert.pem", "/nonexistent/key.pem"); err == nil {
		t.Error("expected error for missing files")
	}

	certFile, keyFile := keyPairPaths(t)
	os.WriteFile(certFile, []byte("invalid"), 0o644)
	os.WriteFile(keyFile, []byte("invalid"), 0o600)
	if _, err := NewCertReloader(certFile, keyFile); err == nil {
		t.Error("expected error for invalid key pair")
	}
}

func TestCertReloader_FailedReloadKeepsCertificate(t *testing.T) {
	certFile, keyFile := keyPairPaths(t)
	writeKeyPair(t, certFile, keyFile, "first.local", time.Hour)

	var lastErr error
	r, err := NewCertReloader(certFile, keyFile,
		WithLogger(quietLogger()),
		WithReloadHook(func(_ time.Time, err error) { lastErr = err }),
	)
	if err != nil {
		t.Fatal(err)
	}
	before := r.NotAfter()

	os.WriteFile(keyFile, []byte("truncated"), 0o600)
	if err := r.Reload(); err == nil {
		t.Fatal("Reload() with broken key should fail")
	}
	if lastErr == nil {
		t.Error("hook did not see the failure")
	}

	cert, _ := r.GetCertificate(nil)
	if cert == nil || cert.Leaf.Subject.CommonName != "first.local" {
		t.Errorf("certificate changed after failed reload: %v", cert)
	}
	if !r.NotAfter().Equal(before) {
		t.Errorf("NotAfter changed after failed reload")
	}
}

func TestCertReloader_RunReloadsOnChange(t *testing.T) {
	certFile, keyFile := keyPairPaths(t)
	writeKeyPair(t, certFile, keyFile, "first.local", time.Hour)

	var mu sync.Mutex
	reloaded := make(chan struct{}, 8)
	r, err := NewCertReloader(certFile, keyFile,
		WithLogger(quietLogger()),
		WithDebounce(50*time.Millisecond),
		WithReloadHook(func(_ time.Time, err error) {
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				select {
				case reloaded <- struct{}{}:
				default:
				}
			}
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	<-reloaded // initial load

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)
	writeKeyPair(t, certFile, keyFile, "second.local", 48*time.Hour)

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("certificate was not reloaded")
	}

	cert, _ := r.GetCertificate(nil)
	if cert.Leaf.Subject.CommonName != "second.local" {
		t.Errorf("CN after reload = %q, want second.local", cert.Leaf.Subject.CommonName)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestCertReloader_RunMissingDirectory(t *testing.T) {
	certFile, keyFile := keyPairPaths(t)
	writeKeyPair(t, certFile, keyFile, "first.local", time.Hour)
	r, err := NewCertReloader(certFile, keyFile, WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}
	r.keyFile = filepath.Join(t.TempDir(), "gone", "server.key")

	if err := r.Run(context.Background()); err == nil {
		t.Error("Run() should fail when a directory cannot be watched")
	}
}
