package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNotifyClient_Send(t *testing.T) {
	var got emailRequest
	var auth, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"f0f1"}`))
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{BaseURL: srv.URL + "/", APIKey: "fp4-key", TemplateID: "tmpl-1"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if err := c.Send(context.Background(), "ada@rcmp-grc.gc.ca", Personalisation{Code: "01K3V78Q0HPX76B44HRRZWA5PJ"}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if path != "/v2/notifications/email" {
		t.Errorf("path = %q", path)
	}
	if auth != "ApiKey-v1 fp4-key" {
		t.Errorf("Authorization = %q", auth)
	}
	if got.EmailAddress != "ada@rcmp-grc.gc.ca" || got.TemplateID != "tmpl-1" || got.Personalisation.Code != "01K3V78Q0HPX76B44HRRZWA5PJ" {
		t.Errorf("body = %+v", got)
	}
}

func TestNotifyClient_Send_PrivateCA(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	untrusted, err := NewClient(ClientConfig{BaseURL: srv.URL, APIKey: "k", TemplateID: "t"})
	if err != nil {
		t.Fatal(err)
	}
	if err := untrusted.Send(context.Background(), "a@b.ca", Personalisation{Code: "x"}); !errors.Is(err, ErrDelivery) {
		t.Fatalf("Send() without CA = %v, want ErrDelivery", err)
	}

	pool := x509.NewCertPool()
	pool.AddCert(srv.Certificate())
	trusted, err := NewClient(ClientConfig{
		BaseURL:    srv.URL,
		APIKey:     "k",
		TemplateID: "t",
		TLSConfig:  &tls.Config{RootCAs: pool},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := trusted.Send(context.Background(), "a@b.ca", Personalisation{Code: "x"}); err != nil {
		t.Fatalf("Send() with CA = %v", err)
	}
}

func TestNotifyClient_Send_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"error":"BadRequestError"}]}`))
	}))
	defer srv.Close()

	c, _ := NewClient(ClientConfig{BaseURL: srv.URL, APIKey: "k", TemplateID: "t"})
	err := c.Send(context.Background(), "ada@rcmp-grc.gc.ca", Personalisation{Code: "x"})
	if !errors.Is(err, ErrDelivery) {
		t.Fatalf("Send() error = %v, want ErrDelivery", err)
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("error %q should carry the status", err)
	}
}

func TestNotifyClient_Send_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	c, _ := NewClient(ClientConfig{BaseURL: srv.URL, APIKey: "k", TemplateID: "t", Timeout: 20 * time.Millisecond})
	if err := c.Send(context.Background(), "a@b.c", Personalisation{}); !errors.Is(err, ErrDelivery) {
		t.Errorf("Send() error = %v, want ErrDelivery", err)
	}
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	if _, err := NewClient(ClientConfig{TemplateID: "t"}); err == nil {
		t.Error("NewClient() should require an api key")
	}
	c, err := NewClient(ClientConfig{APIKey: "k", TemplateID: "t"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if c.endpoint != DefaultBaseURL+emailPath {
		t.Errorf("endpoint = %q", c.endpoint)
	}
}

func TestLogSender_DoesNotLogCode(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSender(slog.New(slog.NewJSONHandler(&buf, nil)))

	code := "01K3V78Q0HPX76B44HRRZWA5PJ"
	if err := s.Send(context.Background(), "ada@rcmp-grc.gc.ca", Personalisation{Code: code}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	out := buf.String()
	if strings.Contains(out, code) {
		t.Errorf("log output contains the raw code: %s", out)
	}
	if strings.Contains(out, "ada@") {
		t.Errorf("log output contains the full address: %s", out)
	}
}
