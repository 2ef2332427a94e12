package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the GC Notify API.
const DefaultBaseURL = "https://api.notification.canada.ca"

const emailPath = "/v2/notifications/email"

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 512

// ErrDelivery is wrapped by every NotifyClient failure.
var ErrDelivery = errors.New("notify: delivery failed")

// ClientConfig configures a NotifyClient.
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	TemplateID string
	// Timeout bounds each request. Zero means 10s.
	Timeout time.Duration
	// TLSConfig replaces the default trust store, for example to add a
	// private CA. Ignored when HTTPClient is set.
	TLSConfig *tls.Config
	// HTTPClient overrides the transport, mostly for tests.
	HTTPClient *http.Client
}

// NotifyClient sends login emails through GC Notify.
type NotifyClient struct {
	endpoint   string
	apiKey     string
	templateID string
	http       *http.Client
}

// NewClient creates a NotifyClient.
func NewClient(cfg ClientConfig) (*NotifyClient, error) {
	if cfg.APIKey == "" || cfg.TemplateID == "" {
		return nil, errors.New("notify: api key and template id are required")
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
		if cfg.TLSConfig != nil {
			transport := http.DefaultTransport.(*http.Transport).Clone()
			transport.TLSClientConfig = cfg.TLSConfig
			client.Transport = transport
		}
	}
	return &NotifyClient{
		endpoint:   strings.TrimRight(base, "/") + emailPath,
		apiKey:     cfg.APIKey,
		templateID: cfg.TemplateID,
		http:       client,
	}, nil
}

type emailRequest struct {
	EmailAddress    string          `json:"email_address"`
	TemplateID      string          `json:"template_id"`
	Personalisation Personalisation `json:"personalisation"`
}

// Send posts one email notification. Any non-2xx status is an error.
func (c *NotifyClient) Send(ctx context.Context, email string, p Personalisation) error {
	body, err := json.Marshal(emailRequest{
		EmailAddress:    email,
		TemplateID:      c.templateID,
		Personalisation: p,
	})
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrDelivery, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "ApiKey-v1 "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: status %d: %s", ErrDelivery, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
