// Package automation posts notifications to the external automation webhook that delivers invitations
// and account emails.
package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// SecretHeader carries the shared secret on every request.
const SecretHeader = "X-Webhook-Secret"

// Message kinds.
const (
	KindEventInvitation = "event_invitation"
)

// ErrNotConfigured is returned when no webhook URL is set.
var ErrNotConfigured = errors.New("automation webhook not configured")

// Config holds the webhook endpoint.
type Config struct {
	URL     string
	Secret  string
	Timeout time.Duration
}

// Envelope is the JSON body posted to the webhook.
type Envelope struct {
	Type   string    `json:"type"`
	SentAt time.Time `json:"sent_at"`
	Data   any       `json:"data"`
}

// Client posts JSON envelopes to the webhook.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// New creates a webhook client.
func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, logger: logger}
}

// Send posts data under kind. Any non-2xx answer is an error carrying the status and a snippet of
// the body.
func (c *Client) Send(ctx context.Context, kind string, data any) error {
	if c.cfg.URL == "" {
		return ErrNotConfigured
	}
	body, err := json.Marshal(Envelope{Type: kind, SentAt: time.Now().UTC(), Data: data})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", kind, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Secret != "" {
		req.Header.Set(SecretHeader, c.cfg.Secret)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", kind, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	c.logger.Info("webhook delivered", zap.String("type", kind), zap.Int("status", resp.StatusCode))
	return nil
}
