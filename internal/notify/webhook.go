package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds one webhook round trip.
const DefaultTimeout = 15 * time.Second

// WebhookConfig carries the delivery settings for a webhook endpoint.
// ProxyURL is only honored when UseProxy is set, mirroring the separate
// on/off switch in the environment.
type WebhookConfig struct {
	URL      string
	ProxyURL string
	UseProxy bool
	Timeout  time.Duration
	Retries  int
}

// WebhookNotifier posts alert text as {"text": message} JSON to a
// configured endpoint. Transient failures are retried with backoff
// inside the caller's deadline.
type WebhookNotifier struct {
	url     string
	client  *http.Client
	retries int
}

func NewWebhookNotifier(cfg WebhookConfig) (*WebhookNotifier, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("webhook url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}

	transport := http.DefaultTransport
	if cfg.UseProxy && cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	}

	return &WebhookNotifier{
		url: cfg.URL,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		retries: cfg.Retries,
	}, nil
}

// Notify delivers one message. A non-2xx response is an error carrying
// the status and as much of the body as fits a log line.
func (w *WebhookNotifier) Notify(ctx context.Context, message string) error {
	payload, err := json.Marshal(map[string]string{"text": message})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}
	return withRetry(ctx, w.retries, time.Second, func(ctx context.Context) error {
		return w.post(ctx, payload)
	})
}

func (w *WebhookNotifier) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
