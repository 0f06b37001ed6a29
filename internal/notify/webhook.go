// Package notify delivers outward messages through a Slack-style
// incoming webhook. It implements chat.Notifier; delivery is
// best-effort and callers decide whether a failure matters.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	tferrors "github.com/threadflow/threadflow/pkg/threadflow/errors"
)

// Webhook posts messages to a single incoming-webhook URL. Construct
// with NewWebhook.
type Webhook struct {
	url    string
	http   *http.Client
	logger *slog.Logger
	retry  tferrors.RetryConfig
}

// Option configures a Webhook.
type Option func(*Webhook)

// WithHTTPClient substitutes the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(w *Webhook) {
		if hc != nil {
			w.http = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Webhook) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithRetry overrides the retry policy for deliveries.
func WithRetry(cfg tferrors.RetryConfig) Option {
	return func(w *Webhook) {
		w.retry = cfg
	}
}

// NewWebhook builds a notifier posting to url.
func NewWebhook(url string, opts ...Option) *Webhook {
	w := &Webhook{
		url:    url,
		http:   &http.Client{Timeout: 10 * time.Second},
		logger: slog.Default(),
		retry:  tferrors.DefaultRetry,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type webhookPayload struct {
	Channel string `json:"channel,omitempty"`
	Text    string `json:"text"`
}

// Notify implements chat.Notifier. An empty channel posts to the
// webhook's default channel.
func (w *Webhook) Notify(ctx context.Context, channel, text string) error {
	if text == "" {
		return &tferrors.ValidationError{Field: "text", Message: "notification text is empty"}
	}

	_, err := tferrors.Do(ctx, w.retry, "webhook delivery", func(ctx context.Context) (struct{}, error) {
		var none struct{}
		body, err := json.Marshal(webhookPayload{Channel: channel, Text: text})
		if err != nil {
			return none, fmt.Errorf("marshaling webhook payload: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
		if err != nil {
			return none, fmt.Errorf("building webhook request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := w.http.Do(req)
		if err != nil {
			return none, fmt.Errorf("webhook request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			respBody, _ := io.ReadAll(resp.Body)
			return none, tferrors.StatusError(w.url, resp.StatusCode, respBody)
		}
		return none, nil
	})
	if err != nil {
		return err
	}

	w.logger.Debug("notification delivered", "channel", channel)
	return nil
}
