// Package provider implements the chat collaborator contracts on top
// of an OpenAI-compatible chat completions API. Client is the raw
// completion transport; Classifier, Responder, and Decider wrap any
// chat.Completer with the prompts the agents need.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/threadflow/threadflow/pkg/chat"
	tferrors "github.com/threadflow/threadflow/pkg/threadflow/errors"
)

// Defaults applied when the caller leaves the knob unset.
const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-4o-mini"
	DefaultMaxTokens   = 400
	DefaultTemperature = 0.7
)

// Client calls the chat completions endpoint of an OpenAI-compatible
// server. Construct with NewClient.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	http        *http.Client
	logger      *slog.Logger
	retry       tferrors.RetryConfig
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different server, mainly for
// tests and self-hosted gateways.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithModel selects the model name sent with every request.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithMaxTokens sets the response cap used when a request does not
// carry its own.
func WithMaxTokens(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithTemperature sets the sampling temperature used when a request
// does not carry its own.
func WithTemperature(t float64) Option {
	return func(c *Client) {
		if t >= 0 {
			c.temperature = t
		}
	}
}

// WithHTTPClient substitutes the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRetry overrides the retry policy for completion calls.
func WithRetry(cfg tferrors.RetryConfig) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}

// NewClient builds a completion client authenticating with apiKey.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		apiKey:      apiKey,
		model:       DefaultModel,
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
		http:        &http.Client{Timeout: 60 * time.Second},
		logger:      slog.Default(),
		retry:       tferrors.DefaultRetry,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete implements chat.Completer. Transient HTTP failures are
// retried under the client's retry policy.
func (c *Client) Complete(ctx context.Context, req chat.CompletionRequest) (string, error) {
	payload := completionRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}
	if req.MaxTokens > 0 {
		payload.MaxTokens = req.MaxTokens
	}
	if req.Temperature != nil {
		payload.Temperature = *req.Temperature
	}
	if req.System != "" {
		payload.Messages = append(payload.Messages, chatMessage{Role: "system", Content: req.System})
	}
	payload.Messages = append(payload.Messages, chatMessage{Role: "user", Content: req.Prompt})

	return tferrors.Do(ctx, c.retry, "chat completion", func(ctx context.Context) (string, error) {
		body, err := json.Marshal(payload)
		if err != nil {
			return "", fmt.Errorf("marshaling completion request: %w", err)
		}

		endpoint := c.baseURL + "/chat/completions"
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("building request: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(httpReq)
		if err != nil {
			return "", fmt.Errorf("completion request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("reading completion response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return "", tferrors.StatusError(endpoint, resp.StatusCode, respBody)
		}

		var parsed completionResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return "", fmt.Errorf("decoding completion response: %w", err)
		}
		if parsed.Error != nil {
			return "", fmt.Errorf("completion API returned error: %s", parsed.Error.Message)
		}
		if len(parsed.Choices) == 0 {
			return "", fmt.Errorf("completion response has no choices")
		}
		return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
	})
}
